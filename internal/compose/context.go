// Package compose provides the read-only composition context handed to
// dynamic file formats while their arguments are derived.
package compose

import (
	"sort"
	"sync"

	"github.com/agentic-research/proctest/internal/vt"
)

// Context composes field values from the ancestors and siblings of the
// reference being resolved. It is only valid for the duration of one call.
type Context interface {
	// ComposeValue returns the strongest opinion for field, or false when
	// no layer has one.
	ComposeValue(field string) (vt.Value, bool)
}

// Opinions is one layer of authored field values.
type Opinions map[string]vt.Value

// StackContext composes over an ordered stack of opinions, strongest first.
type StackContext struct {
	stack []Opinions
}

// NewStackContext returns a context over stack, strongest opinion first.
func NewStackContext(stack ...Opinions) *StackContext {
	return &StackContext{stack: stack}
}

// ComposeValue implements Context.
func (c *StackContext) ComposeValue(field string) (vt.Value, bool) {
	for _, layer := range c.stack {
		if v, ok := layer[field]; ok && !v.IsEmpty() {
			return v, true
		}
	}
	return vt.Value{}, false
}

// Recorder wraps a Context and remembers every field it was asked for.
// The host uses it to learn which fields an argument derivation depends on.
type Recorder struct {
	inner Context

	mu     sync.Mutex
	fields map[string]struct{}
}

// NewRecorder wraps inner. A nil inner composes nothing.
func NewRecorder(inner Context) *Recorder {
	return &Recorder{inner: inner, fields: make(map[string]struct{})}
}

// ComposeValue implements Context.
func (r *Recorder) ComposeValue(field string) (vt.Value, bool) {
	r.mu.Lock()
	r.fields[field] = struct{}{}
	r.mu.Unlock()
	if r.inner == nil {
		return vt.Value{}, false
	}
	return r.inner.ComposeValue(field)
}

// Fields returns the recorded field names, sorted.
func (r *Recorder) Fields() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.fields))
	for f := range r.fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
