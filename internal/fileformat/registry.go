package fileformat

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agentic-research/proctest/internal/sdf"
)

// Factory creates the format instance. It is called at most once per
// registration.
type Factory func() FileFormat

type entry struct {
	identity Identity
	factory  Factory
	once     sync.Once
	instance FileFormat
}

func (e *entry) format() FileFormat {
	e.once.Do(func() {
		e.instance = e.factory()
	})
	return e.instance
}

var (
	mu          sync.RWMutex
	byID        = make(map[string]*entry)
	byExtension = make(map[string]*entry)
)

// Register adds a format to the registry. Registering the same id or
// extension twice panics: registration happens once at start-up.
func Register(id Identity, factory Factory) {
	ext := strings.ToLower(strings.TrimPrefix(id.Extension, "."))
	if id.ID == "" || ext == "" || factory == nil {
		panic(fmt.Sprintf("fileformat: incomplete registration %+v", id))
	}
	id.Extension = ext

	mu.Lock()
	defer mu.Unlock()
	if _, exists := byID[id.ID]; exists {
		panic(fmt.Sprintf("fileformat: format %q already registered", id.ID))
	}
	if other, exists := byExtension[ext]; exists {
		panic(fmt.Sprintf("fileformat: extension %q already registered by %q", ext, other.identity.ID))
	}
	e := &entry{identity: id, factory: factory}
	byID[id.ID] = e
	byExtension[ext] = e
}

// FindByID returns the format registered under id.
func FindByID(id string) (FileFormat, bool) {
	mu.RLock()
	e, ok := byID[id]
	mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.format(), true
}

// FindByExtension returns the format for the extension of pathOrExt, which
// may be a bare extension ("proctest", ".proctest"), a path, or a layer
// identifier carrying arguments.
func FindByExtension(pathOrExt string) (FileFormat, bool) {
	ext := sdf.Extension(pathOrExt)
	if ext == "" {
		ext = strings.ToLower(strings.TrimPrefix(pathOrExt, "."))
	}
	mu.RLock()
	e, ok := byExtension[ext]
	mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.format(), true
}

// Identities returns all registered identities sorted by id.
func Identities() []Identity {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Identity, 0, len(byID))
	for _, e := range byID {
		out = append(out, e.identity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Reset clears the registry (for testing).
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	byID = make(map[string]*entry)
	byExtension = make(map[string]*entry)
}
