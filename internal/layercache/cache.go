// Package layercache is the host side of dynamic file formats: it resolves
// asset references through the format registry, keys materialized layers by
// their resolved identifier, and evicts them when a field their arguments
// were derived from changes.
package layercache

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/proctest/internal/compose"
	"github.com/agentic-research/proctest/internal/fileformat"
	"github.com/agentic-research/proctest/internal/sdf"
	"github.com/agentic-research/proctest/internal/vt"
)

var (
	ErrNoFormat   = errors.New("no file format for asset")
	ErrCannotRead = errors.New("file format cannot read asset")
)

type entry struct {
	intID      uint32
	assetPath  string
	identifier string
	layer      *sdf.Layer
	format     fileformat.FileFormat
	depData    vt.Value
	fields     []string
}

// Cache holds materialized layers. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry // resolved identifier → entry

	// Roaring bitmap index: composition field → internal IDs of entries
	// whose arguments were derived while consulting that field.
	fieldIndex map[string]*roaring.Bitmap
	intToEntry map[uint32]*entry
	nextIntID  uint32
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		entries:    make(map[string]*entry),
		fieldIndex: make(map[string]*roaring.Bitmap),
		intToEntry: make(map[uint32]*entry),
	}
}

// Resolve returns the resolved identifier for assetPath in ctx, without
// reading anything. For dynamic formats this is where arguments are derived.
func (c *Cache) Resolve(assetPath string, ctx compose.Context) (string, fileformat.FileFormat, error) {
	id, f, _, _, err := c.resolve(assetPath, ctx)
	return id, f, err
}

func (c *Cache) resolve(assetPath string, ctx compose.Context) (string, fileformat.FileFormat, vt.Value, []string, error) {
	f, ok := fileformat.FindByExtension(assetPath)
	if !ok {
		return "", nil, vt.Value{}, nil, fmt.Errorf("%s: %w", assetPath, ErrNoFormat)
	}
	dyn, ok := f.(fileformat.DynamicFileFormat)
	if !ok {
		return assetPath, f, vt.Value{}, nil, nil
	}
	rec := compose.NewRecorder(ctx)
	args, dep := dyn.DeriveArguments(assetPath, rec)
	return sdf.CreateIdentifier(assetPath, args), f, dep, rec.Fields(), nil
}

// Open returns the layer for assetPath as composed in ctx, reading it on a
// cache miss. Concurrent misses for the same identifier may both read; the
// first stored layer wins.
func (c *Cache) Open(assetPath string, ctx compose.Context) (*sdf.Layer, error) {
	identifier, f, dep, fields, err := c.resolve(assetPath, ctx)
	if err != nil {
		return nil, err
	}
	return c.open(assetPath, identifier, f, dep, fields)
}

// OpenWithArguments returns the layer for assetPath with explicit file format
// arguments embedded in its identifier. Nothing is derived, so the entry does
// not depend on any field.
func (c *Cache) OpenWithArguments(assetPath string, args sdf.FileFormatArguments) (*sdf.Layer, error) {
	f, ok := fileformat.FindByExtension(assetPath)
	if !ok {
		return nil, fmt.Errorf("%s: %w", assetPath, ErrNoFormat)
	}
	return c.open(assetPath, sdf.CreateIdentifier(assetPath, args), f, vt.Value{}, nil)
}

func (c *Cache) open(assetPath, identifier string, f fileformat.FileFormat, dep vt.Value, fields []string) (*sdf.Layer, error) {
	c.mu.Lock()
	if e, ok := c.entries[identifier]; ok {
		c.indexLocked(e, fields)
		c.mu.Unlock()
		return e.layer, nil
	}
	c.mu.Unlock()

	if !f.CanRead(assetPath) {
		return nil, fmt.Errorf("%s: %w", assetPath, ErrCannotRead)
	}
	layer := sdf.New(identifier)
	if err := f.Read(layer, identifier, false); err != nil {
		return nil, fmt.Errorf("read %s: %w", identifier, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[identifier]; ok {
		c.indexLocked(e, fields)
		return e.layer, nil
	}
	e := &entry{
		intID:      c.nextIntID,
		assetPath:  assetPath,
		identifier: identifier,
		layer:      layer,
		format:     f,
		depData:    dep,
	}
	c.nextIntID++
	c.entries[identifier] = e
	c.intToEntry[e.intID] = e
	c.indexLocked(e, fields)
	return layer, nil
}

// indexLocked records that e depends on fields. Must be called with c.mu held.
func (c *Cache) indexLocked(e *entry, fields []string) {
	for _, field := range fields {
		bm, ok := c.fieldIndex[field]
		if !ok {
			bm = roaring.New()
			c.fieldIndex[field] = bm
		}
		if bm.CheckedAdd(e.intID) {
			e.fields = append(e.fields, field)
		}
	}
}

// Get returns a cached layer by resolved identifier.
func (c *Cache) Get(identifier string) (*sdf.Layer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[identifier]
	if !ok {
		return nil, false
	}
	return e.layer, true
}

// FieldChanged tells the cache that field changed from oldValue to newValue.
// Every entry whose arguments were derived while consulting field is asked
// through its format whether the change can affect its arguments; those that
// answer true are evicted. Returns the evicted identifiers, sorted.
func (c *Cache) FieldChanged(field string, oldValue, newValue vt.Value) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	bm, ok := c.fieldIndex[field]
	if !ok {
		return nil
	}

	var evict []*entry
	it := bm.Iterator()
	for it.HasNext() {
		e, ok := c.intToEntry[it.Next()]
		if !ok {
			continue
		}
		dyn, ok := e.format.(fileformat.DynamicFileFormat)
		if !ok || dyn.CanFieldChangeAffectArguments(field, oldValue, newValue, e.depData) {
			evict = append(evict, e)
		}
	}

	out := make([]string, 0, len(evict))
	for _, e := range evict {
		c.removeLocked(e)
		out = append(out, e.identifier)
	}
	sort.Strings(out)
	return out
}

// Evict drops the entry for identifier, if any.
func (c *Cache) Evict(identifier string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[identifier]
	if !ok {
		return false
	}
	c.removeLocked(e)
	return true
}

// removeLocked must be called with c.mu held.
func (c *Cache) removeLocked(e *entry) {
	delete(c.entries, e.identifier)
	delete(c.intToEntry, e.intID)
	for _, field := range e.fields {
		if bm, ok := c.fieldIndex[field]; ok {
			bm.Remove(e.intID)
			if bm.IsEmpty() {
				delete(c.fieldIndex, field)
			}
		}
	}
}

// Identifiers returns the cached identifiers, sorted.
func (c *Cache) Identifiers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for id := range c.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Dependents returns the identifiers whose arguments depend on field, sorted.
func (c *Cache) Dependents(field string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	bm, ok := c.fieldIndex[field]
	if !ok {
		return nil
	}
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		if e, ok := c.intToEntry[it.Next()]; ok {
			out = append(out, e.identifier)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of cached layers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
