// Package sdf is the in-memory document model the composition host hands to
// file formats: layers of prim specs carrying typed attribute specs.
package sdf

import (
	"errors"
	"fmt"
	"sync"

	"github.com/agentic-research/proctest/internal/vt"
	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("spec not found")
	ErrNotEditable  = errors.New("layer is not editable")
	ErrInvalidPath  = errors.New("invalid path")
	ErrTypeConflict = errors.New("attribute type conflict")
)

// Specifier of a prim spec. Only "def" is authored by this package.
type Specifier string

const SpecifierDef Specifier = "def"

// Variability of an attribute spec.
type Variability int

const (
	VariabilityVarying Variability = iota
	VariabilityUniform
)

func (v Variability) String() string {
	if v == VariabilityUniform {
		return "uniform"
	}
	return "varying"
}

// AttributeSpec is an authored attribute with its default value.
type AttributeSpec struct {
	Name        string
	TypeName    string
	Variability Variability
	Default     vt.Value
}

// PrimSpec is a snapshot of an authored prim. Attributes are in authoring order.
type PrimSpec struct {
	Path       Path
	Specifier  Specifier
	TypeName   string
	Attributes []AttributeSpec
	Children   []Path
}

// Attribute returns the named attribute of the snapshot.
func (p *PrimSpec) Attribute(name string) (AttributeSpec, bool) {
	for _, a := range p.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeSpec{}, false
}

// Diagnostic is a non-fatal problem reported while producing a layer.
type Diagnostic struct {
	Code    string
	Message string
}

func (d Diagnostic) String() string {
	return d.Code + ": " + d.Message
}

type primSpec struct {
	path      Path
	specifier Specifier
	typeName  string
	attrs     map[string]*AttributeSpec
	order     []string
	children  []Path
}

func (p *primSpec) snapshot() PrimSpec {
	out := PrimSpec{
		Path:      p.path,
		Specifier: p.specifier,
		TypeName:  p.typeName,
		Children:  append([]Path(nil), p.children...),
	}
	for _, name := range p.order {
		a := *p.attrs[name]
		a.Default = a.Default.Clone()
		out.Attributes = append(out.Attributes, a)
	}
	return out
}

func (p *primSpec) clone() *primSpec {
	c := &primSpec{
		path:      p.path,
		specifier: p.specifier,
		typeName:  p.typeName,
		attrs:     make(map[string]*AttributeSpec, len(p.attrs)),
		order:     append([]string(nil), p.order...),
		children:  append([]Path(nil), p.children...),
	}
	for name, a := range p.attrs {
		ca := *a
		ca.Default = a.Default.Clone()
		c.attrs[name] = &ca
	}
	return c
}

// layerContent is everything TransferContent moves between layers.
type layerContent struct {
	prims       map[Path]*primSpec
	roots       []Path
	defaultPrim string
}

func (c *layerContent) clone() layerContent {
	out := layerContent{
		prims:       make(map[Path]*primSpec, len(c.prims)),
		roots:       append([]Path(nil), c.roots...),
		defaultPrim: c.defaultPrim,
	}
	for p, spec := range c.prims {
		out.prims[p] = spec.clone()
	}
	return out
}

// Layer is a single in-memory document. It is safe for concurrent use.
type Layer struct {
	mu          sync.RWMutex
	identifier  string
	anonymous   bool
	editable    bool
	content     layerContent
	diagnostics []Diagnostic
}

// New returns an empty, editable layer with the given identifier.
func New(identifier string) *Layer {
	return &Layer{
		identifier: identifier,
		editable:   true,
		content:    layerContent{prims: make(map[Path]*primSpec)},
	}
}

// CreateAnonymous returns a new layer with a unique "anon:" identifier.
// The tag (typically a file extension such as ".usd") is kept as a suffix.
func CreateAnonymous(tag string) *Layer {
	l := New("anon:" + uuid.NewString() + ":" + tag)
	l.anonymous = true
	return l
}

// Identifier returns the layer identifier, including any embedded arguments.
func (l *Layer) Identifier() string {
	return l.identifier
}

// IsAnonymous reports whether the layer was created with CreateAnonymous.
func (l *Layer) IsAnonymous() bool {
	return l.anonymous
}

// SetPermissionToEdit controls whether authoring calls succeed.
func (l *Layer) SetPermissionToEdit(allow bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.editable = allow
}

// PermissionToEdit reports whether authoring calls are allowed.
func (l *Layer) PermissionToEdit() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.editable
}

// IsEmpty reports whether the layer has no prims and no default prim.
func (l *Layer) IsEmpty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.content.prims) == 0 && l.content.defaultPrim == ""
}

// DefinePrim authors a "def" prim at path, creating typeless ancestors as
// needed. Defining an existing prim updates its type name when one is given.
func (l *Layer) DefinePrim(path Path, typeName string) error {
	if err := path.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.editable {
		return ErrNotEditable
	}

	l.definePrimLocked(path.Parent(), path)
	spec := l.content.prims[path]
	spec.specifier = SpecifierDef
	if typeName != "" {
		spec.typeName = typeName
	}
	return nil
}

// definePrimLocked makes sure path and its ancestors exist. Must be called with l.mu held.
func (l *Layer) definePrimLocked(parent, path Path) {
	if _, ok := l.content.prims[path]; ok {
		return
	}
	l.content.prims[path] = &primSpec{
		path:      path,
		specifier: SpecifierDef,
		attrs:     make(map[string]*AttributeSpec),
	}
	if parent == AbsoluteRoot {
		l.content.roots = append(l.content.roots, path)
		return
	}
	l.definePrimLocked(parent.Parent(), parent)
	p := l.content.prims[parent]
	p.children = append(p.children, path)
}

// Prim returns a snapshot of the prim spec at path.
func (l *Layer) Prim(path Path) (PrimSpec, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	spec, ok := l.content.prims[path]
	if !ok {
		return PrimSpec{}, fmt.Errorf("prim %s: %w", path, ErrNotFound)
	}
	return spec.snapshot(), nil
}

// RootPrims returns the top-level prim paths in authoring order.
func (l *Layer) RootPrims() []Path {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Path(nil), l.content.roots...)
}

// Prims returns snapshots of every prim, depth first in authoring order.
func (l *Layer) Prims() []PrimSpec {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []PrimSpec
	var walk func(paths []Path)
	walk = func(paths []Path) {
		for _, p := range paths {
			spec := l.content.prims[p]
			out = append(out, spec.snapshot())
			walk(spec.children)
		}
	}
	walk(l.content.roots)
	return out
}

// SetDefaultPrim names a root prim as the layer's entry point.
func (l *Layer) SetDefaultPrim(name string) error {
	if !isIdentifier(name) {
		return fmt.Errorf("%w: default prim %q", ErrInvalidPath, name)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.editable {
		return ErrNotEditable
	}
	l.content.defaultPrim = name
	return nil
}

// DefaultPrim returns the default prim name, or "".
func (l *Layer) DefaultPrim() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.content.defaultPrim
}

// CreateAttribute authors an attribute spec with a default value on an
// existing prim. Re-authoring with the same type name replaces the default;
// a different type name, or a value whose type does not match typeName, is
// rejected with ErrTypeConflict.
func (l *Layer) CreateAttribute(prim Path, name, typeName string, variability Variability, value vt.Value) error {
	if !isPropertyName(name) {
		return fmt.Errorf("%w: attribute name %q", ErrInvalidPath, name)
	}
	if !value.IsEmpty() && value.TypeName() != typeName {
		return fmt.Errorf("%s.%s: value of type %s for %s: %w", prim, name, value.TypeName(), typeName, ErrTypeConflict)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.editable {
		return ErrNotEditable
	}
	spec, ok := l.content.prims[prim]
	if !ok {
		return fmt.Errorf("prim %s: %w", prim, ErrNotFound)
	}
	if existing, ok := spec.attrs[name]; ok {
		if existing.TypeName != typeName {
			return fmt.Errorf("%s.%s: authored as %s, not %s: %w", prim, name, existing.TypeName, typeName, ErrTypeConflict)
		}
		existing.Variability = variability
		existing.Default = value.Clone()
		return nil
	}
	spec.attrs[name] = &AttributeSpec{
		Name:        name,
		TypeName:    typeName,
		Variability: variability,
		Default:     value.Clone(),
	}
	spec.order = append(spec.order, name)
	return nil
}

// Attribute returns the attribute spec authored on prim.
func (l *Layer) Attribute(prim Path, name string) (AttributeSpec, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	spec, ok := l.content.prims[prim]
	if !ok {
		return AttributeSpec{}, fmt.Errorf("prim %s: %w", prim, ErrNotFound)
	}
	a, ok := spec.attrs[name]
	if !ok {
		return AttributeSpec{}, fmt.Errorf("attribute %s.%s: %w", prim, name, ErrNotFound)
	}
	out := *a
	out.Default = a.Default.Clone()
	return out, nil
}

// TransferContent replaces this layer's content with a copy of src's.
// The identifier, edit permission and diagnostics of l are kept.
func (l *Layer) TransferContent(src *Layer) error {
	if src == nil {
		return fmt.Errorf("transfer content: %w", ErrNotFound)
	}
	if src == l {
		return nil
	}

	// Snapshot first so the two locks are never held together.
	src.mu.RLock()
	content := src.content.clone()
	src.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.editable {
		return ErrNotEditable
	}
	l.content = content
	return nil
}

// Clear removes all content.
func (l *Layer) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.editable {
		return ErrNotEditable
	}
	l.content = layerContent{prims: make(map[Path]*primSpec)}
	return nil
}

// PostDiagnostic records a non-fatal problem against the layer.
func (l *Layer) PostDiagnostic(d Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.diagnostics = append(l.diagnostics, d)
}

// ResetDiagnostics replaces the recorded diagnostics with ds.
func (l *Layer) ResetDiagnostics(ds ...Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.diagnostics = append([]Diagnostic(nil), ds...)
}

// Diagnostics returns the recorded diagnostics in posting order.
func (l *Layer) Diagnostics() []Diagnostic {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Diagnostic(nil), l.diagnostics...)
}
