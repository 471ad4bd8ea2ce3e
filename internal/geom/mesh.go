// Package geom provides schema accessors for geometry prims authored in an
// sdf.Layer.
package geom

import (
	"fmt"

	"github.com/agentic-research/proctest/internal/sdf"
	"github.com/agentic-research/proctest/internal/vt"
)

// TypeMesh is the prim type name of a polygonal mesh.
const TypeMesh = "Mesh"

// Mesh attribute names.
const (
	AttrFaceVertexCounts  = "faceVertexCounts"
	AttrFaceVertexIndices = "faceVertexIndices"
	AttrPoints            = "points"
	AttrSubdivisionScheme = "subdivisionScheme"
)

// Subdivision schemes.
const (
	SubdivisionNone         vt.Token = "none"
	SubdivisionCatmullClark vt.Token = "catmullClark"
)

// Mesh is a handle to a Mesh prim in a layer.
type Mesh struct {
	layer *sdf.Layer
	path  sdf.Path
}

// DefineMesh authors a Mesh prim at path.
func DefineMesh(layer *sdf.Layer, path sdf.Path) (Mesh, error) {
	if err := layer.DefinePrim(path, TypeMesh); err != nil {
		return Mesh{}, fmt.Errorf("define mesh %s: %w", path, err)
	}
	return Mesh{layer: layer, path: path}, nil
}

// GetMesh returns a handle to an existing Mesh prim.
func GetMesh(layer *sdf.Layer, path sdf.Path) (Mesh, error) {
	spec, err := layer.Prim(path)
	if err != nil {
		return Mesh{}, err
	}
	if spec.TypeName != TypeMesh {
		return Mesh{}, fmt.Errorf("prim %s is %q, not a %s", path, spec.TypeName, TypeMesh)
	}
	return Mesh{layer: layer, path: path}, nil
}

// Path returns the prim path.
func (m Mesh) Path() sdf.Path { return m.path }

func (m Mesh) CreateFaceVertexCountsAttr(counts []int) error {
	return m.layer.CreateAttribute(m.path, AttrFaceVertexCounts, vt.TypeIntArray, sdf.VariabilityVarying, vt.New(counts))
}

func (m Mesh) CreateFaceVertexIndicesAttr(indices []int) error {
	return m.layer.CreateAttribute(m.path, AttrFaceVertexIndices, vt.TypeIntArray, sdf.VariabilityVarying, vt.New(indices))
}

func (m Mesh) CreatePointsAttr(points []vt.Vec3f) error {
	return m.layer.CreateAttribute(m.path, AttrPoints, vt.TypePoint3f, sdf.VariabilityVarying, vt.New(points))
}

// CreateSubdivisionSchemeAttr authors the uniform subdivision scheme token.
func (m Mesh) CreateSubdivisionSchemeAttr(scheme vt.Token) error {
	return m.layer.CreateAttribute(m.path, AttrSubdivisionScheme, vt.TypeToken, sdf.VariabilityUniform, vt.New(scheme))
}

func (m Mesh) FaceVertexCounts() ([]int, error) {
	return get[[]int](m, AttrFaceVertexCounts)
}

func (m Mesh) FaceVertexIndices() ([]int, error) {
	return get[[]int](m, AttrFaceVertexIndices)
}

func (m Mesh) Points() ([]vt.Vec3f, error) {
	return get[[]vt.Vec3f](m, AttrPoints)
}

func (m Mesh) SubdivisionScheme() (vt.Token, error) {
	return get[vt.Token](m, AttrSubdivisionScheme)
}

func get[T any](m Mesh, name string) (T, error) {
	var zero T
	a, err := m.layer.Attribute(m.path, name)
	if err != nil {
		return zero, err
	}
	v, ok := vt.Get[T](a.Default)
	if !ok {
		return zero, fmt.Errorf("%s.%s holds %s", m.path, name, a.Default.TypeName())
	}
	return v, nil
}
