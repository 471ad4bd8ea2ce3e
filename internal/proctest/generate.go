package proctest

import (
	"errors"
	"fmt"

	"github.com/agentic-research/proctest/internal/geom"
	"github.com/agentic-research/proctest/internal/sdf"
	"github.com/agentic-research/proctest/internal/vt"
)

// ErrCannotCreateAttribute is matched by every *AttributeError.
var ErrCannotCreateAttribute = errors.New("cannot-create-attribute")

// AttributeError names a mesh attribute that could not be authored.
type AttributeError struct {
	Attribute string
	Err       error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCannotCreateAttribute, e.Attribute, e.Err)
}

func (e *AttributeError) Is(target error) bool { return target == ErrCannotCreateAttribute }

func (e *AttributeError) Unwrap() error { return e.Err }

// RootPath is where the generated mesh lives.
const RootPath sdf.Path = "/Root"

// Params are the generation parameters of one read.
type Params struct {
	SideLength float32
}

// Cube topology: six quads over eight corners.
var (
	cubeFaceVertexCounts  = []int{4, 4, 4, 4, 4, 4}
	cubeFaceVertexIndices = []int{
		0, 4, 6, 2,
		3, 2, 6, 7,
		7, 6, 4, 5,
		5, 1, 3, 7,
		1, 0, 2, 3,
		5, 4, 0, 1,
	}
)

// CubeFaceVertexCounts returns a copy of the constant face sizes.
func CubeFaceVertexCounts() []int {
	return append([]int(nil), cubeFaceVertexCounts...)
}

// CubeFaceVertexIndices returns a copy of the constant connectivity.
func CubeFaceVertexIndices() []int {
	return append([]int(nil), cubeFaceVertexIndices...)
}

// CubePoints returns the corners of an origin-centered cube with edge size.
// Index bit 2 selects -x, bit 1 -y, bit 0 -z.
func CubePoints(size float32) []vt.Vec3f {
	h := size / 2
	return []vt.Vec3f{
		{h, h, h},
		{h, h, -h},
		{h, -h, h},
		{h, -h, -h},
		{-h, h, h},
		{-h, h, -h},
		{-h, -h, h},
		{-h, -h, -h},
	}
}

// Build authors the cube mesh into layer. Attribute failures do not stop
// generation; they are returned joined, each as an *AttributeError.
// Failing to define the prim itself is returned alone since nothing else
// can be authored.
func Build(layer *sdf.Layer, params Params) error {
	mesh, err := geom.DefineMesh(layer, RootPath)
	if err != nil {
		return err
	}

	var errs []error
	if err := layer.SetDefaultPrim(RootPath.Name()); err != nil {
		errs = append(errs, fmt.Errorf("set default prim: %w", err))
	}

	steps := []struct {
		attr  string
		write func() error
	}{
		{geom.AttrFaceVertexCounts, func() error { return mesh.CreateFaceVertexCountsAttr(CubeFaceVertexCounts()) }},
		{geom.AttrFaceVertexIndices, func() error { return mesh.CreateFaceVertexIndicesAttr(CubeFaceVertexIndices()) }},
		{geom.AttrPoints, func() error { return mesh.CreatePointsAttr(CubePoints(params.SideLength)) }},
		{geom.AttrSubdivisionScheme, func() error { return mesh.CreateSubdivisionSchemeAttr(geom.SubdivisionNone) }},
	}
	for _, s := range steps {
		if err := s.write(); err != nil {
			errs = append(errs, &AttributeError{Attribute: s.attr, Err: err})
		}
	}
	return errors.Join(errs...)
}
