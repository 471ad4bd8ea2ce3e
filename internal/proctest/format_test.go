package proctest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/agentic-research/proctest/internal/compose"
	"github.com/agentic-research/proctest/internal/fileformat"
	"github.com/agentic-research/proctest/internal/geom"
	"github.com/agentic-research/proctest/internal/sdf"
	"github.com/agentic-research/proctest/internal/vt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readCube materializes identifier into a fresh target layer.
func readCube(t *testing.T, identifier string) *sdf.Layer {
	t.Helper()
	layer := sdf.New(identifier)
	require.NoError(t, New().Read(layer, identifier, false))
	return layer
}

func rootPoints(t *testing.T, layer *sdf.Layer) []vt.Vec3f {
	t.Helper()
	assert.Equal(t, "Root", layer.DefaultPrim())
	m, err := geom.GetMesh(layer, RootPath)
	require.NoError(t, err)
	points, err := m.Points()
	require.NoError(t, err)
	return points
}

// ---------------------------------------------------------------------------
// Identity and routing
// ---------------------------------------------------------------------------

func TestIdentity(t *testing.T) {
	id := New().Identity()
	assert.Equal(t, "usdProctestFileFormat", id.ID)
	assert.Equal(t, "1.0", id.Version)
	assert.Equal(t, "usd", id.Target)
	assert.Equal(t, "proctest", id.Extension)
	assert.Equal(t, "Usd_Proctest_SideLength", id.ParameterKey)
}

func TestCanRead(t *testing.T) {
	f := New()
	for _, p := range []string{"cube.proctest", "/abs/dir/x.proctest", "", "cube.proctest:SDF_FORMAT_ARGS:Usd_Proctest_SideLength=2.0"} {
		assert.True(t, f.CanRead(p), "path %q", p)
	}
}

func TestRegister_RoutesExtension(t *testing.T) {
	Register()
	Register() // idempotent

	f, ok := fileformat.FindByExtension("scene/cube.proctest")
	require.True(t, ok)
	_, isDynamic := f.(fileformat.DynamicFileFormat)
	assert.True(t, isDynamic)

	byID, ok := fileformat.FindByID(Tokens.ID)
	require.True(t, ok)
	assert.Same(t, f, byID)

	def, ok := compose.LookupField(Tokens.SideLength)
	require.True(t, ok)
	assert.Equal(t, vt.TypeFloat, def.TypeName)
}

// ---------------------------------------------------------------------------
// Read
// ---------------------------------------------------------------------------

func TestRead_ExplicitArgument(t *testing.T) {
	id := sdf.CreateIdentifier("cube.proctest", sdf.FileFormatArguments{Tokens.SideLength: "2.0"})
	layer := readCube(t, id)

	assertCorners(t, rootPoints(t, layer), 1.0)
	assert.Empty(t, layer.Diagnostics())
	assert.Equal(t, id, layer.Identifier(), "identifier is untouched by transfer")
}

func TestRead_DefaultSideLength(t *testing.T) {
	layer := readCube(t, "cube.proctest")
	assertCorners(t, rootPoints(t, layer), 0.5)
}

func TestRead_InvalidArgumentFallsBack(t *testing.T) {
	id := sdf.CreateIdentifier("cube.proctest", sdf.FileFormatArguments{Tokens.SideLength: "not-a-number"})
	layer := readCube(t, id)
	assertCorners(t, rootPoints(t, layer), 0.5)
}

func TestRead_ArgumentsFromResolvedPath(t *testing.T) {
	layer := sdf.New("cube.proctest")
	resolved := sdf.CreateIdentifier("/abs/cube.proctest", sdf.FileFormatArguments{Tokens.SideLength: "6"})
	require.NoError(t, New().Read(layer, resolved, false))
	assertCorners(t, rootPoints(t, layer), 3)
}

func TestRead_ReplacesExistingContent(t *testing.T) {
	layer := sdf.New("cube.proctest")
	require.NoError(t, layer.DefinePrim("/Stale", ""))
	require.NoError(t, New().Read(layer, "cube.proctest", false))
	assert.Equal(t, []sdf.Path{RootPath}, layer.RootPrims())
}

func TestRead_NilLayerIsFatal(t *testing.T) {
	err := New().Read(nil, "cube.proctest", false)
	assert.ErrorIs(t, err, fileformat.ErrNilLayer)
}

func TestRead_TargetNotEditable(t *testing.T) {
	layer := sdf.New("cube.proctest")
	layer.SetPermissionToEdit(false)

	err := New().Read(layer, "cube.proctest", false)
	assert.ErrorIs(t, err, sdf.ErrNotEditable)
	assert.True(t, layer.IsEmpty(), "nothing is written on failure")
}

func TestRead_ClearsStaleDiagnostics(t *testing.T) {
	layer := sdf.New("cube.proctest")
	stale := sdf.Diagnostic{Code: "cannot-create-attribute", Message: "points"}
	layer.PostDiagnostic(stale)

	require.NoError(t, New().Read(layer, "cube.proctest", false))
	assert.Empty(t, layer.Diagnostics(), "a clean read leaves no diagnostics behind")

	// A failed transfer keeps the content and the diagnostics that describe it.
	layer.PostDiagnostic(stale)
	layer.SetPermissionToEdit(false)
	require.Error(t, New().Read(layer, "cube.proctest", false))
	assert.Equal(t, []sdf.Diagnostic{stale}, layer.Diagnostics())
	assert.Equal(t, []sdf.Path{RootPath}, layer.RootPrims())
}

func TestDiagnosticsFor(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &AttributeError{Attribute: "points", Err: sdf.ErrTypeConflict})
	diags := diagnosticsFor(err)
	require.Len(t, diags, 1)
	assert.Equal(t, sdf.Diagnostic{Code: "cannot-create-attribute", Message: "points"}, diags[0])

	l := sdf.New("target.usda")
	require.NoError(t, l.DefinePrim(RootPath, geom.TypeMesh))
	require.NoError(t, l.CreateAttribute(RootPath, geom.AttrFaceVertexCounts, vt.TypeToken, sdf.VariabilityVarying, vt.Value{}))
	require.NoError(t, l.CreateAttribute(RootPath, geom.AttrPoints, vt.TypeToken, sdf.VariabilityVarying, vt.Value{}))

	diags = diagnosticsFor(Build(l, Params{SideLength: 1}))
	assert.Equal(t, []sdf.Diagnostic{
		{Code: "cannot-create-attribute", Message: "faceVertexCounts"},
		{Code: "cannot-create-attribute", Message: "points"},
	}, diags)
}

func TestWriteToString(t *testing.T) {
	id := sdf.CreateIdentifier("cube.proctest", sdf.FileFormatArguments{Tokens.SideLength: "2.0"})
	layer := readCube(t, id)

	text, err := New().WriteToString(layer, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "#usda 1.0\n"))
	assert.Contains(t, text, `defaultPrim = "Root"`)
	assert.Contains(t, text, `def Mesh "Root"`)
	assert.Contains(t, text, "int[] faceVertexCounts = [4, 4, 4, 4, 4, 4]")
	assert.Contains(t, text, "point3f[] points = [(1.0, 1.0, 1.0), (1.0, 1.0, -1.0),")
	assert.Contains(t, text, `uniform token subdivisionScheme = "none"`)

	_, err = New().WriteToString(nil, "")
	assert.ErrorIs(t, err, fileformat.ErrNilLayer)
}

func TestWriteToStream(t *testing.T) {
	layer := readCube(t, "cube.proctest")
	f := New()

	text, err := f.WriteToString(layer, "doc")
	require.NoError(t, err)
	var b strings.Builder
	require.NoError(t, f.WriteToStream(layer, &b, "doc"))
	assert.Equal(t, text, b.String())

	assert.ErrorIs(t, f.WriteToStream(nil, &b, ""), fileformat.ErrNilLayer)
}

// ---------------------------------------------------------------------------
// Argument derivation and invalidation
// ---------------------------------------------------------------------------

func TestDeriveArguments_FromContext(t *testing.T) {
	ctx := compose.NewStackContext(compose.Opinions{Tokens.SideLength: vt.New(float32(4))})
	args, dep := New().DeriveArguments("cube.proctest", ctx)

	assert.Equal(t, sdf.FileFormatArguments{Tokens.SideLength: "4.0"}, args)
	assert.True(t, dep.IsEmpty())
}

func TestDeriveArguments_Defaults(t *testing.T) {
	for name, ctx := range map[string]compose.Context{
		"nil":        nil,
		"absent":     compose.NewStackContext(),
		"wrong type": compose.NewStackContext(compose.Opinions{Tokens.SideLength: vt.New("big")}),
	} {
		args, _ := New().DeriveArguments("cube.proctest", ctx)
		assert.Equal(t, sdf.FileFormatArguments{Tokens.SideLength: "1.0"}, args, name)
	}
}

func TestDeriveThenRead(t *testing.T) {
	f := New()
	ctx := compose.NewStackContext(compose.Opinions{Tokens.SideLength: vt.New(float32(3))})
	args, _ := f.DeriveArguments("cube.proctest", ctx)

	layer := readCube(t, sdf.CreateIdentifier("cube.proctest", args))
	assertCorners(t, rootPoints(t, layer), 1.5)
}

func TestCanFieldChangeAffectArguments_AlwaysTrue(t *testing.T) {
	f := New()
	values := []vt.Value{{}, vt.New(float32(1)), vt.New(float32(2)), vt.New("x")}
	for _, field := range []string{Tokens.SideLength, "unrelated", ""} {
		for _, oldV := range values {
			for _, newV := range values {
				assert.True(t, f.CanFieldChangeAffectArguments(field, oldV, newV, vt.Value{}),
					"field=%q old=%v new=%v", field, oldV, newV)
			}
		}
	}
}

func TestFileFormat_ConcurrentReads(t *testing.T) {
	f := New()
	done := make(chan *sdf.Layer, 16)
	for i := 0; i < 16; i++ {
		go func(i int) {
			id := sdf.CreateIdentifier("cube.proctest", sdf.FileFormatArguments{Tokens.SideLength: vt.FormatFloat(float32(i))})
			l := sdf.New(id)
			_ = f.Read(l, id, false)
			done <- l
		}(i)
	}
	for i := 0; i < 16; i++ {
		l := <-done
		_, args := sdf.SplitIdentifier(l.Identifier())
		size, err := vt.ParseFloat(args[Tokens.SideLength])
		require.NoError(t, err)
		assertCorners(t, rootPoints(t, l), size/2)
	}
}
