package compose

import (
	"testing"

	"github.com/agentic-research/proctest/internal/vt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackContext_StrongestWins(t *testing.T) {
	ctx := NewStackContext(
		Opinions{"size": vt.New(float32(4))},
		Opinions{"size": vt.New(float32(2)), "other": vt.New("x")},
	)

	v, ok := ctx.ComposeValue("size")
	require.True(t, ok)
	assert.Equal(t, vt.New(float32(4)), v)

	v, ok = ctx.ComposeValue("other")
	require.True(t, ok)
	assert.Equal(t, vt.New("x"), v)

	_, ok = ctx.ComposeValue("missing")
	assert.False(t, ok)
}

func TestStackContext_EmptyOpinionFallsThrough(t *testing.T) {
	ctx := NewStackContext(
		Opinions{"size": vt.Value{}},
		Opinions{"size": vt.New(float32(2))},
	)
	v, ok := ctx.ComposeValue("size")
	require.True(t, ok)
	assert.Equal(t, vt.New(float32(2)), v)
}

func TestStackContext_Empty(t *testing.T) {
	_, ok := NewStackContext().ComposeValue("size")
	assert.False(t, ok)
}

func TestRecorder_TracksFields(t *testing.T) {
	r := NewRecorder(NewStackContext(Opinions{"a": vt.New(1)}))

	_, ok := r.ComposeValue("b")
	assert.False(t, ok)
	v, ok := r.ComposeValue("a")
	require.True(t, ok)
	assert.Equal(t, vt.New(1), v)
	_, _ = r.ComposeValue("a")

	assert.Equal(t, []string{"a", "b"}, r.Fields())
}

func TestRecorder_NilInner(t *testing.T) {
	r := NewRecorder(nil)
	_, ok := r.ComposeValue("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, r.Fields())
}

// ---------------------------------------------------------------------------
// Field definitions and coercion
// ---------------------------------------------------------------------------

func TestCoerce_DeclaredFloat(t *testing.T) {
	ResetFields()
	defer ResetFields()
	require.NoError(t, DefineField(FieldDefinition{Name: "len", TypeName: vt.TypeFloat, Fallback: vt.New(float32(1))}))

	assert.Equal(t, vt.New(float32(4)), Coerce("len", 4.0))
	assert.Equal(t, vt.New(float32(3)), Coerce("len", int64(3)))
	// Non-numeric input keeps its own type.
	assert.Equal(t, vt.New("big"), Coerce("len", "big"))
}

func TestCoerce_DeclaredIntAndDouble(t *testing.T) {
	ResetFields()
	defer ResetFields()
	require.NoError(t, DefineField(FieldDefinition{Name: "n", TypeName: vt.TypeInt}))
	require.NoError(t, DefineField(FieldDefinition{Name: "d", TypeName: vt.TypeDouble}))

	assert.Equal(t, vt.New(7), Coerce("n", 7.0))
	assert.Equal(t, vt.New(7.5), Coerce("n", 7.5))
	assert.Equal(t, vt.New(2.0), Coerce("d", int64(2)))
}

func TestCoerce_Undeclared(t *testing.T) {
	ResetFields()
	defer ResetFields()

	assert.Equal(t, vt.New(2.5), Coerce("x", 2.5))
	assert.Equal(t, vt.New(3), Coerce("x", int64(3)))
	assert.Equal(t, vt.New(true), Coerce("x", true))
	assert.True(t, Coerce("x", nil).IsEmpty())
}

func TestDefineField_Conflict(t *testing.T) {
	ResetFields()
	defer ResetFields()

	require.NoError(t, DefineField(FieldDefinition{Name: "f", TypeName: vt.TypeFloat}))
	require.NoError(t, DefineField(FieldDefinition{Name: "f", TypeName: vt.TypeFloat}))
	assert.Error(t, DefineField(FieldDefinition{Name: "f", TypeName: vt.TypeString}))

	def, ok := LookupField("f")
	require.True(t, ok)
	assert.Equal(t, vt.TypeFloat, def.TypeName)
}

func TestOpinionsFrom(t *testing.T) {
	ResetFields()
	defer ResetFields()
	require.NoError(t, DefineField(FieldDefinition{Name: "len", TypeName: vt.TypeFloat}))

	ops := OpinionsFrom(map[string]any{"len": 2.0, "name": "cube"})
	assert.Equal(t, Opinions{"len": vt.New(float32(2)), "name": vt.New("cube")}, ops)
}
