package fileformat

import (
	"testing"

	"github.com/agentic-research/proctest/internal/sdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFormat is a minimal static FileFormat.
type stubFormat struct {
	id Identity
}

func (s *stubFormat) Identity() Identity  { return s.id }
func (s *stubFormat) CanRead(string) bool { return true }
func (s *stubFormat) Read(l *sdf.Layer, _ string, _ bool) error {
	if l == nil {
		return ErrNilLayer
	}
	return l.DefinePrim("/Stub", "")
}

func (s *stubFormat) WriteToString(l *sdf.Layer, comment string) (string, error) {
	return l.ExportToString(comment)
}

func registerStub(id, ext string) *int {
	calls := new(int)
	ident := Identity{ID: id, Version: "1.0", Target: "usd", Extension: ext}
	Register(ident, func() FileFormat {
		*calls++
		return &stubFormat{id: ident}
	})
	return calls
}

func TestRegistry(t *testing.T) {
	Reset()
	defer Reset()

	t.Run("Register and FindByID", func(t *testing.T) {
		registerStub("stub", "stub")

		f, ok := FindByID("stub")
		require.True(t, ok)
		assert.Equal(t, "stub", f.Identity().ID)
	})

	t.Run("FindByExtension forms", func(t *testing.T) {
		for _, q := range []string{"stub", ".stub", "STUB", "/a/b/c.stub", "c.stub:SDF_FORMAT_ARGS:x=1"} {
			f, ok := FindByExtension(q)
			require.True(t, ok, "query %q", q)
			assert.Equal(t, "stub", f.Identity().ID)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, ok := FindByID("nope")
		assert.False(t, ok)
		_, ok = FindByExtension("file.nope")
		assert.False(t, ok)
	})
}

func TestRegistry_FactoryCalledOnce(t *testing.T) {
	Reset()
	defer Reset()

	calls := registerStub("stub", "stub")
	a, _ := FindByID("stub")
	b, _ := FindByExtension("x.stub")
	assert.Same(t, a, b)
	assert.Equal(t, 1, *calls)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	Reset()
	defer Reset()

	registerStub("stub", "stub")
	assert.Panics(t, func() { registerStub("stub", "other") })
	assert.Panics(t, func() { registerStub("other", ".STUB") })
	assert.Panics(t, func() { Register(Identity{ID: "x"}, nil) })
}

func TestRegistry_IdentitiesSorted(t *testing.T) {
	Reset()
	defer Reset()

	registerStub("b", "bb")
	registerStub("a", "aa")

	ids := Identities()
	require.Len(t, ids, 2)
	assert.Equal(t, "a", ids[0].ID)
	assert.Equal(t, "aa", ids[0].Extension)
	assert.Equal(t, "b", ids[1].ID)
}
