package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agentic-research/proctest/api"
	"github.com/agentic-research/proctest/internal/proctest"
	"github.com/agentic-research/proctest/internal/vt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonManifest = `
{
  "version": "1",
  "assets": [
    {"name": "unit", "path": "unit.proctest"},
    {"name": "big", "path": "big.proctest",
     "context": {"Usd_Proctest_SideLength": 4}},
    {"name": "stacked", "path": "stacked.proctest",
     "context": [{"Usd_Proctest_SideLength": 0.5}, {"Usd_Proctest_SideLength": 8}]},
    {"name": "explicit", "path": "explicit.proctest",
     "arguments": {"Usd_Proctest_SideLength": "3.0"}}
  ]
}
`

const hclManifestSrc = `
version = "1"

asset "unit" {
  path = "unit.proctest"
}

asset "big" {
  path = "big.proctest"
  context {
    Usd_Proctest_SideLength = 4
  }
}

asset "stacked" {
  path = "stacked.proctest"
  context {
    Usd_Proctest_SideLength = 0.5
  }
  context {
    Usd_Proctest_SideLength = 8
  }
}

asset "explicit" {
  path      = "explicit.proctest"
  arguments = { Usd_Proctest_SideLength = "3.0" }
}
`

func TestMain(m *testing.M) {
	proctest.Register()
	m.Run()
}

func assertSample(t *testing.T, m *api.Manifest) {
	t.Helper()
	require.Len(t, m.Assets, 4)
	assert.Equal(t, "1", m.Version)

	names := make([]string, len(m.Assets))
	for i, a := range m.Assets {
		names[i] = a.Name
	}
	assert.Equal(t, []string{"unit", "big", "stacked", "explicit"}, names)

	assert.Empty(t, m.Assets[0].Context)
	assert.Len(t, m.Assets[1].Context, 1)
	assert.Len(t, m.Assets[2].Context, 2)
	assert.Equal(t, map[string]string{"Usd_Proctest_SideLength": "3.0"}, m.Assets[3].Arguments)

	key := proctest.Tokens.SideLength
	v, ok := ContextFor(m.Assets[1]).ComposeValue(key)
	require.True(t, ok)
	assert.Equal(t, vt.New(float32(4)), v, "numbers are coerced to the declared field type")

	v, ok = ContextFor(m.Assets[2]).ComposeValue(key)
	require.True(t, ok)
	assert.Equal(t, vt.New(float32(0.5)), v, "strongest opinion wins")

	_, ok = ContextFor(m.Assets[0]).ComposeValue(key)
	assert.False(t, ok)
}

func TestParseJSON(t *testing.T) {
	m, err := ParseJSON([]byte(jsonManifest))
	require.NoError(t, err)
	assertSample(t, m)
}

func TestParseHCL(t *testing.T) {
	m, err := ParseHCL("assets.hcl", []byte(hclManifestSrc))
	require.NoError(t, err)
	assertSample(t, m)
}

func TestParseJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"assets": [`},
		{"asset not object", `{"assets": [1]}`},
		{"bad context", `{"assets": [{"name": "a", "path": "a.proctest", "context": 3}]}`},
		{"bad context layer", `{"assets": [{"name": "a", "path": "a.proctest", "context": [1]}]}`},
		{"missing path", `{"assets": [{"name": "a"}]}`},
		{"duplicate", `{"assets": [{"name": "a", "path": "x"}, {"name": "a", "path": "y"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParseJSON_DefaultsVersion(t *testing.T) {
	m, err := ParseJSON([]byte(`{"assets": []}`))
	require.NoError(t, err)
	assert.Equal(t, api.CurrentVersion, m.Version)
	assert.Empty(t, m.Assets)
}

func TestParseHCL_Errors(t *testing.T) {
	_, err := ParseHCL("bad.hcl", []byte(`asset "a" {`))
	assert.Error(t, err)

	_, err = ParseHCL("nopath.hcl", []byte(`asset "a" {}`))
	assert.Error(t, err, "path is required")

	_, err = ParseHCL("list.hcl", []byte(`
asset "a" {
  path = "a.proctest"
  context {
    Usd_Proctest_SideLength = [1, 2]
  }
}
`))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseHCL_ForeignTypesStayForeign(t *testing.T) {
	m, err := ParseHCL("s.hcl", []byte(`
asset "s" {
  path = "s.proctest"
  context {
    Usd_Proctest_SideLength = "big"
  }
}
`))
	require.NoError(t, err)
	v, ok := ContextFor(m.Assets[0]).ComposeValue(proctest.Tokens.SideLength)
	require.True(t, ok)
	assert.Equal(t, vt.TypeString, v.TypeName())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "assets.json")
	hclPath := filepath.Join(dir, "assets.hcl")
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonManifest), 0o644))
	require.NoError(t, os.WriteFile(hclPath, []byte(hclManifestSrc), 0o644))

	for _, p := range []string{jsonPath, hclPath} {
		m, err := Load(p)
		require.NoError(t, err, p)
		assertSample(t, m)
	}

	_, err := Load(filepath.Join(dir, "assets.yaml"))
	assert.Error(t, err)

	yamlPath := filepath.Join(dir, "real.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("assets: []"), 0o644))
	_, err = Load(yamlPath)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestValidate(t *testing.T) {
	err := Validate(&api.Manifest{Assets: []api.Asset{
		{Name: "", Path: "a.proctest"},
		{Name: "a/b", Path: "b.proctest"},
		{Name: "ok", Path: ""},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "has no name")
	assert.Contains(t, err.Error(), "path separator")
	assert.Contains(t, err.Error(), `"ok" has no path`)
}
