// Package manifest loads asset manifests from JSON or HCL files.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentic-research/proctest/api"
	"github.com/agentic-research/proctest/internal/compose"
)

var (
	ErrUnsupported = errors.New("unsupported manifest format")
	ErrInvalid     = errors.New("invalid manifest")
)

// Load reads a manifest, choosing the decoder by file extension.
func Load(path string) (*api.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m *api.Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		m, err = ParseJSON(data)
	case ".hcl":
		m, err = ParseHCL(path, data)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Validate checks that every asset has a unique name and a path.
func Validate(m *api.Manifest) error {
	var errs []error
	seen := make(map[string]bool, len(m.Assets))
	for i, a := range m.Assets {
		switch {
		case a.Name == "":
			errs = append(errs, fmt.Errorf("%w: asset %d has no name", ErrInvalid, i))
		case seen[a.Name]:
			errs = append(errs, fmt.Errorf("%w: duplicate asset %q", ErrInvalid, a.Name))
		}
		seen[a.Name] = true
		if a.Path == "" {
			errs = append(errs, fmt.Errorf("%w: asset %q has no path", ErrInvalid, a.Name))
		}
		if strings.ContainsAny(a.Name, `/\`) {
			errs = append(errs, fmt.Errorf("%w: asset name %q contains a path separator", ErrInvalid, a.Name))
		}
	}
	return errors.Join(errs...)
}

// ContextFor builds the composition context of an asset. Values are coerced
// to the declared types of registered fields.
func ContextFor(a api.Asset) *compose.StackContext {
	stack := make([]compose.Opinions, 0, len(a.Context))
	for _, layer := range a.Context {
		stack = append(stack, compose.OpinionsFrom(layer))
	}
	return compose.NewStackContext(stack...)
}
