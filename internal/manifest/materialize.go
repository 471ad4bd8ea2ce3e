package manifest

import (
	"fmt"
	"io"

	"github.com/agentic-research/proctest/api"
	"github.com/agentic-research/proctest/internal/fileformat"
	"github.com/agentic-research/proctest/internal/layercache"
	"github.com/agentic-research/proctest/internal/sdf"
)

// Materialize opens the layer for an asset through the cache. Explicit
// arguments take precedence over the asset's context.
func Materialize(c *layercache.Cache, a api.Asset) (*sdf.Layer, error) {
	if len(a.Arguments) > 0 {
		return c.OpenWithArguments(a.Path, sdf.FileFormatArguments(a.Arguments))
	}
	return c.Open(a.Path, ContextFor(a))
}

// Render materializes an asset and writes it through its file format.
func Render(c *layercache.Cache, a api.Asset) (string, error) {
	layer, err := Materialize(c, a)
	if err != nil {
		return "", err
	}
	f, ok := fileformat.FindByExtension(a.Path)
	if !ok {
		return "", fmt.Errorf("%s: %w", a.Path, layercache.ErrNoFormat)
	}
	text, err := f.WriteToString(layer, a.Name)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", a.Name, err)
	}
	return text, nil
}

// RenderTo materializes an asset and streams it through its file format,
// falling back to WriteToString for formats without a stream writer.
func RenderTo(c *layercache.Cache, a api.Asset, w io.Writer) error {
	layer, err := Materialize(c, a)
	if err != nil {
		return err
	}
	f, ok := fileformat.FindByExtension(a.Path)
	if !ok {
		return fmt.Errorf("%s: %w", a.Path, layercache.ErrNoFormat)
	}
	if sw, ok := f.(fileformat.StreamWriter); ok {
		if err := sw.WriteToStream(layer, w, a.Name); err != nil {
			return fmt.Errorf("write %s: %w", a.Name, err)
		}
		return nil
	}
	text, err := f.WriteToString(layer, a.Name)
	if err != nil {
		return fmt.Errorf("write %s: %w", a.Name, err)
	}
	_, err = io.WriteString(w, text)
	return err
}
