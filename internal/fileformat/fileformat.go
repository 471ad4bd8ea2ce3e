// Package fileformat defines the contract between the composition host and
// file format plugins, and the process-wide registry that routes asset
// references to them by extension.
package fileformat

import (
	"errors"
	"io"

	"github.com/agentic-research/proctest/internal/compose"
	"github.com/agentic-research/proctest/internal/sdf"
	"github.com/agentic-research/proctest/internal/vt"
)

// ErrNilLayer is returned by Read when the host passes no target layer.
var ErrNilLayer = errors.New("nil target layer")

// Identity is the registry contract of a format. It never changes after
// registration.
type Identity struct {
	ID        string `json:"id"`
	Version   string `json:"version"`
	Target    string `json:"target"`
	Extension string `json:"extension"` // without the leading dot
	// ParameterKey is the composition field and argument key a dynamic
	// format reads. Empty for static formats.
	ParameterKey string `json:"parameter_key,omitempty"`
}

// FileFormat reads layers for one file extension.
type FileFormat interface {
	Identity() Identity

	// CanRead reports whether the format can service path.
	CanRead(path string) bool

	// Read populates layer for resolvedPath. Non-fatal problems are posted
	// to the layer as diagnostics; a returned error means nothing usable
	// was written.
	Read(layer *sdf.Layer, resolvedPath string, metadataOnly bool) error

	// WriteToString serializes layer.
	WriteToString(layer *sdf.Layer, comment string) (string, error)
}

// DynamicFileFormat is a FileFormat whose content depends on arguments the
// host derives from the composition context.
type DynamicFileFormat interface {
	FileFormat

	// DeriveArguments composes the file format arguments for assetPath.
	// The returned dependency data is handed back to
	// CanFieldChangeAffectArguments.
	DeriveArguments(assetPath string, ctx compose.Context) (sdf.FileFormatArguments, vt.Value)

	// CanFieldChangeAffectArguments reports whether a change of field from
	// oldValue to newValue could change the derived arguments.
	CanFieldChangeAffectArguments(field string, oldValue, newValue, dependencyData vt.Value) bool
}

// StreamWriter is implemented by formats that can serialize a layer
// directly to a writer.
type StreamWriter interface {
	WriteToStream(layer *sdf.Layer, w io.Writer, comment string) error
}
