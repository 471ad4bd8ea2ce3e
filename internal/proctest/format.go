package proctest

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/agentic-research/proctest/internal/compose"
	"github.com/agentic-research/proctest/internal/fileformat"
	"github.com/agentic-research/proctest/internal/sdf"
	"github.com/agentic-research/proctest/internal/vt"
)

// FileFormat implements fileformat.DynamicFileFormat. It holds no mutable
// state and is safe for concurrent use.
type FileFormat struct {
	identity fileformat.Identity
}

var (
	_ fileformat.DynamicFileFormat = (*FileFormat)(nil)
	_ fileformat.StreamWriter      = (*FileFormat)(nil)
)

// New returns the format.
func New() *FileFormat {
	return &FileFormat{identity: Identity()}
}

// Identity implements fileformat.FileFormat.
func (f *FileFormat) Identity() fileformat.Identity {
	return f.identity
}

// CanRead implements fileformat.FileFormat. There is no backing file to
// sniff, so every path routed here is accepted.
func (f *FileFormat) CanRead(string) bool {
	return true
}

// readState tracks one Read invocation.
type readState int

const (
	stateIdle readState = iota
	stateValidating
	stateGenerating
	stateTransferring
	stateDone
	stateFailed
)

func (s readState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateValidating:
		return "validating"
	case stateGenerating:
		return "generating"
	case stateTransferring:
		return "transferring"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Read implements fileformat.FileFormat. The side length comes from the
// arguments embedded in the layer identifier, or in resolvedPath when the
// identifier carries none. The mesh is generated into a private anonymous
// layer whose content then replaces the content of layer.
func (f *FileFormat) Read(layer *sdf.Layer, resolvedPath string, metadataOnly bool) error {
	state := stateIdle
	fail := func(err error) error {
		log.Printf("proctest: read %s failed while %s: %v", resolvedPath, state, err)
		state = stateFailed
		return err
	}

	state = stateValidating
	if layer == nil {
		return fail(fileformat.ErrNilLayer)
	}

	_, args := sdf.SplitIdentifier(layer.Identifier())
	if len(args) == 0 {
		_, args = sdf.SplitIdentifier(resolvedPath)
	}
	sideLength, err := FromArguments(args, Tokens.SideLength, DefaultSideLength)
	if err != nil {
		log.Printf("proctest: %v; using default %s", err, vt.FormatFloat(DefaultSideLength))
	}

	state = stateGenerating
	tmp := sdf.CreateAnonymous(".usd")
	var diags []sdf.Diagnostic
	if err := Build(tmp, Params{SideLength: sideLength}); err != nil {
		diags = diagnosticsFor(err)
		for _, d := range diags {
			log.Printf("proctest: %s", d)
		}
	}

	state = stateTransferring
	if err := layer.TransferContent(tmp); err != nil {
		return fail(fmt.Errorf("transfer into %s: %w", layer.Identifier(), err))
	}
	// Diagnostics describe the content just transferred; earlier ones are stale.
	layer.ResetDiagnostics(diags...)

	state = stateDone
	return nil
}

// diagnosticsFor flattens a Build error into named diagnostics.
func diagnosticsFor(err error) []sdf.Diagnostic {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	out := make([]sdf.Diagnostic, 0, len(errs))
	for _, e := range errs {
		var attrErr *AttributeError
		if errors.As(e, &attrErr) {
			out = append(out, sdf.Diagnostic{Code: ErrCannotCreateAttribute.Error(), Message: attrErr.Attribute})
			continue
		}
		out = append(out, sdf.Diagnostic{Code: "cannot-read-proctest-file", Message: e.Error()})
	}
	return out
}

// WriteToString implements fileformat.FileFormat using the text syntax.
func (f *FileFormat) WriteToString(layer *sdf.Layer, comment string) (string, error) {
	if layer == nil {
		return "", fileformat.ErrNilLayer
	}
	return layer.ExportToString(comment)
}

// WriteToStream implements fileformat.StreamWriter with the same text as
// WriteToString.
func (f *FileFormat) WriteToStream(layer *sdf.Layer, w io.Writer, comment string) error {
	text, err := f.WriteToString(layer, comment)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

// DeriveArguments implements fileformat.DynamicFileFormat. The side length
// is composed from ctx and encoded as the single argument of the resolved
// identifier. No dependency data is produced.
func (f *FileFormat) DeriveArguments(assetPath string, ctx compose.Context) (sdf.FileFormatArguments, vt.Value) {
	sideLength, err := FromContext(ctx, Tokens.SideLength, DefaultSideLength)
	if err != nil {
		log.Printf("proctest: %s: %v; using default %s", assetPath, err, vt.FormatFloat(DefaultSideLength))
	}
	return sdf.FileFormatArguments{Tokens.SideLength: vt.FormatFloat(sideLength)}, vt.Value{}
}

// CanFieldChangeAffectArguments implements fileformat.DynamicFileFormat.
// Any change of a field the context depends on is treated as affecting the
// arguments.
func (f *FileFormat) CanFieldChangeAffectArguments(field string, oldValue, newValue, dependencyData vt.Value) bool {
	return true
}
