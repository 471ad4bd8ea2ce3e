// Package proctest is a dynamic file format that synthesizes a cube mesh
// whose side length is derived from the composition context.
//
// During composition the host calls DeriveArguments, which reads the side
// length field from the context and encodes it as a file format argument.
// When the host later reads the layer whose identifier carries that
// argument, Read parses it back and generates the mesh.
package proctest

import "github.com/agentic-research/proctest/internal/fileformat"

// Tokens are the identity tokens of the format.
var Tokens = struct {
	ID         string
	Version    string
	Target     string
	Extension  string
	SideLength string
}{
	ID:         "usdProctestFileFormat",
	Version:    "1.0",
	Target:     "usd",
	Extension:  "proctest",
	SideLength: "Usd_Proctest_SideLength",
}

// DefaultSideLength is used whenever no valid side length is available.
const DefaultSideLength float32 = 1.0

// Identity returns the registry identity of the format.
func Identity() fileformat.Identity {
	return fileformat.Identity{
		ID:           Tokens.ID,
		Version:      Tokens.Version,
		Target:       Tokens.Target,
		Extension:    Tokens.Extension,
		ParameterKey: Tokens.SideLength,
	}
}
