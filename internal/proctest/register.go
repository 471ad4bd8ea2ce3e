package proctest

import (
	"sync"

	"github.com/agentic-research/proctest/internal/compose"
	"github.com/agentic-research/proctest/internal/fileformat"
	"github.com/agentic-research/proctest/internal/vt"
)

var registerOnce sync.Once

// Register adds the format to the process-wide registry and declares its
// composition field. Safe to call more than once; only the first call
// registers.
func Register() {
	registerOnce.Do(func() {
		fileformat.Register(Identity(), func() fileformat.FileFormat { return New() })
		if err := compose.DefineField(compose.FieldDefinition{
			Name:     Tokens.SideLength,
			TypeName: vt.TypeFloat,
			Fallback: vt.New(DefaultSideLength),
		}); err != nil {
			panic(err)
		}
	})
}
