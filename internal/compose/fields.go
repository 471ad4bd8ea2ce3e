package compose

import (
	"fmt"
	"math"
	"sync"

	"github.com/agentic-research/proctest/internal/vt"
)

// FieldDefinition declares the value type of a composition field, the way a
// file format plugin declares the metadata fields it reads.
type FieldDefinition struct {
	Name     string
	TypeName string
	Fallback vt.Value
}

var (
	fieldsMu sync.RWMutex
	fields   = make(map[string]FieldDefinition)
)

// DefineField registers def. Redefining a field with the same type is a
// no-op; a conflicting type is an error.
func DefineField(def FieldDefinition) error {
	fieldsMu.Lock()
	defer fieldsMu.Unlock()
	if existing, ok := fields[def.Name]; ok {
		if existing.TypeName != def.TypeName {
			return fmt.Errorf("field %q already defined as %s", def.Name, existing.TypeName)
		}
		return nil
	}
	fields[def.Name] = def
	return nil
}

// LookupField returns the definition of name.
func LookupField(name string) (FieldDefinition, bool) {
	fieldsMu.RLock()
	defer fieldsMu.RUnlock()
	def, ok := fields[name]
	return def, ok
}

// ResetFields clears all definitions (for testing).
func ResetFields() {
	fieldsMu.Lock()
	defer fieldsMu.Unlock()
	fields = make(map[string]FieldDefinition)
}

// Coerce converts a decoded manifest value (JSON or HCL) into a vt.Value.
// Numbers are converted to the declared type of field when one exists;
// anything that does not fit keeps its natural type so that consumers see
// the mismatch.
func Coerce(field string, raw any) vt.Value {
	def, defined := LookupField(field)
	if defined {
		if f, ok := asFloat64(raw); ok {
			switch def.TypeName {
			case vt.TypeFloat:
				return vt.New(float32(f))
			case vt.TypeDouble:
				return vt.New(f)
			case vt.TypeInt:
				if f == math.Trunc(f) {
					return vt.New(int(f))
				}
			}
		}
	}
	return natural(raw)
}

func natural(raw any) vt.Value {
	switch v := raw.(type) {
	case nil:
		return vt.Value{}
	case int64:
		return vt.New(int(v))
	default:
		return vt.New(v)
	}
}

func asFloat64(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// OpinionsFrom coerces a decoded map into a layer of opinions.
func OpinionsFrom(raw map[string]any) Opinions {
	out := make(Opinions, len(raw))
	for k, v := range raw {
		out[k] = Coerce(k, v)
	}
	return out
}
