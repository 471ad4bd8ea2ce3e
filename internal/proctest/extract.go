package proctest

import (
	"errors"
	"fmt"
	"math"

	"github.com/agentic-research/proctest/internal/compose"
	"github.com/agentic-research/proctest/internal/sdf"
	"github.com/agentic-research/proctest/internal/vt"
)

var (
	// ErrTypeMismatch means a composed value exists but is not a float.
	ErrTypeMismatch = errors.New("composed value has wrong type")
	// ErrConversion means an argument string is not a number.
	ErrConversion = errors.New("cannot convert argument")
)

// FromContext composes key from ctx. An absent or empty value yields def
// with no error; a value of the wrong type yields def and ErrTypeMismatch.
func FromContext(ctx compose.Context, key string, def float32) (float32, error) {
	if ctx == nil {
		return def, nil
	}
	v, ok := ctx.ComposeValue(key)
	if !ok || v.IsEmpty() {
		return def, nil
	}
	f, ok := vt.Get[float32](v)
	if !ok {
		return def, fmt.Errorf("expected %q to hold a %s, got %s %s: %w",
			key, vt.TypeFloat, v.TypeName(), v, ErrTypeMismatch)
	}
	return f, nil
}

// FromArguments reads key from args. A missing key yields def with no
// error; an unparsable or non-finite value yields def and ErrConversion.
func FromArguments(args sdf.FileFormatArguments, key string, def float32) (float32, error) {
	s, ok := args[key]
	if !ok {
		return def, nil
	}
	f, err := vt.ParseFloat(s)
	if err != nil || math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return def, fmt.Errorf("%s=%q to finite %s: %w", key, s, vt.TypeFloat, ErrConversion)
	}
	return f, nil
}
