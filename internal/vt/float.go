package vt

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// FormatFloat renders f with the shortest representation that round-trips
// through ParseFloat, always keeping a decimal point for integral values
// ("4.0", not "4").
func FormatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 32)
	if !strings.ContainsAny(s, ".nN") {
		s += ".0"
	}
	return s
}

// ParseFloat converts an argument string to a float.
func ParseFloat(s string) (float32, error) {
	return cast.ToFloat32E(strings.TrimSpace(s))
}
