package sdf

import (
	"fmt"
	"strings"
)

// Path is an absolute prim path such as "/Root" or "/Root/Child".
// "/" is the pseudo-root and never names a prim spec.
type Path string

// AbsoluteRoot is the pseudo-root path.
const AbsoluteRoot Path = "/"

// Validate checks that p is an absolute prim path made of identifier segments.
func (p Path) Validate() error {
	s := string(p)
	if s == "" || s[0] != '/' || s == "/" || strings.HasSuffix(s, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	for _, seg := range strings.Split(s[1:], "/") {
		if !isIdentifier(seg) {
			return fmt.Errorf("%w: %q", ErrInvalidPath, s)
		}
	}
	return nil
}

// Name returns the last path segment.
func (p Path) Name() string {
	s := string(p)
	return s[strings.LastIndex(s, "/")+1:]
}

// Parent returns the parent path; top-level prims return AbsoluteRoot.
func (p Path) Parent() Path {
	s := string(p)
	i := strings.LastIndex(s, "/")
	if i <= 0 {
		return AbsoluteRoot
	}
	return Path(s[:i])
}

// Child appends a segment.
func (p Path) Child(name string) Path {
	if p == AbsoluteRoot {
		return Path("/" + name)
	}
	return Path(string(p) + "/" + name)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// isPropertyName accepts identifiers joined by ':' namespaces ("primvars:st").
func isPropertyName(s string) bool {
	for _, part := range strings.Split(s, ":") {
		if !isIdentifier(part) {
			return false
		}
	}
	return true
}
