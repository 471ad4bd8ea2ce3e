package sdf

import (
	"path/filepath"
	"sort"
	"strings"
)

// FileFormatArguments are the explicit key/value arguments embedded in a
// layer identifier.
type FileFormatArguments map[string]string

const formatArgsDelimiter = ":SDF_FORMAT_ARGS:"

// Argument keys and values are percent-escaped for the separator characters
// only, so plain values such as "4.0" appear unchanged in identifiers.
var (
	argEscaper   = strings.NewReplacer("%", "%25", "&", "%26", "=", "%3D")
	argUnescaper = strings.NewReplacer("%25", "%", "%26", "&", "%3D", "=")
)

// CreateIdentifier joins a layer path and its arguments. Keys are sorted so
// that equal argument sets always produce the same identifier.
func CreateIdentifier(layerPath string, args FileFormatArguments) string {
	if len(args) == 0 {
		return layerPath
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(layerPath)
	b.WriteString(formatArgsDelimiter)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(argEscaper.Replace(k))
		b.WriteByte('=')
		b.WriteString(argEscaper.Replace(args[k]))
	}
	return b.String()
}

// SplitIdentifier separates a layer identifier into its path and arguments.
// The returned map is never nil.
func SplitIdentifier(identifier string) (string, FileFormatArguments) {
	args := FileFormatArguments{}
	i := strings.Index(identifier, formatArgsDelimiter)
	if i < 0 {
		return identifier, args
	}
	layerPath := identifier[:i]
	for _, pair := range strings.Split(identifier[i+len(formatArgsDelimiter):], "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		if k == "" {
			continue
		}
		args[argUnescaper.Replace(k)] = argUnescaper.Replace(v)
	}
	return layerPath, args
}

// Extension returns the lower-cased file extension of an identifier or path,
// without the leading dot and ignoring any embedded arguments.
func Extension(identifier string) string {
	p, _ := SplitIdentifier(identifier)
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
}
