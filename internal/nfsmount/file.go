package nfsmount

import (
	"bytes"

	billy "github.com/go-git/go-billy/v5"
)

// bytesFile is a billy.File over an asset rendered at open time. Reads,
// seeks and ReadAt come from bytes.Reader; the snapshot never changes, so a
// re-render mid-read cannot tear the file.
type bytesFile struct {
	*bytes.Reader
	name string
}

func newBytesFile(name string, data []byte) *bytesFile {
	return &bytesFile{Reader: bytes.NewReader(data), name: name}
}

func (f *bytesFile) Name() string              { return f.name }
func (f *bytesFile) Write([]byte) (int, error) { return 0, errReadOnly }
func (f *bytesFile) Truncate(int64) error      { return errReadOnly }
func (f *bytesFile) Lock() error               { return nil }
func (f *bytesFile) Unlock() error             { return nil }
func (f *bytesFile) Close() error              { return nil }

var _ billy.File = (*bytesFile)(nil)
