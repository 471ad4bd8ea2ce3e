// Package nfsmount exposes a manifest's procedural assets as a read-only
// filesystem served over NFS. Each asset appears at the root as
// <name>.usda, rendered on demand through the layer cache.
package nfsmount

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"

	"github.com/agentic-research/proctest/api"
	"github.com/agentic-research/proctest/internal/fileformat"
	"github.com/agentic-research/proctest/internal/layercache"
	"github.com/agentic-research/proctest/internal/manifest"
)

var errReadOnly = fmt.Errorf("read-only filesystem")

const (
	assetExt     = ".usda"
	manifestFile = "_manifest.json"
	formatsFile  = "_formats.json"
)

// AssetFS adapts a manifest and a layer cache to billy.Filesystem.
type AssetFS struct {
	cache     *layercache.Cache
	assets    map[string]api.Asset // file name → asset
	names     []string
	virtual   map[string][]byte
	mountTime time.Time
}

// NewAssetFS creates a billy.Filesystem over the assets of m.
func NewAssetFS(m *api.Manifest, cache *layercache.Cache) *AssetFS {
	fs := &AssetFS{
		cache:     cache,
		assets:    make(map[string]api.Asset, len(m.Assets)),
		virtual:   make(map[string][]byte, 2),
		mountTime: time.Now(),
	}
	for _, a := range m.Assets {
		name := a.Name + assetExt
		fs.assets[name] = a
		fs.names = append(fs.names, name)
	}
	sort.Strings(fs.names)

	mj, _ := json.MarshalIndent(m, "", "  ")
	fs.virtual[manifestFile] = append(mj, '\n')
	fj, _ := json.MarshalIndent(fileformat.Identities(), "", "  ")
	fs.virtual[formatsFile] = append(fj, '\n')
	return fs
}

// render returns the current text of an asset file.
func (fs *AssetFS) render(name string) ([]byte, error) {
	if data, ok := fs.virtual[name]; ok {
		return data, nil
	}
	a, ok := fs.assets[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	text, err := manifest.Render(fs.cache, a)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// --- billy.Basic ---

func (fs *AssetFS) Create(filename string) (billy.File, error) {
	return nil, errReadOnly
}

func (fs *AssetFS) Open(filename string) (billy.File, error) {
	return fs.OpenFile(filename, os.O_RDONLY, 0)
}

func (fs *AssetFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, errReadOnly
	}
	filename = cleanPath(filename)
	if filename == "/" {
		return nil, &os.PathError{Op: "open", Path: filename, Err: fmt.Errorf("is a directory")}
	}

	name, ok := rootEntry(filename)
	if !ok {
		return nil, &os.PathError{Op: "open", Path: filename, Err: os.ErrNotExist}
	}
	data, err := fs.render(name)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: filename, Err: err}
	}
	return newBytesFile(name, data), nil
}

func (fs *AssetFS) Stat(filename string) (os.FileInfo, error) {
	return fs.Lstat(filename)
}

func (fs *AssetFS) Rename(oldpath, newpath string) error {
	return errReadOnly
}

func (fs *AssetFS) Remove(filename string) error {
	return errReadOnly
}

func (fs *AssetFS) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// --- billy.TempFile ---

func (fs *AssetFS) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrNotSupported
}

// --- billy.Dir ---

func (fs *AssetFS) ReadDir(path string) ([]os.FileInfo, error) {
	path = cleanPath(path)
	if path != "/" {
		if _, err := fs.Lstat(path); err != nil {
			return nil, &os.PathError{Op: "readdir", Path: path, Err: os.ErrNotExist}
		}
		return nil, &os.PathError{Op: "readdir", Path: path, Err: fmt.Errorf("not a directory")}
	}

	infos := make([]os.FileInfo, 0, len(fs.names)+len(fs.virtual))
	for _, name := range []string{formatsFile, manifestFile} {
		infos = append(infos, fs.fileInfo(name, int64(len(fs.virtual[name]))))
	}
	for _, name := range fs.names {
		// Unrenderable assets stay listed; opening them reports the error.
		data, _ := fs.render(name)
		infos = append(infos, fs.fileInfo(name, int64(len(data))))
	}
	return infos, nil
}

func (fs *AssetFS) MkdirAll(filename string, perm os.FileMode) error {
	return errReadOnly
}

// --- billy.Symlink ---

func (fs *AssetFS) Lstat(filename string) (os.FileInfo, error) {
	filename = cleanPath(filename)
	if filename == "/" {
		return &staticFileInfo{
			name:    "/",
			mode:    os.ModeDir | 0o555,
			modTime: fs.mountTime,
		}, nil
	}

	name, ok := rootEntry(filename)
	if !ok {
		return nil, &os.PathError{Op: "lstat", Path: filename, Err: os.ErrNotExist}
	}
	data, err := fs.render(name)
	if os.IsNotExist(err) {
		return nil, &os.PathError{Op: "lstat", Path: filename, Err: os.ErrNotExist}
	}
	return fs.fileInfo(name, int64(len(data))), nil
}

func (fs *AssetFS) Symlink(target, link string) error {
	return billy.ErrNotSupported
}

func (fs *AssetFS) Readlink(link string) (string, error) {
	return "", billy.ErrNotSupported
}

// --- billy.Chroot ---

func (fs *AssetFS) Chroot(path string) (billy.Filesystem, error) {
	return chroot.New(fs, path), nil
}

func (fs *AssetFS) Root() string {
	return "/"
}

// --- billy.Capable ---

func (fs *AssetFS) Capabilities() billy.Capability {
	return billy.ReadCapability | billy.SeekCapability
}

// --- internals ---

func (fs *AssetFS) fileInfo(name string, size int64) os.FileInfo {
	return &staticFileInfo{
		name:    name,
		size:    size,
		mode:    0o444,
		modTime: fs.mountTime,
	}
}

// rootEntry returns the entry name for a path directly under the root.
func rootEntry(path string) (string, bool) {
	name := strings.TrimPrefix(path, "/")
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// cleanPath normalizes a billy path to a clean absolute path.
func cleanPath(path string) string {
	path = filepath.Clean("/" + path)
	if path == "." {
		return "/"
	}
	return path
}

// staticFileInfo implements os.FileInfo with static values.
type staticFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
}

func (fi *staticFileInfo) Name() string       { return fi.name }
func (fi *staticFileInfo) Size() int64        { return fi.size }
func (fi *staticFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *staticFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *staticFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *staticFileInfo) Sys() interface{}   { return nil }

var (
	_ billy.Filesystem = (*AssetFS)(nil)
	_ billy.Capable    = (*AssetFS)(nil)
)
