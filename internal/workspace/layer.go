package workspace

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Layer is one physical or virtual root overlaid into the workspace's
// read view. The first layer (in registration order) that resolves a
// path wins for reads (spec §4.A).
type Layer interface {
	Name() string
	ReadFile(slug string) ([]byte, error)
	Stat(slug string) (fs.FileInfo, error)
	Exists(slug string) bool
	WalkDir(slug string, fn func(slug string, d fs.DirEntry) error) error
	Writable() bool
	WriteFile(slug string, data []byte) error
	MkdirAll(slug string) error
}

// physicalLayer overlays an OS directory tree.
type physicalLayer struct {
	name     string
	root     string
	writable bool
}

// NewPhysicalLayer mounts the OS directory at root as a workspace layer.
func NewPhysicalLayer(name, root string, writable bool) Layer {
	return &physicalLayer{name: name, root: filepath.Clean(root), writable: writable}
}

func (l *physicalLayer) Name() string { return l.name }

func (l *physicalLayer) osPath(slug string) string {
	return filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(slug, "/")))
}

func (l *physicalLayer) ReadFile(slug string) ([]byte, error) {
	return os.ReadFile(l.osPath(slug))
}

func (l *physicalLayer) Stat(slug string) (fs.FileInfo, error) {
	return os.Stat(l.osPath(slug))
}

func (l *physicalLayer) Exists(slug string) bool {
	_, err := os.Stat(l.osPath(slug))
	return err == nil
}

func (l *physicalLayer) WalkDir(slug string, fn func(slug string, d fs.DirEntry) error) error {
	root := l.osPath(slug)
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(l.root, p)
		if relErr != nil {
			return relErr
		}
		return fn("/"+filepath.ToSlash(rel), d)
	})
}

func (l *physicalLayer) Writable() bool { return l.writable }

// WriteFile writes via a temp file in the same directory followed by a
// rename, so a reader never observes a partially-written staging
// artifact (spec §4.I: "writes to the staging tree happen via
// temp-file-then-rename").
func (l *physicalLayer) WriteFile(slug string, data []byte) error {
	p := l.osPath(slug)
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (l *physicalLayer) MkdirAll(slug string) error {
	return os.MkdirAll(l.osPath(slug), 0o755)
}

// memLayer is an in-memory layer, used for generated/virtual content
// (e.g. macro-expanded includes materialized for downstream tooling, or
// test fixtures) that has no backing file on disk.
type memLayer struct {
	name  string
	files map[string][]byte
}

// NewMemLayer creates an empty writable in-memory layer.
func NewMemLayer(name string) Layer {
	return &memLayer{name: name, files: make(map[string][]byte)}
}

func (l *memLayer) Name() string { return l.name }

func (l *memLayer) ReadFile(slug string) ([]byte, error) {
	data, ok := l.files[slug]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (l *memLayer) Stat(slug string) (fs.FileInfo, error) {
	if _, ok := l.files[slug]; !ok {
		return nil, fs.ErrNotExist
	}
	return memFileInfo{name: slug, size: int64(len(l.files[slug]))}, nil
}

// Exists reports whether slug names a file, or a directory containing
// at least one file (the mem layer never stores directories in their
// own right, so directory existence is inferred from its descendants,
// matching WalkDir's prefix-based lookup below).
func (l *memLayer) Exists(slug string) bool {
	if _, ok := l.files[slug]; ok {
		return true
	}
	prefix := slug
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	for k := range l.files {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func (l *memLayer) WalkDir(slug string, fn func(slug string, d fs.DirEntry) error) error {
	keys := make([]string, 0, len(l.files))
	prefix := slug
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	for k := range l.files {
		if k == slug || strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry := memDirEntry{info: memFileInfo{name: path.Base(k), size: int64(len(l.files[k]))}}
		if err := fn(k, entry); err != nil {
			return err
		}
	}
	return nil
}

func (l *memLayer) Writable() bool { return true }

func (l *memLayer) WriteFile(slug string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	l.files[slug] = cp
	return nil
}

func (l *memLayer) MkdirAll(slug string) error { return nil }

type memFileInfo struct {
	name string
	size int64
}

func (m memFileInfo) Name() string      { return m.name }
func (m memFileInfo) Size() int64       { return m.size }
func (m memFileInfo) Mode() fs.FileMode { return 0o644 }
func (m memFileInfo) ModTime() time.Time { return time.Time{} }
func (m memFileInfo) IsDir() bool       { return false }
func (m memFileInfo) Sys() any          { return nil }

// memDirEntry adapts memFileInfo to fs.DirEntry so WalkDir callers can
// call IsDir()/Type() without a nil-interface check, matching what a
// physicalLayer walk yields.
type memDirEntry struct {
	info memFileInfo
}

func (e memDirEntry) Name() string               { return e.info.name }
func (e memDirEntry) IsDir() bool                 { return false }
func (e memDirEntry) Type() fs.FileMode           { return e.info.Mode().Type() }
func (e memDirEntry) Info() (fs.FileInfo, error)  { return e.info, nil }
