package workspace

import (
	"path"
	"strings"
)

// Path identifies a file in the virtual tree: a workspace plus a logical
// "/segment/segment/..." path. Two paths are equal iff their string form
// and owning workspace are equal (spec §3 "Workspace path").
type Path struct {
	ws   *Workspace
	slug string // always starts with "/", uses "/" separators
}

func newPath(ws *Workspace, slug string) Path {
	if !strings.HasPrefix(slug, "/") {
		slug = "/" + slug
	}
	return Path{ws: ws, slug: path.Clean(slug)}
}

// String returns the logical path, e.g. "/addons/main/config.cpp".
func (p Path) String() string { return p.slug }

// Workspace returns the owning workspace.
func (p Path) Workspace() *Workspace { return p.ws }

// Equal reports whether p and o name the same file in the same workspace.
func (p Path) Equal(o Path) bool { return p.ws == o.ws && p.slug == o.slug }

// Join returns the path formed by appending segment.
func (p Path) Join(segment string) Path {
	return newPath(p.ws, path.Join(p.slug, segment))
}

// Parent returns the path's containing directory. Parent of "/" is "/".
func (p Path) Parent() Path {
	return newPath(p.ws, path.Dir(p.slug))
}

// Base returns the final path segment.
func (p Path) Base() string { return path.Base(p.slug) }

// Ext returns the file extension, including the leading dot, or "".
func (p Path) Ext() string { return path.Ext(p.slug) }

// WithExtension returns a copy of p with its extension replaced by ext
// (ext should include the leading dot; an empty ext strips it).
func (p Path) WithExtension(ext string) Path {
	trimmed := strings.TrimSuffix(p.slug, p.Ext())
	return newPath(p.ws, trimmed+ext)
}

// HasPrefix reports whether p is prefix or a descendant of prefix.
func (p Path) HasPrefix(prefix string) bool {
	prefix = path.Clean("/" + strings.TrimPrefix(prefix, "/"))
	return p.slug == prefix || strings.HasPrefix(p.slug, prefix+"/")
}
