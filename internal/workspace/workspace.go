// Package workspace implements the layered virtual filesystem (spec §4.A):
// an overlay of N physical roots plus an in-memory layer, path
// canonicalization, and the include-search ("locate") algorithm used by
// the preprocessor and the rapified-config/script parsers.
package workspace

import (
	"io/fs"
	"path"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hemtt-go/hemtt/internal/herrors"
)

// PrefixRoot binds a logical mount point ("/z/my_prefix") to a layer,
// mirroring an addon's `prefix` value in its CfgPatches declaration.
type PrefixRoot struct {
	Prefix string
	Layer  Layer
}

// Workspace overlays layers in priority order and resolves includes.
type Workspace struct {
	layers        []Layer
	writableLayer Layer
	prefixRoots   []PrefixRoot
	companionRoot Layer // the /a3/ game-installation root, if registered
	caseSensitive bool
}

// New creates an empty workspace. The first writable layer passed to
// AddLayer becomes the designated write target (spec: "writes always go
// to the designated writable layer, typically the physical project
// root").
func New() *Workspace {
	return &Workspace{caseSensitive: runtime.GOOS != "windows"}
}

// AddLayer registers a read layer, highest priority first among layers
// already added (later calls are lower priority).
func (w *Workspace) AddLayer(l Layer) {
	w.layers = append(w.layers, l)
	if l.Writable() && w.writableLayer == nil {
		w.writableLayer = l
	}
}

// SetCompanionRoot registers the `/a3/` game-installation root used by
// `locate`'s rule (1).
func (w *Workspace) SetCompanionRoot(l Layer) { w.companionRoot = l }

// RegisterPrefix binds prefix to a layer for `locate`'s rule (2).
func (w *Workspace) RegisterPrefix(prefix string, l Layer) {
	w.prefixRoots = append(w.prefixRoots, PrefixRoot{Prefix: path.Clean("/" + strings.TrimPrefix(prefix, "/")), Layer: l})
}

// Path builds a Path under this workspace from a logical slug.
func (w *Workspace) Path(slug string) Path { return newPath(w, slug) }

func (w *Workspace) normalize(s string) string {
	if w.caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

// resolveLayer returns the first layer (in priority order) that has slug,
// along with that layer.
func (w *Workspace) resolveLayer(slug string) (Layer, bool) {
	for _, l := range w.layers {
		if l.Exists(slug) {
			return l, true
		}
	}
	return nil, false
}

// Exists reports whether p resolves in some layer.
func (w *Workspace) Exists(p Path) bool {
	_, ok := w.resolveLayer(p.slug)
	return ok
}

// Metadata returns fs.FileInfo for p from the winning layer.
func (w *Workspace) Metadata(p Path) (fs.FileInfo, error) {
	l, ok := w.resolveLayer(p.slug)
	if !ok {
		return nil, herrors.NewWorkspaceError("metadata", p.String(), fs.ErrNotExist)
	}
	return l.Stat(p.slug)
}

// ReadToString reads p's contents as text from the winning layer.
func (w *Workspace) ReadToString(p Path) (string, error) {
	l, ok := w.resolveLayer(p.slug)
	if !ok {
		return "", herrors.NewWorkspaceError("read", p.String(), fs.ErrNotExist)
	}
	data, err := l.ReadFile(p.slug)
	if err != nil {
		return "", herrors.NewWorkspaceError("read", p.String(), err)
	}
	return string(data), nil
}

// ReadFile implements diag.TextSource.
func (w *Workspace) ReadFile(slug string) (string, error) {
	return w.ReadToString(w.Path(slug))
}

// CreateFile writes data to p in the designated writable layer.
func (w *Workspace) CreateFile(p Path, data []byte) error {
	if w.writableLayer == nil {
		return herrors.NewWorkspaceError("create", p.String(), fs.ErrPermission)
	}
	if err := w.writableLayer.WriteFile(p.slug, data); err != nil {
		return herrors.NewWorkspaceError("create", p.String(), err)
	}
	return nil
}

// CreateDir ensures p exists as a directory in the writable layer.
func (w *Workspace) CreateDir(p Path) error {
	if w.writableLayer == nil {
		return herrors.NewWorkspaceError("mkdir", p.String(), fs.ErrPermission)
	}
	return w.writableLayer.MkdirAll(p.slug)
}

// WalkDir walks p (a directory) across all layers, de-duplicating paths
// that resolve in more than one layer (first layer wins, per the overlay
// read rule); directories that exist in more than one layer with
// incompatible contents are not detected here — readers still resolve
// through the normal priority order.
func (w *Workspace) WalkDir(p Path, fn func(Path, fs.DirEntry) error) error {
	seen := make(map[string]bool)
	for _, l := range w.layers {
		err := l.WalkDir(p.slug, func(slug string, d fs.DirEntry) error {
			key := w.normalize(slug)
			if seen[key] {
				return nil
			}
			seen[key] = true
			return fn(newPath(w, slug), d)
		})
		if err != nil && !fs.IsNotExist(err) {
			return herrors.NewWorkspaceError("walk", p.String(), err)
		}
	}
	return nil
}

// Locate implements the include search (spec §4.C via §4.A):
//  1. if relative begins "/a3/" and a companion root is registered,
//     resolve there;
//  2. if relative is absolute, match the longest registered prefix root
//     (case-insensitive on Windows);
//  3. otherwise resolve relative to currentFile's parent.
func (w *Workspace) Locate(relative string, currentFile Path) (Path, error) {
	if w.companionRoot != nil && strings.HasPrefix(relative, "/a3/") {
		slug := path.Clean(relative)
		if w.companionRoot.Exists(slug) {
			return newPath(w, slug), nil
		}
		return Path{}, herrors.NewWorkspaceError("locate", relative, fs.ErrNotExist)
	}

	if strings.HasPrefix(relative, "/") {
		slug := path.Clean(relative)
		var best *PrefixRoot
		for i := range w.prefixRoots {
			root := &w.prefixRoots[i]
			if w.matchPrefix(slug, root.Prefix) {
				if best == nil || len(root.Prefix) > len(best.Prefix) {
					best = root
				}
			}
		}
		if best != nil {
			rest := strings.TrimPrefix(slug, best.Prefix)
			candidate := path.Join("/", rest)
			if best.Layer.Exists(candidate) {
				return newPath(w, candidate), nil
			}
		}
		return Path{}, herrors.NewWorkspaceError("locate", relative, fs.ErrNotExist)
	}

	base := currentFile.Parent()
	candidate := base.Join(relative)
	if w.Exists(candidate) {
		return candidate, nil
	}
	return Path{}, herrors.NewWorkspaceError("locate", relative, fs.ErrNotExist)
}

func (w *Workspace) matchPrefix(slug, prefix string) bool {
	a, b := slug, prefix
	if !w.caseSensitive {
		a, b = strings.ToLower(a), strings.ToLower(b)
	}
	return a == b || strings.HasPrefix(a, b+"/")
}

// Glob matches pattern (a doublestar "**"-glob, rooted at "/") against
// every file in the overlay, deduplicated by winning layer. Nothing in
// this repository calls it: addon discovery and the build modules walk
// the workspace with WalkDir directly.
func (w *Workspace) Glob(root Path, pattern string) ([]Path, error) {
	var out []Path
	err := w.WalkDir(root, func(p Path, d fs.DirEntry) error {
		if d != nil && d.IsDir() {
			return nil
		}
		rel := strings.TrimPrefix(p.String(), "/")
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return err
		}
		if ok {
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

// TopLevelAddonDirs enumerates the /addons and /optionals mount points
// (spec §4.A "enumerates top-level addon directories").
func (w *Workspace) TopLevelAddonDirs() []string {
	return []string{"/addons", "/optionals"}
}
