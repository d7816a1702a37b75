// Package lints implements spec §4.D's "required lints" over a parsed
// rapify.Class tree, wired onto the generic framework in internal/lint.
package lints

import (
	"strings"

	"github.com/hemtt-go/hemtt/internal/rapify"
)

// Scope is the whole-file context a config lint needs beyond the single
// AST node the lint.Registry hands it: the lexical chain of names
// visible at each class (spec §4.D "Missing parent": "not defined or
// forward-declared in scope above"), and the root pointer so
// whole-tree lints (CfgPatches scope, magazinewell) fire exactly once.
type Scope struct {
	Root    *rapify.Class
	Prefix  string
	Visible map[*rapify.Class]map[string]string // class ptr -> lower(name) -> exact name, visible at that point
}

// BuildScope walks root once, recording for every nested class the set
// of names already declared in its own scope chain (ancestors plus
// preceding siblings) at the point it appears, so later lints can
// resolve "is Parent forward-declared above" without re-walking.
func BuildScope(root *rapify.Class, prefix string) *Scope {
	s := &Scope{Root: root, Prefix: prefix, Visible: make(map[*rapify.Class]map[string]string)}
	s.walk(root, map[string]string{})
	return s
}

func (s *Scope) walk(c *rapify.Class, inherited map[string]string) {
	// Names visible to c's own children start from everything visible to
	// c itself (c's ancestors' chain), then accumulate c's own body as we
	// scan it left to right so forward references still fail to resolve.
	local := make(map[string]string, len(inherited))
	for k, v := range inherited {
		local[k] = v
	}
	for _, p := range c.Body {
		if cp, ok := p.(rapify.ClassProperty); ok && cp.Class != nil {
			s.Visible[cp.Class] = cloneMap(local)
			s.walk(cp.Class, local)
			local[strings.ToLower(cp.Class.Name)] = cp.Class.Name
		}
	}
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Resolve reports whether name is declared somewhere in c's visible
// scope chain, and the exact casing it was declared with.
func (s *Scope) Resolve(c *rapify.Class, name string) (exact string, ok bool) {
	vis, found := s.Visible[c]
	if !found {
		return "", false
	}
	exact, ok = vis[strings.ToLower(name)]
	return exact, ok
}

// FindClass locates the first class named name (case-insensitive)
// anywhere under root, depth-first; used by the whole-tree lints to
// find well-known top-level classes like CfgPatches/CfgMagazines.
func FindClass(root *rapify.Class, name string) *rapify.Class {
	var found *rapify.Class
	var walk func(c *rapify.Class)
	walk = func(c *rapify.Class) {
		if found != nil || c == nil {
			return
		}
		for _, p := range c.Body {
			cp, ok := p.(rapify.ClassProperty)
			if !ok || cp.Class == nil {
				continue
			}
			if strings.EqualFold(cp.Class.Name, name) {
				found = cp.Class
				return
			}
			walk(cp.Class)
			if found != nil {
				return
			}
		}
	}
	walk(root)
	return found
}

// EntryValue returns the EntryProperty named name directly in c's body,
// case-insensitively.
func EntryValue(c *rapify.Class, name string) (rapify.EntryProperty, bool) {
	for _, p := range c.Body {
		if ep, ok := p.(rapify.EntryProperty); ok && strings.EqualFold(ep.Name, name) {
			return ep, true
		}
	}
	return rapify.EntryProperty{}, false
}

// StringItems flattens an array Value's top-level string items; non-
// string items are skipped (the caller only cares about name lists like
// units[]/weapons[]).
func StringItems(v rapify.Value) []string {
	arr, ok := v.(rapify.ArrayValue)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr.Items))
	for _, it := range arr.Items {
		if s, ok := it.(rapify.StrItem); ok {
			out = append(out, s.Text)
		}
	}
	return out
}
