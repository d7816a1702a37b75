package orchestrator

import (
	"io/fs"
	"sort"
	"strings"

	"github.com/hemtt-go/hemtt/internal/workspace"
)

// DiscoverAddons enumerates the immediate subdirectories of /addons,
// /optionals, and /compats (spec §4.A "enumerates top-level addon
// directories"; Compats per original_source/hemtt/src/addon/location.rs),
// validating each name and returning a fresh Addon with its own
// BuildData, sorted by location then name for deterministic hook
// fan-out ordering.
func DiscoverAddons(ws *workspace.Workspace) ([]*Addon, error) {
	var out []*Addon
	for _, loc := range []Location{Addons, Optionals, Compats} {
		root := ws.Path("/" + loc.String())
		if !ws.Exists(root) {
			continue
		}
		seen := make(map[string]bool)
		err := ws.WalkDir(root, func(p workspace.Path, d fs.DirEntry) error {
			pStr := p.String()
			if pStr == root.String() {
				// the root directory's own walk entry (a physical
				// layer visits it before its children).
				return nil
			}
			rel := strings.TrimPrefix(pStr, root.String()+"/")
			if rel == "" {
				return nil
			}
			// The addon name is rel's first path segment. A bare file
			// directly under root (no "/" in rel, and not itself a
			// directory entry) isn't an addon folder.
			name := rel
			if idx := strings.Index(rel, "/"); idx >= 0 {
				name = rel[:idx]
			} else if !d.IsDir() {
				return nil
			}
			if seen[name] {
				return nil
			}
			seen[name] = true
			if err := ValidateAddonName(name); err != nil {
				return err
			}
			out = append(out, &Addon{Name: name, Location: loc, Build: NewBuildData()})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
