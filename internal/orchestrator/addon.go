// Package orchestrator implements the build pipeline (spec §4.I): a
// priority-ordered list of modules, each implementing any subset of the
// init/check/pre_build/build/post_build/pre_release/release hooks,
// invoked against discovered addons with per-hook parallel fan-out.
package orchestrator

import (
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/hemtt-go/hemtt/internal/herrors"
	"github.com/hemtt-go/hemtt/internal/rapify"
)

// Location is the folder an addon was discovered under (spec.md §3
// "Addon": `location ∈ {Addons, Optionals}`); Compats is carried in from
// original_source/hemtt/src/addon/location.rs since the distillation's
// two-member enum undercounts what real projects lay out on disk.
type Location int

const (
	Addons Location = iota
	Optionals
	Compats
)

func (l Location) String() string {
	switch l {
	case Addons:
		return "addons"
	case Optionals:
		return "optionals"
	case Compats:
		return "compats"
	default:
		return "unknown"
	}
}

// Addon is one discovered mod component: its folder, declared prefix,
// parsed config.cpp (if any), and the shared mutable BuildData that
// hooks running in parallel accumulate into.
type Addon struct {
	Name     string
	Location Location
	Prefix   string
	Config   *rapify.Class
	Build    *BuildData
}

// Source is the addon's workspace-relative folder, e.g. "addons/main".
func (a *Addon) Source() string {
	return path.Join(a.Location.String(), a.Name)
}

// PBOName is the filename the packed addon is written under: optionally
// prefixed, per original_source/hemtt/src/addon/mod.rs's `pbo()`.
func (a *Addon) PBOName(prefix string) string {
	if prefix == "" {
		return a.Name + ".pbo"
	}
	return fmt.Sprintf("%s_%s.pbo", prefix, a.Name)
}

// ValidateAddonName mirrors original_source/hemtt/src/addon/mod.rs's
// validate_name: lowercase/underscore is standard, uppercase/hyphen is
// allowed but unusual.
func ValidateAddonName(name string) error {
	for _, c := range name {
		standard := c == '_' || (c >= 'a' && c <= 'z')
		allowed := c == '-' || (c >= 'A' && c <= 'Z')
		if !standard && !allowed {
			return herrors.NewWorkspaceError("addon-name", name, fmt.Errorf("invalid character %q", c))
		}
	}
	return nil
}

// BuildData is the addon's shared, concurrently-written accumulator
// (spec.md §3 "Addon.build_data"; spec.md §5 "each field is an
// independently-lockable collector"). Each field gets its own mutex so
// a writer touching FunctionsUsed never blocks a writer touching
// Localizations.
type BuildData struct {
	versionMu      sync.Mutex
	requiredVersion string

	localizationsMu sync.Mutex
	localizations   []string

	functionsDefinedMu sync.Mutex
	functionsDefined   map[string]bool

	functionsUsedMu sync.Mutex
	functionsUsed   map[string]bool

	magwellMu sync.Mutex
	magwellInfo map[string][]string // well class -> magazine names it declares
}

// NewBuildData returns a BuildData with its maps initialized.
func NewBuildData() *BuildData {
	return &BuildData{
		functionsDefined: make(map[string]bool),
		functionsUsed:    make(map[string]bool),
		magwellInfo:      make(map[string][]string),
	}
}

func (b *BuildData) SetRequiredVersion(v string) {
	b.versionMu.Lock()
	defer b.versionMu.Unlock()
	if compareVersions(v, b.requiredVersion) > 0 {
		b.requiredVersion = v
	}
}

func (b *BuildData) RequiredVersion() string {
	b.versionMu.Lock()
	defer b.versionMu.Unlock()
	return b.requiredVersion
}

func (b *BuildData) AddLocalization(name string) {
	b.localizationsMu.Lock()
	defer b.localizationsMu.Unlock()
	b.localizations = append(b.localizations, name)
}

func (b *BuildData) Localizations() []string {
	b.localizationsMu.Lock()
	defer b.localizationsMu.Unlock()
	out := make([]string, len(b.localizations))
	copy(out, b.localizations)
	return out
}

func (b *BuildData) AddFunctionDefined(name string) {
	b.functionsDefinedMu.Lock()
	defer b.functionsDefinedMu.Unlock()
	b.functionsDefined[name] = true
}

func (b *BuildData) FunctionDefined(name string) bool {
	b.functionsDefinedMu.Lock()
	defer b.functionsDefinedMu.Unlock()
	return b.functionsDefined[name]
}

func (b *BuildData) FunctionsDefined() []string {
	b.functionsDefinedMu.Lock()
	defer b.functionsDefinedMu.Unlock()
	out := make([]string, 0, len(b.functionsDefined))
	for name := range b.functionsDefined {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FunctionsDefinedSet returns a snapshot of the defined-functions set as
// a lookup map, for lints that only need membership tests (e.g. the
// script module's undefined-function scope).
func (b *BuildData) FunctionsDefinedSet() map[string]bool {
	b.functionsDefinedMu.Lock()
	defer b.functionsDefinedMu.Unlock()
	out := make(map[string]bool, len(b.functionsDefined))
	for name := range b.functionsDefined {
		out[name] = true
	}
	return out
}

func (b *BuildData) AddFunctionUsed(name string) {
	b.functionsUsedMu.Lock()
	defer b.functionsUsedMu.Unlock()
	b.functionsUsed[name] = true
}

func (b *BuildData) FunctionsUsed() []string {
	b.functionsUsedMu.Lock()
	defer b.functionsUsedMu.Unlock()
	out := make([]string, 0, len(b.functionsUsed))
	for name := range b.functionsUsed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (b *BuildData) AddMagazinewell(well string, magazines []string) {
	b.magwellMu.Lock()
	defer b.magwellMu.Unlock()
	b.magwellInfo[well] = append(b.magwellInfo[well], magazines...)
}

func (b *BuildData) Magazinewells() map[string][]string {
	b.magwellMu.Lock()
	defer b.magwellMu.Unlock()
	out := make(map[string][]string, len(b.magwellInfo))
	for k, v := range b.magwellInfo {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// compareVersions does a best-effort dotted-numeric compare (x.y.z),
// sufficient for tracking the highest required engine version across an
// addon's CfgPatches entries without pulling in a full semver parser for
// a single three-way comparison.
func compareVersions(a, b string) int {
	if b == "" {
		return 1
	}
	if a == "" {
		return -1
	}
	var pa, pb [3]int
	fmt.Sscanf(a, "%d.%d.%d", &pa[0], &pa[1], &pa[2])
	fmt.Sscanf(b, "%d.%d.%d", &pb[0], &pb[1], &pb[2])
	for i := range pa {
		if pa[i] != pb[i] {
			return pa[i] - pb[i]
		}
	}
	return 0
}
