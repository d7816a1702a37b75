// Package lint implements the pluggable, generic lint framework (spec
// §4.J): lints register against a concrete AST node type, the registry
// dispatches each node to every lint whose target type matches, and a
// project's severity/enable overrides are validated once at load time
// against each lint's declared minimum severity.
package lint

import (
	"fmt"
	"reflect"

	"github.com/hemtt-go/hemtt/internal/diag"
)

// Config is a lint's resolved configuration: whether it runs at all,
// at what severity its diagnostics are reported, and any lint-specific
// options sourced from the project file's `lints.*.id` table.
type Config struct {
	Enabled  bool
	Severity diag.Severity
	Options  map[string]any
}

// Lint is implemented once per AST node type T a lint cares about
// (spec §3 "Lint record" + §4.J "Runner... Target type"). Most lints
// implement it for exactly one T; a lint that inspects several node
// kinds registers one value per kind, sharing an Ident.
type Lint[T any] interface {
	Ident() string
	DefaultConfig() Config
	MinimumSeverity() diag.Severity
	Run(rc *RunContext, target T) []diag.Diagnostic
}

// RunContext carries the ambient state a lint's Run method may need:
// resolved configuration and the accumulated per-ident overrides, kept
// opaque here so internal/rapify and internal/sqf can extend it with
// their own processed-source/AST-scope fields by embedding it.
type RunContext struct {
	Overrides map[string]Config

	// Scope carries package-specific ambient state a lint's Run method
	// may need beyond severity/enable overrides: internal/rapify stashes
	// a whole-file class table here for its cross-scope lints (missing
	// parent, CfgPatches scope, magazinewell), internal/sqf stashes its
	// declared/used-variable inspector result. Each package defines its
	// own scope type and type-asserts it back out of this field.
	Scope any
}

// EffectiveConfig resolves ident's configuration: an override if the
// project file supplied one, else the lint's own default.
func (rc *RunContext) EffectiveConfig(ident string, def Config) Config {
	if rc == nil || rc.Overrides == nil {
		return def
	}
	if c, ok := rc.Overrides[ident]; ok {
		return c
	}
	return def
}

// registration is the type-erased form of a Lint[T] stored in a
// Registry so heterogeneous target types can share one slice.
type registration struct {
	ident         string
	targetType    reflect.Type
	minSeverity   diag.Severity
	defaultConfig Config
	invoke        func(rc *RunContext, target any) []diag.Diagnostic
}

// Registry holds every registered lint, independent of target type.
type Registry struct {
	entries []registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds l to reg, recording T's concrete type for dispatch.
func Register[T any](reg *Registry, l Lint[T]) {
	var zero T
	reg.entries = append(reg.entries, registration{
		ident:         l.Ident(),
		targetType:    reflect.TypeOf(zero),
		minSeverity:   l.MinimumSeverity(),
		defaultConfig: l.DefaultConfig(),
		invoke: func(rc *RunContext, target any) []diag.Diagnostic {
			t, ok := target.(T)
			if !ok {
				return nil
			}
			return l.Run(rc, t)
		},
	})
}

// DefaultConfig looks up the default Config a registered lint declared,
// for use by project-file override resolution (a project only needs to
// name what it changes from the default).
func (reg *Registry) DefaultConfig(ident string) (Config, bool) {
	for _, e := range reg.entries {
		if e.ident == ident {
			return e.defaultConfig, true
		}
	}
	return Config{}, false
}

// Idents lists every registered lint identifier, for use by config
// validation and `hemtt lint --list`-style introspection.
func (reg *Registry) Idents() []string {
	out := make([]string, 0, len(reg.entries))
	for _, e := range reg.entries {
		out = append(out, e.ident)
	}
	return out
}

// Validate checks a set of project-supplied overrides against every
// registered lint's minimum severity (spec §4.J: "A user override
// whose severity is lower than a lint's minimum_severity is a
// configuration error reported at load time"), and against unknown
// lint identifiers.
func (reg *Registry) Validate(overrides map[string]Config) []error {
	known := make(map[string]registration, len(reg.entries))
	for _, e := range reg.entries {
		known[e.ident] = e
	}
	var errs []error
	for ident, cfg := range overrides {
		e, ok := known[ident]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown lint %q", ident))
			continue
		}
		if cfg.Enabled && cfg.Severity < e.minSeverity {
			errs = append(errs, fmt.Errorf("lint %q: override severity %s is below its minimum %s", ident, cfg.Severity, e.minSeverity))
		}
	}
	return errs
}

// Run dispatches target to every registered lint whose declared Target
// type matches target's concrete dynamic type, in registration order
// (callers sort the merged diagnostic output by span per the
// source-span-order ordering guarantee).
func (reg *Registry) Run(rc *RunContext, target any) []diag.Diagnostic {
	if target == nil {
		return nil
	}
	targetType := reflect.TypeOf(target)
	var out []diag.Diagnostic
	for _, e := range reg.entries {
		if e.targetType != targetType {
			continue
		}
		cfg := rc.EffectiveConfig(e.ident, e.defaultConfig)
		if !cfg.Enabled {
			continue
		}
		for _, d := range e.invoke(rc, target) {
			d.Severity = cfg.Severity
			out = append(out, d)
		}
	}
	return out
}

// RunAll dispatches every element of targets through Run, in order,
// concatenating their diagnostics. Used by a linter harness that walks
// a whole AST and calls Run once per node.
func (reg *Registry) RunAll(rc *RunContext, targets []any) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, t := range targets {
		out = append(out, reg.Run(rc, t)...)
	}
	return out
}
