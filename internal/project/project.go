// Package project loads and validates the `.hemtt/project.toml`
// external-collaborator interface (spec §6): the project's name and
// prefix, its semantic version, signing configuration, per-component
// lint overrides, and the `hemtt.launch`/`hemtt.build` tables.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/hemtt-go/hemtt/internal/herrors"
	"github.com/hemtt-go/hemtt/internal/lint"
)

// Signing carries the `[signing]` table (spec §6): which authority
// name and detached-signature version new builds sign with.
type Signing struct {
	Authority       string `toml:"authority"`
	Version         int    `toml:"version"` // 2 or 3
	PrivateKeyHash  string `toml:"private_key_hash"`
}

// LintOverride is one entry of a `[lints.config.ID]`/`[lints.sqf.ID]`
// table: spec §4.J's per-lint severity/enable override, plus whatever
// lint-specific options (e.g. file_type's `allow_no_extension`).
type LintOverride struct {
	Enabled  *bool          `toml:"enabled"`
	Severity string         `toml:"severity"`
	Options  map[string]any `toml:"options"`
}

// Lints is the `[lints]` table: one override map per component that
// exposes a lint registry (config, sqf; stringtables is reserved for
// future use, out of scope here per spec.md §1's book/doc exclusion).
type Lints struct {
	Config        map[string]LintOverride `toml:"config"`
	SQF           map[string]LintOverride `toml:"sqf"`
	Stringtables  map[string]LintOverride `toml:"stringtables"`
}

// LaunchOptions is one named entry of `[hemtt.launch.NAME]`: the extra
// mods and parameters `hemtt launch` should pass the launcher
// collaborator (spec §1 Non-goals: the actual OS process spawn is out
// of scope, this only builds the request).
type LaunchOptions struct {
	DLCs        []string `toml:"dlc"`
	Mods        []string `toml:"mods"`
	Optionals   []string `toml:"optionals"`
	Parameters  []string `toml:"parameters"`
	PresetFile  string   `toml:"preset"`
	Executable  string   `toml:"executable"`
}

// BuildOptions is the `[hemtt.build]` table.
type BuildOptions struct {
	NoBin    []string `toml:"no_bin"`
	NoSource []string `toml:"no_source"`
}

// HEMTT is the `[hemtt]` table grouping launch/build sub-tables.
type HEMTT struct {
	Launch map[string]LaunchOptions `toml:"launch"`
	Build  BuildOptions             `toml:"build"`
}

// Config is the whole of `.hemtt/project.toml` (spec §6).
type Config struct {
	Name        string  `toml:"name"`
	Prefix      string  `toml:"prefix"`
	MainPrefix  string  `toml:"mainprefix"`
	Version     string  `toml:"version"`
	Signing     Signing `toml:"signing"`
	Lints       Lints   `toml:"lints"`
	HEMTT       HEMTT   `toml:"hemtt"`

	// root is the directory project.toml was loaded from, not part of
	// the file itself; used to resolve relative paths elsewhere.
	root string
}

// Root returns the project directory Config was loaded from.
func (c *Config) Root() string { return c.root }

// Load reads and validates `.hemtt/project.toml` under root (spec §6's
// external interface), mirroring the teacher's config.Load/
// LoadWithRoot two-step (load, then validate-and-default).
func Load(root string) (*Config, error) {
	path := filepath.Join(root, ".hemtt", "project.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, herrors.NewConfigError("path", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, herrors.NewConfigError("project.toml", path, err)
	}
	cfg.root = root
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields spec §6/§7 call out as required, and
// applies the defaults the original implementation infers (mainprefix
// falls back to prefix; signing version defaults to 3).
func (c *Config) Validate() error {
	if c.Name == "" {
		return herrors.NewConfigError("name", "", fmt.Errorf("project name is required"))
	}
	if c.Prefix == "" {
		return herrors.NewConfigError("prefix", "", fmt.Errorf("project prefix is required"))
	}
	if c.MainPrefix == "" {
		c.MainPrefix = c.Prefix
	}
	if c.Signing.Version == 0 {
		c.Signing.Version = 3
	}
	if c.Signing.Version != 2 && c.Signing.Version != 3 {
		return herrors.NewConfigError("signing.version", fmt.Sprint(c.Signing.Version), fmt.Errorf("must be 2 or 3"))
	}
	for name, launch := range c.HEMTT.Launch {
		if launch.Executable == "" && c.MainPrefix == "" {
			return herrors.NewConfigError("hemtt.launch."+name, "", fmt.Errorf("mainprefix is required to launch without an explicit executable"))
		}
	}
	return nil
}

// LintOverrides resolves a Lints sub-table into the lint package's
// Config map against reg, defaulting anything a project doesn't name
// to that lint's own DefaultConfig.
func LintOverrides(table map[string]LintOverride, reg *lint.Registry) (map[string]lint.Config, []error) {
	out := make(map[string]lint.Config, len(table))
	var errs []error
	for ident, override := range table {
		def, known := lint.Config{}, false
		if reg != nil {
			def, known = reg.DefaultConfig(ident)
		}
		cfg := def
		if override.Enabled != nil {
			cfg.Enabled = *override.Enabled
		}
		if override.Severity != "" {
			sev, err := parseSeverity(override.Severity)
			if err != nil {
				errs = append(errs, fmt.Errorf("lint %q: %w", ident, err))
				continue
			}
			cfg.Severity = sev
		}
		if override.Options != nil {
			merged := make(map[string]any, len(def.Options)+len(override.Options))
			for k, v := range def.Options {
				merged[k] = v
			}
			for k, v := range override.Options {
				merged[k] = v
			}
			cfg.Options = merged
		}
		if !known && reg != nil {
			errs = append(errs, fmt.Errorf("unknown lint %q", ident))
		}
		out[ident] = cfg
	}
	return out, errs
}
