// Package rapify is the build-orchestrator module that preprocesses,
// parses, lints, and binary-emits each addon's config.cpp (spec.md
// §4.D), grounded on original_source/bin/src/modules/rapifier.rs for
// where in the pipeline this work happens.
package rapify

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/herrors"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/orchestrator"
	"github.com/hemtt-go/hemtt/internal/preprocessor"
	"github.com/hemtt-go/hemtt/internal/project"
	"github.com/hemtt-go/hemtt/internal/rapify"
	rapifylints "github.com/hemtt-go/hemtt/internal/rapify/lints"
)

// Module preprocesses, parses, lints, and rapifies every addon's
// config.cpp during the build hook. The parsed class is stored on the
// addon (Addon.Config) and its rapified binary form is cached on the
// module so a later module (the pbo packer) doesn't reparse.
type Module struct {
	orchestrator.Base

	registry  *lint.Registry
	overrides map[string]lint.Config

	mu     sync.Mutex
	parsed map[*orchestrator.Addon][]byte
}

// New builds the rapify module, resolving its lint overrides against
// proj's `lints.config` table (spec §4.J: an override whose severity is
// below the lint's minimum is rejected at load time).
func New(proj *project.Config) (*Module, error) {
	reg := rapifylints.NewRegistry()
	overrides, errs := project.LintOverrides(proj.Lints.Config, reg)
	if len(errs) > 0 {
		return nil, herrors.NewConfigError("lints.config", "", fmt.Errorf("%v", errs))
	}
	if verrs := reg.Validate(overrides); len(verrs) > 0 {
		return nil, herrors.NewConfigError("lints.config", "", fmt.Errorf("%v", verrs))
	}
	return &Module{
		registry:  reg,
		overrides: overrides,
		parsed:    make(map[*orchestrator.Addon][]byte),
	}, nil
}

func (m *Module) Name() string  { return "rapify" }
func (m *Module) Priority() int { return 100 }

// Build preprocesses and parses every addon's config.cpp, runs the
// config lints against it, and stashes the rapified binary form on the
// module for the pbo-packing module to pick up. Lint diagnostics are
// collected into the Report; a parse failure for one addon does not
// stop the others (spec.md §7 "Per-file lint and parse errors ... do
// not abort other files").
func (m *Module) Build(ctx *orchestrator.Context) (orchestrator.Report, error) {
	var diags []diag.Diagnostic

	err := orchestrator.RunAddonWork(ctx, func(addon *orchestrator.Addon) error {
		entry := ctx.Workspace.Path(addon.Source()).Join("config.cpp")
		if !ctx.Workspace.Exists(entry) {
			return nil
		}
		processed, err := preprocessor.Process(ctx.Workspace, entry)
		if err != nil {
			return herrors.NewPreprocessorError("process-failed", entry.String(), 0, 0, err)
		}
		class, parseDiags := rapify.Parse(processed.Text, entry.String())
		fileDiags := append(append([]diag.Diagnostic{}, processed.Warnings...), parseDiags...)
		fileDiags = append(fileDiags, rapifylints.Run(m.registry, class, addon.Prefix, m.overrides)...)

		binary, err := serialize(class)
		if err != nil {
			return err
		}

		addon.Config = class
		m.mu.Lock()
		diags = append(diags, fileDiags...)
		m.parsed[addon] = binary
		m.mu.Unlock()
		return nil
	})
	if err != nil {
		return orchestrator.Report{Diagnostics: diags}, err
	}
	return orchestrator.Report{Diagnostics: diags}, nil
}

// Binary returns the rapified bytes the Build hook produced for addon,
// or false if it had no config.cpp.
func (m *Module) Binary(addon *orchestrator.Addon) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.parsed[addon]
	return b, ok
}

func serialize(class *rapify.Class) ([]byte, error) {
	simplified := rapify.Simplify(class)
	var buf bytes.Buffer
	if err := rapify.WriteConfig(&buf, &rapify.RConfig{Root: simplified}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
