// Package script is the build-orchestrator module that preprocesses,
// parses, lints, and compiles every *.sqf file in an addon (spec.md
// §4.E), grounded on original_source/bin/src/modules/preprocess.rs for
// where compilation sits in the pipeline.
package script

import (
	"io/fs"
	"strings"
	"sync"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/herrors"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/orchestrator"
	"github.com/hemtt-go/hemtt/internal/preprocessor"
	"github.com/hemtt-go/hemtt/internal/project"
	"github.com/hemtt-go/hemtt/internal/sqf"
	sqflints "github.com/hemtt-go/hemtt/internal/sqf/lints"
	"github.com/hemtt-go/hemtt/internal/workspace"
)

// Module compiles every addon's .sqf files during the build hook,
// accumulating the functions each file defines onto the addon's
// BuildData (spec.md §3 "Addon.build_data: functions_defined,
// functions_used").
type Module struct {
	orchestrator.Base

	db        *sqf.Database
	prefix    string
	registry  *lint.Registry
	overrides map[string]lint.Config

	mu       sync.Mutex
	compiled map[string]sqf.Compiled // keyed by workspace path
}

// New builds the script module against db (the shared command
// database) and proj's `lints.sqf` overrides.
func New(db *sqf.Database, proj *project.Config) (*Module, error) {
	reg := sqflints.NewRegistry()
	overrides, errs := project.LintOverrides(proj.Lints.SQF, reg)
	if len(errs) > 0 {
		return nil, herrors.NewConfigError("lints.sqf", "", herrors.NewMulti(errs))
	}
	if verrs := reg.Validate(overrides); len(verrs) > 0 {
		return nil, herrors.NewConfigError("lints.sqf", "", herrors.NewMulti(verrs))
	}
	return &Module{
		db:        db,
		prefix:    proj.Prefix,
		registry:  reg,
		overrides: overrides,
		compiled:  make(map[string]sqf.Compiled),
	}, nil
}

func (m *Module) Name() string  { return "script" }
func (m *Module) Priority() int { return 110 }

// Build walks each addon's tree for .sqf files, preprocesses, lints,
// and compiles each one, recording the functions it defines (by file
// stem, as CfgFunctions entries typically mirror the file name).
func (m *Module) Build(ctx *orchestrator.Context) (orchestrator.Report, error) {
	var mu sync.Mutex
	var diags []diag.Diagnostic

	err := orchestrator.RunAddonWork(ctx, func(addon *orchestrator.Addon) error {
		root := ctx.Workspace.Path(addon.Source())
		return ctx.Workspace.WalkDir(root, func(p workspace.Path, entry fs.DirEntry) error {
			if entry.IsDir() || !strings.EqualFold(p.Ext(), ".sqf") {
				return nil
			}
			fileDiags, err := m.compileOne(ctx, addon, p)
			if err != nil {
				return err
			}
			mu.Lock()
			diags = append(diags, fileDiags...)
			mu.Unlock()
			return nil
		})
	})
	if err != nil {
		return orchestrator.Report{Diagnostics: diags}, err
	}
	return orchestrator.Report{Diagnostics: diags}, nil
}

func (m *Module) compileOne(ctx *orchestrator.Context, addon *orchestrator.Addon, p workspace.Path) ([]diag.Diagnostic, error) {
	processed, err := preprocessor.Process(ctx.Workspace, p)
	if err != nil {
		return nil, herrors.NewPreprocessorError("process-failed", p.String(), 0, 0, err)
	}
	tokens, err := sqf.Lex(processed.Text)
	if err != nil {
		return nil, herrors.NewParserError(p.String(), 0, 0, "", err)
	}
	tokens = sqf.StripComments(sqf.StripNoop(tokens))
	statements, err := sqf.Parse(m.db, tokens)
	if err != nil {
		return nil, herrors.NewParserError(p.String(), 0, 0, "", err)
	}

	scope := &sqflints.Scope{
		DB:             m.db,
		File:           p.String(),
		KnownFunctions: addon.Build.FunctionsDefinedSet(),
		ReservedPrefix: m.prefix,
	}
	fileDiags := sqflints.Run(m.registry, statements, scope, m.overrides)

	compiled, err := sqf.Compile(statements, []string{p.String()}, nil)
	if err != nil {
		return nil, herrors.NewCompilerError("compile-failed", err)
	}

	m.mu.Lock()
	m.compiled[p.String()] = compiled
	m.mu.Unlock()

	name := p.Base()
	name = strings.TrimSuffix(name, p.Ext())
	addon.Build.AddFunctionDefined(strings.ToLower(name))

	return fileDiags, nil
}

// Compiled returns the compiled form of the script at workspace path p,
// for the pbo-packing module to serialize.
func (m *Module) Compiled(p string) (sqf.Compiled, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.compiled[p]
	return c, ok
}
