package lints

import (
	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/rapify"
)

// NewRegistry builds the registry of every config lint spec §4.D names
// ("required lints (illustrative, not exhaustive)").
func NewRegistry() *lint.Registry {
	reg := lint.NewRegistry()
	lint.Register[*rapify.Class](reg, DuplicateProperty{})
	lint.Register[*rapify.Class](reg, MissingParent{})
	lint.Register[*rapify.Class](reg, ParentCaseMismatch{})
	lint.Register[*rapify.Class](reg, CfgPatchesScope{})
	lint.Register[*rapify.Class](reg, MagazinewellMissingMagazine{})
	lint.Register[rapify.EntryProperty](reg, FileType{})
	return reg
}

// Run lints root with reg, resolving prefix-scoped cross-file lints
// (CfgPatches scope, magazinewell) against root itself. overrides is
// the project file's `lints.config.*` table, already validated via
// reg.Validate.
func Run(reg *lint.Registry, root *rapify.Class, prefix string, overrides map[string]lint.Config) []diag.Diagnostic {
	scope := BuildScope(root, prefix)
	rc := &lint.RunContext{Overrides: overrides, Scope: scope}
	nodes := rapify.Walk(root)
	diags := reg.RunAll(rc, nodes)
	diag.Sort(diags)
	return diags
}
