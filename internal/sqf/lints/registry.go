package lints

import (
	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/sqf"
)

// NewRegistry builds the registry of every script lint spec §4.E
// names or this repo supplements from original_source/'s analyze/lints
// package (see SPEC_FULL.md §6).
func NewRegistry() *lint.Registry {
	reg := lint.NewRegistry()
	lint.Register[sqf.BinaryCommandExpr](reg, SelectParseNumber{})
	lint.Register[sqf.AssignLocalStmt](reg, ReassignReservedVariableLocal{})
	lint.Register[sqf.AssignGlobalStmt](reg, ReassignReservedVariableGlobal{})
	lint.Register[sqf.BinaryCommandExpr](reg, InvalidComparisons{})
	lint.Register[sqf.VariableExpr](reg, FunctionUndefined{})
	lint.Register[sqf.BinaryCommandExpr](reg, ReimplementClamp{})
	lint.Register[sqf.UnaryCommandExpr](reg, ReimplementDistance{})
	return reg
}

// Run lints statements with reg, against a Scope describing the
// enclosing file and addon (command database, registered functions).
func Run(reg *lint.Registry, statements sqf.Statements, scope *Scope, overrides map[string]lint.Config) []diag.Diagnostic {
	rc := &lint.RunContext{Overrides: overrides, Scope: scope}
	nodes := sqf.Walk(statements)
	diags := reg.RunAll(rc, nodes)
	diag.Sort(diags)
	return diags
}
