package lints

import (
	"fmt"
	"strings"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/sqf"
)

// FunctionUndefined is spec §4.E's supplemented s29 lint: a bareword
// reference shaped like a `tag_fnc_name` function (the parser only
// produces a VariableExpr for it, since it is not a recognized engine
// command) that is not registered as one of the addon's own
// CfgFunctions entries (spec §3 "Addon.build_data.functions_defined")
// is almost certainly a typo or a function the addon forgot to
// register.
type FunctionUndefined struct{}

func (FunctionUndefined) Ident() string { return "S29" }

func (FunctionUndefined) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityWarning}
}

func (FunctionUndefined) MinimumSeverity() diag.Severity { return diag.SeverityNote }

func (FunctionUndefined) Run(rc *lint.RunContext, e sqf.VariableExpr) []diag.Diagnostic {
	sc, ok := rc.Scope.(*Scope)
	if !ok {
		return nil
	}
	lower := strings.ToLower(e.Name)
	if strings.HasPrefix(lower, "_") || !strings.Contains(lower, "_fnc_") {
		return nil
	}
	if sc.DB != nil && sc.DB.HasCommand(lower) {
		return nil
	}
	if sc.KnownFunctions != nil && sc.KnownFunctions[lower] {
		return nil
	}
	return []diag.Diagnostic{{
		Code:    "L-S29",
		Message: fmt.Sprintf("%q is not a known command or registered function", e.Name),
		Labels:  []diag.Label{{File: sc.File, Span: Position(sc.File, e.Pos), Style: diag.Primary}},
	}}
}
