package lints

import (
	"fmt"
	"strings"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/sqf"
)

// reservedVariables are the engine-managed variables spec §4.E's
// supplemented s23 lint protects; overwriting them silently breaks
// whatever implicitly relies on their engine-assigned value.
var reservedVariables = map[string]bool{
	"this": true, "_this": true, "_forEachIndex": true, "_exception": true,
	"_thisScript": true, "_thisFSM": true, "thisList": true, "thisTrigger": true,
}

func init() {
	// normalize the table to lower-case keys once, in place of repeating
	// strings.ToLower at every lookup site.
	lowered := make(map[string]bool, len(reservedVariables))
	for k, v := range reservedVariables {
		lowered[strings.ToLower(k)] = v
	}
	reservedVariables = lowered
}

func reassignDiagnostic(rc *lint.RunContext, name string, pos sqf.Span) []diag.Diagnostic {
	if !reservedVariables[strings.ToLower(name)] {
		return nil
	}
	file := ""
	if sc, ok := rc.Scope.(*Scope); ok {
		file = sc.File
	}
	return []diag.Diagnostic{{
		Code:    "L-S23",
		Message: fmt.Sprintf("reassigning reserved variable %q", name),
		Labels:  []diag.Label{{File: file, Span: Position(file, pos), Style: diag.Primary}},
		Notes:   []string{"the engine overwrites this variable at the next relevant code-block boundary"},
	}}
}

// ReassignReservedVariableLocal is spec §4.E's supplemented s23 lint,
// the `private`/local-assignment half: a direct assignment to one of
// the engine's reserved variables (`_this`, `_forEachIndex`, ...) is
// almost always a mistake, since those are reassigned by the engine
// itself around every code-block boundary. This implements the lint's
// direct-overwrite case; the upstream save/restore exception (`_x =
// _this; ...; _this = _x`) is not modeled here. Registered separately
// for AssignLocalStmt/AssignGlobalStmt since the generic framework
// dispatches by exact concrete type, not by the Statement interface.
type ReassignReservedVariableLocal struct{}

func (ReassignReservedVariableLocal) Ident() string { return "S23" }

func (ReassignReservedVariableLocal) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityError}
}

func (ReassignReservedVariableLocal) MinimumSeverity() diag.Severity { return diag.SeverityWarning }

func (ReassignReservedVariableLocal) Run(rc *lint.RunContext, s sqf.AssignLocalStmt) []diag.Diagnostic {
	return reassignDiagnostic(rc, s.Name, s.Pos)
}

// ReassignReservedVariableGlobal is ReassignReservedVariableLocal's
// counterpart for global assignment statements.
type ReassignReservedVariableGlobal struct{}

func (ReassignReservedVariableGlobal) Ident() string { return "S23" }

func (ReassignReservedVariableGlobal) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityError}
}

func (ReassignReservedVariableGlobal) MinimumSeverity() diag.Severity { return diag.SeverityWarning }

func (ReassignReservedVariableGlobal) Run(rc *lint.RunContext, s sqf.AssignGlobalStmt) []diag.Diagnostic {
	return reassignDiagnostic(rc, s.Name, s.Pos)
}
