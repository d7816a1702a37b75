package lints

import (
	"fmt"
	"strings"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/sqf"
)

// ReimplementClamp is spec §4.E's supplemented s33 lint (clamp
// variant): `if (v < min) then {min} else {v min max}` and its
// `>` mirror `if (v > max) then {max} else {v max min}` are a hand-rolled clamp that reads less
// clearly than `(v max min) min max`. Only the two patterns the
// original groups as "Pattern 1"/"Pattern 2" are matched here; the
// `else`-without-`if` shorthand patterns 3/4 are not.
type ReimplementClamp struct{}

func (ReimplementClamp) Ident() string { return "S33c" }

func (ReimplementClamp) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityHelp}
}

func (ReimplementClamp) MinimumSeverity() diag.Severity { return diag.SeverityNote }

func (ReimplementClamp) Run(rc *lint.RunContext, e sqf.BinaryCommandExpr) []diag.Diagnostic {
	if !strings.EqualFold(e.Name, "then") {
		return nil
	}
	ifExpr, ok := e.LHS.(sqf.UnaryCommandExpr)
	if !ok || !strings.EqualFold(ifExpr.Name, "if") {
		return nil
	}
	elseExpr, ok := e.RHS.(sqf.BinaryCommandExpr)
	if !ok || !strings.EqualFold(elseExpr.Name, "else") {
		return nil
	}
	cond, ok := ifExpr.RHS.(sqf.BinaryCommandExpr)
	if !ok {
		return nil
	}

	min, value, max, ok := matchClamp(cond, elseExpr.LHS, elseExpr.RHS)
	if !ok {
		return nil
	}
	file := ""
	if sc, isSc := rc.Scope.(*Scope); isSc {
		file = sc.File
	}
	return []diag.Diagnostic{{
		Code:        "L-S33c",
		Message:     "this if/then/else reimplements a clamp between two bounds",
		Labels:      []diag.Label{{File: file, Span: Position(file, e.Pos), Style: diag.Primary}},
		Suggestions: []string{fmt.Sprintf("(%s max %s) min %s", sqfSource(value), sqfSource(min), sqfSource(max))},
	}}
}

// matchClamp recognizes `if (value < min) then {min} else {value min max}`
// (and the `>` mirror), returning the bound and value expressions
// in min/value/max order.
func matchClamp(cond sqf.BinaryCommandExpr, thenBranch, elseBranch sqf.Expression) (min, value, max sqf.Expression, ok bool) {
	then, isThenCode := unwrapCode(thenBranch)
	els, isElseCode := unwrapCode(elseBranch)
	if !isThenCode {
		then = thenBranch
	}
	if !isElseCode {
		els = elseBranch
	}

	switch strings.ToLower(cond.Name) {
	case "<", "<=":
		// if (v < min) then {min} else {v min max}
		if sqfSource(then) != sqfSource(cond.RHS) {
			return nil, nil, nil, false
		}
		elseMin, isMin := els.(sqf.BinaryCommandExpr)
		if !isMin || !strings.EqualFold(elseMin.Name, "min") || sqfSource(elseMin.LHS) != sqfSource(cond.LHS) {
			return nil, nil, nil, false
		}
		return cond.RHS, cond.LHS, elseMin.RHS, true
	case ">", ">=":
		// if (v > max) then {max} else {v max min}
		if sqfSource(then) != sqfSource(cond.RHS) {
			return nil, nil, nil, false
		}
		elseMax, isMax := els.(sqf.BinaryCommandExpr)
		if !isMax || !strings.EqualFold(elseMax.Name, "max") || sqfSource(elseMax.LHS) != sqfSource(cond.LHS) {
			return nil, nil, nil, false
		}
		return elseMax.RHS, cond.LHS, cond.RHS, true
	default:
		return nil, nil, nil, false
	}
}

func unwrapCode(e sqf.Expression) (sqf.Expression, bool) {
	code, ok := e.(sqf.CodeExpr)
	if !ok || len(code.Body.Content) != 1 {
		return e, false
	}
	stmt, ok := code.Body.Content[0].(sqf.ExpressionStmt)
	if !ok {
		return e, false
	}
	return stmt.Expr, true
}

// ReimplementDistance is spec §4.E's supplemented s33 lint (distance
// variant): `sqrt ((x1-x2)^2+(y1-y2)^2)` is the engine's own `distance`
// (2D) command, hand-rolled.
type ReimplementDistance struct{}

func (ReimplementDistance) Ident() string { return "S33d" }

func (ReimplementDistance) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityHelp}
}

func (ReimplementDistance) MinimumSeverity() diag.Severity { return diag.SeverityNote }

func (ReimplementDistance) Run(rc *lint.RunContext, e sqf.UnaryCommandExpr) []diag.Diagnostic {
	if !strings.EqualFold(e.Name, "sqrt") {
		return nil
	}
	sum, ok := e.RHS.(sqf.BinaryCommandExpr)
	if !ok || sum.Name != "+" {
		return nil
	}
	if !isSquaredDifference(sum.LHS) || !isSquaredDifference(sum.RHS) {
		return nil
	}
	file := ""
	if sc, isSc := rc.Scope.(*Scope); isSc {
		file = sc.File
	}
	return []diag.Diagnostic{{
		Code:    "L-S33d",
		Message: "this hand-rolled hypotenuse reimplements `distance`",
		Labels:  []diag.Label{{File: file, Span: Position(file, e.Pos), Style: diag.Primary}},
		Notes:   []string{"if both terms are x/y coordinates of the same two points, `pointA distance pointB` replaces this whole expression"},
	}}
}

// isSquaredDifference matches `(a - b) ^ 2`.
func isSquaredDifference(e sqf.Expression) bool {
	bc, ok := e.(sqf.BinaryCommandExpr)
	if !ok || bc.Name != "^" {
		return false
	}
	exp, ok := bc.RHS.(sqf.NumberExpr)
	if !ok || exp.Value != 2 {
		return false
	}
	diff, ok := bc.LHS.(sqf.BinaryCommandExpr)
	return ok && diff.Name == "-"
}
