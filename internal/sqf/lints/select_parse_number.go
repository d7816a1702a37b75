package lints

import (
	"strconv"
	"strings"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/sqf"
)

// boolReturningCommands is the allow-list of commands this lint trusts
// to return a boolean (or string) without side effects, standing in
// for the original's full command-database return-type lookup (spec
// §9 "Open questions" names no exact list for this; the concrete
// scenario in spec §8 #4 uses `surfaceIsWater`, included here).
var boolReturningCommands = map[string]bool{
	"surfaceiswater": true, "isnull": true, "isnil": true, "isequalto": true,
	"in": true, "istouchingground": true, "canvehiclecargo": true, "isdedicated": true,
	"isserver": true, "isplayer": true, "canmove": true,
}

// SelectParseNumber is spec §8 scenario 4's named lint ("Select→
// parseNumber"): `[a, b] select cond` where the array is the literal
// pair {0,1} or {1,0} and cond is provably boolean-valued can be
// replaced with `parseNumber cond` (negated when the pair is {1,0}).
type SelectParseNumber struct{}

func (SelectParseNumber) Ident() string { return "S07" }

func (SelectParseNumber) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityHelp}
}

func (SelectParseNumber) MinimumSeverity() diag.Severity { return diag.SeverityNote }

func (SelectParseNumber) Run(rc *lint.RunContext, e sqf.BinaryCommandExpr) []diag.Diagnostic {
	if !strings.EqualFold(e.Name, "select") {
		return nil
	}
	arr, ok := e.LHS.(sqf.ArrayExpr)
	if !ok && e.LHS != nil {
		if ca, isCA := e.LHS.(sqf.ConsumableArrayExpr); isCA {
			arr = sqf.ArrayExpr{Items: ca.Items, Pos: ca.Pos}
			ok = true
		}
	}
	if !ok || len(arr.Items) != 2 {
		return nil
	}
	lhs, lok := arr.Items[0].(sqf.NumberExpr)
	rhs, rok := arr.Items[1].(sqf.NumberExpr)
	if !lok || !rok {
		return nil
	}

	negate := false
	if rhs.Value == 0 {
		lhs, rhs = rhs, lhs
		negate = true
	}
	if lhs.Value != 0 || rhs.Value != 1 {
		return nil
	}
	if !isSafeBooleanCondition(e.RHS) {
		return nil
	}

	file := ""
	if s, ok := rc.Scope.(*Scope); ok {
		file = s.File
	}
	suggestion := "parseNumber " + sqfSource(e.RHS)
	if negate {
		suggestion = "parseNumber !" + sqfSource(e.RHS)
	}
	return []diag.Diagnostic{{
		Code:        "L-S07",
		Message:     "using `select` where `parseNumber` is more appropriate",
		Labels:      []diag.Label{{File: file, Span: Position(file, e.Pos), Style: diag.Primary}},
		Suggestions: []string{suggestion},
	}}
}

func isSafeBooleanCondition(e sqf.Expression) bool {
	switch v := e.(type) {
	case sqf.StringExpr, sqf.BooleanExpr:
		return true
	case sqf.NularCommandExpr:
		return boolReturningCommands[strings.ToLower(v.Name)]
	case sqf.UnaryCommandExpr:
		return boolReturningCommands[strings.ToLower(v.Name)]
	case sqf.BinaryCommandExpr:
		switch strings.ToLower(v.Name) {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||", "and", "or":
			return true
		}
		return boolReturningCommands[strings.ToLower(v.Name)]
	default:
		return false
	}
}

// sqfSource renders a best-effort, re-parseable textual form of e for
// the lint's suggestion text; it is not used for compilation.
func sqfSource(e sqf.Expression) string {
	switch v := e.(type) {
	case sqf.NumberExpr:
		return trimFloat(v.Value)
	case sqf.StringExpr:
		return "\"" + strings.ReplaceAll(v.Value, "\"", "\"\"") + "\""
	case sqf.BooleanExpr:
		if v.Value {
			return "true"
		}
		return "false"
	case sqf.VariableExpr:
		return v.Name
	case sqf.NularCommandExpr:
		return v.Name
	case sqf.UnaryCommandExpr:
		return v.Name + " " + sqfSource(v.RHS)
	case sqf.BinaryCommandExpr:
		return sqfSource(v.LHS) + " " + v.Name + " " + sqfSource(v.RHS)
	case sqf.ArrayExpr:
		parts := make([]string, len(v.Items))
		for i, it := range v.Items {
			parts[i] = sqfSource(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}

func trimFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
