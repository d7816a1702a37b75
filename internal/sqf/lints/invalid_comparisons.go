package lints

import (
	"fmt"
	"strings"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/sqf"
)

// InvalidComparisons is spec §4.E's supplemented s21 lint
// ("NonCompareGroup"): an `a == x || a == y` chain where x and y are
// the same literal is always redundant. Per spec §9 open question (c),
// only the first-level `||` operands are inspected; deeper nesting is
// intentionally not explored.
type InvalidComparisons struct{}

func (InvalidComparisons) Ident() string { return "S21" }

func (InvalidComparisons) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityWarning}
}

func (InvalidComparisons) MinimumSeverity() diag.Severity { return diag.SeverityNote }

func (InvalidComparisons) Run(rc *lint.RunContext, e sqf.BinaryCommandExpr) []diag.Diagnostic {
	if !isOrCommand(e.Name) {
		return nil
	}
	sc, _ := rc.Scope.(*Scope)
	if sc != nil {
		if sc.orChainCovered(e.Pos) {
			return nil
		}
		sc.markOrChainCovered(e.Pos)
	}
	operands := flattenOr(e)
	type cmp struct {
		lhs     string
		literal string
		pos     sqf.Span
	}
	var seen []cmp
	file := ""
	if sc != nil {
		file = sc.File
	}
	var out []diag.Diagnostic
	for _, operand := range operands {
		bc, ok := operand.(sqf.BinaryCommandExpr)
		if !ok || !strings.EqualFold(bc.Name, "==") {
			continue
		}
		lhsKey := sqfSource(bc.LHS)
		litKey := sqfSource(bc.RHS)
		for _, prior := range seen {
			if prior.lhs == lhsKey && prior.literal == litKey {
				out = append(out, diag.Diagnostic{
					Code:    "L-S21",
					Message: fmt.Sprintf("redundant comparison: %s == %s already appears in this condition", lhsKey, litKey),
					Labels:  []diag.Label{{File: file, Span: Position(file, bc.Pos), Style: diag.Primary}},
				})
			}
		}
		seen = append(seen, cmp{lhs: lhsKey, literal: litKey, pos: bc.Pos})
	}
	return out
}

func isOrCommand(name string) bool {
	lower := strings.ToLower(name)
	return lower == "||" || lower == "or"
}

// flattenOr collects the first-level operands of a left-associative
// `||`/`or` chain, without descending into nested `&&`/parenthesized
// groups (spec §9's stated scope limit).
func flattenOr(e sqf.Expression) []sqf.Expression {
	bc, ok := e.(sqf.BinaryCommandExpr)
	if !ok || !isOrCommand(bc.Name) {
		return []sqf.Expression{e}
	}
	return append(flattenOr(bc.LHS), flattenOr(bc.RHS)...)
}
