// Package lints implements spec §4.E's supplemented lint catalogue
// (select→parseNumber, reserved-variable reassignment, undefined
// function, invalid comparisons, reimplemented clamp/distance) on top
// of the generic framework in internal/lint.
package lints

import "github.com/hemtt-go/hemtt/internal/sqf"

// Scope is the ambient state a script lint needs beyond the single
// node the registry hands it: the command database (to classify
// identifiers) and the set of functions the build already knows are
// defined elsewhere in the addon (spec §3 "Addon.build_data
// .functions_defined", consulted by the undefined-function lint).
type Scope struct {
	DB             *sqf.Database
	File           string          // workspace path string of the script being linted, for diag.Position.File
	KnownFunctions map[string]bool // lower-cased CfgFunctions-style names, e.g. "myaddon_fnc_init"
	ReservedPrefix string          // project prefix, used to scope which bare identifiers count as "our" functions

	// orCovered records the byte spans of `||` chains InvalidComparisons
	// has already flattened top-down, so the same lint dispatched again
	// on a nested sub-chain (Walk visits every node, not just roots)
	// skips re-reporting a subset of what the outer call already found.
	orCovered []sqf.Span
}

func (s *Scope) orChainCovered(span sqf.Span) bool {
	for _, c := range s.orCovered {
		if span[0] >= c[0] && span[1] <= c[1] {
			return true
		}
	}
	return false
}

func (s *Scope) markOrChainCovered(span sqf.Span) {
	s.orCovered = append(s.orCovered, span)
}
