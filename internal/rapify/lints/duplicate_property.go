package lints

import (
	"fmt"
	"strings"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/rapify"
)

// DuplicateProperty is spec §4.D's "Duplicate property": within a
// scope no two entries may share a name (case-insensitive); class
// redeclarations are permitted (they merge, per the engine's own
// semantics, so they are not flagged here).
type DuplicateProperty struct{}

func (DuplicateProperty) Ident() string { return "C01" }

func (DuplicateProperty) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityError}
}

func (DuplicateProperty) MinimumSeverity() diag.Severity { return diag.SeverityWarning }

func (DuplicateProperty) Run(rc *lint.RunContext, c *rapify.Class) []diag.Diagnostic {
	seen := make(map[string]rapify.EntryProperty)
	var out []diag.Diagnostic
	for _, p := range c.Body {
		ep, ok := p.(rapify.EntryProperty)
		if !ok {
			continue
		}
		key := strings.ToLower(ep.Name)
		if prior, dup := seen[key]; dup {
			out = append(out, diag.Diagnostic{
				Code:    "L-C01",
				Message: fmt.Sprintf("duplicate property %q", ep.Name),
				Labels: []diag.Label{
					{File: ep.Pos.File, Span: ep.Pos, Style: diag.Primary},
					{File: prior.Pos.File, Span: prior.Pos, Message: "first declared here", Style: diag.Secondary},
				},
			})
			continue
		}
		seen[key] = ep
	}
	return out
}
