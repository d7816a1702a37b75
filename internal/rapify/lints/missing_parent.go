package lints

import (
	"fmt"
	"strings"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/lint"
	"github.com/hemtt-go/hemtt/internal/rapify"
)

// MissingParent is spec §4.D's "Missing parent": if a class declares a
// parent that is not defined or forward-declared in scope above,
// error.
type MissingParent struct{}

func (MissingParent) Ident() string { return "C02" }

func (MissingParent) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityError}
}

func (MissingParent) MinimumSeverity() diag.Severity { return diag.SeverityWarning }

func (MissingParent) Run(rc *lint.RunContext, c *rapify.Class) []diag.Diagnostic {
	if c.Parent == "" {
		return nil
	}
	scope, ok := rc.Scope.(*Scope)
	if !ok {
		return nil
	}
	if _, found := scope.Resolve(c, c.Parent); !found {
		return []diag.Diagnostic{{
			Code:    "L-C02",
			Message: fmt.Sprintf("class %q declares undefined parent %q", c.Name, c.Parent),
			Labels:  []diag.Label{{File: c.Pos.File, Span: c.Pos, Style: diag.Primary}},
		}}
	}
	return nil
}

// ParentCaseMismatch is spec §4.D's "Parent case mismatch": parent name
// differs from the definition's name only by case.
type ParentCaseMismatch struct{}

func (ParentCaseMismatch) Ident() string { return "C03" }

func (ParentCaseMismatch) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityWarning}
}

func (ParentCaseMismatch) MinimumSeverity() diag.Severity { return diag.SeverityNote }

func (ParentCaseMismatch) Run(rc *lint.RunContext, c *rapify.Class) []diag.Diagnostic {
	if c.Parent == "" {
		return nil
	}
	scope, ok := rc.Scope.(*Scope)
	if !ok {
		return nil
	}
	exact, found := scope.Resolve(c, c.Parent)
	if !found || exact == c.Parent {
		return nil
	}
	if !strings.EqualFold(exact, c.Parent) {
		return nil
	}
	return []diag.Diagnostic{{
		Code:    "L-C03",
		Message: fmt.Sprintf("parent %q differs in case from its definition %q", c.Parent, exact),
		Labels:  []diag.Label{{File: c.Pos.File, Span: c.Pos, Style: diag.Primary}},
	}}
}
