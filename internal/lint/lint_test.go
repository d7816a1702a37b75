package lint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/lint"
)

type stubNode struct{ Name string }

type emptyNameLint struct{}

func (emptyNameLint) Ident() string { return "l01_empty_name" }
func (emptyNameLint) DefaultConfig() lint.Config {
	return lint.Config{Enabled: true, Severity: diag.SeverityWarning}
}
func (emptyNameLint) MinimumSeverity() diag.Severity { return diag.SeverityNote }
func (emptyNameLint) Run(rc *lint.RunContext, n stubNode) []diag.Diagnostic {
	if n.Name != "" {
		return nil
	}
	return []diag.Diagnostic{{Code: "l01_empty_name", Message: "name is empty"}}
}

func TestRegistryDispatchesByConcreteType(t *testing.T) {
	reg := lint.NewRegistry()
	lint.Register[stubNode](reg, emptyNameLint{})

	rc := &lint.RunContext{}
	diags := reg.Run(rc, stubNode{Name: ""})
	require.Len(t, diags, 1)
	assert.Equal(t, "l01_empty_name", diags[0].Code)

	diags = reg.Run(rc, stubNode{Name: "ok"})
	assert.Empty(t, diags)

	diags = reg.Run(rc, 42)
	assert.Empty(t, diags)
}

func TestRegistryValidateAcceptsMinimumSeverityAndRejectsUnknownIdent(t *testing.T) {
	reg := lint.NewRegistry()
	lint.Register[stubNode](reg, emptyNameLint{})

	errs := reg.Validate(map[string]lint.Config{
		"l01_empty_name": {Enabled: true, Severity: diag.SeverityNote},
	})
	assert.Empty(t, errs)

	errs = reg.Validate(map[string]lint.Config{
		"does-not-exist": {Enabled: true, Severity: diag.SeverityError},
	})
	require.Len(t, errs, 1)
}

func TestRegistryOverrideReplacesSeverity(t *testing.T) {
	reg := lint.NewRegistry()
	lint.Register[stubNode](reg, emptyNameLint{})

	rc := &lint.RunContext{Overrides: map[string]lint.Config{
		"l01_empty_name": {Enabled: true, Severity: diag.SeverityError},
	}}
	diags := reg.Run(rc, stubNode{Name: ""})
	require.Len(t, diags, 1)
	assert.Equal(t, diag.SeverityError, diags[0].Severity)
}
