package project

import (
	"fmt"
	"strings"

	"github.com/hemtt-go/hemtt/internal/diag"
)

// parseSeverity maps the lowercase severity names project.toml authors
// write (spec §4.J) onto diag.Severity.
func parseSeverity(s string) (diag.Severity, error) {
	switch strings.ToLower(s) {
	case "note":
		return diag.SeverityNote, nil
	case "help":
		return diag.SeverityHelp, nil
	case "warning", "warn":
		return diag.SeverityWarning, nil
	case "error":
		return diag.SeverityError, nil
	case "fatal":
		return diag.SeverityFatal, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", s)
	}
}
