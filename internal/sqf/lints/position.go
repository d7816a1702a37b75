package lints

import (
	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/sqf"
)

// Position converts a byte span into the processed script source into a
// diag.Position, used by every lint in this package to build labels.
// Lints never see file text directly (spec §3 "Diagnostic": "they do
// not carry the file text"); callers resolve it through a workspace at
// render time, so this only needs to fill in Offset, not Line/Col.
func Position(file string, span sqf.Span) diag.Position {
	return diag.Position{
		Start: diag.LineCol{Offset: span[0]},
		End:   diag.LineCol{Offset: span[1]},
		File:  file,
	}
}
