// Package diag defines the uniform diagnostic record used by every
// component (preprocessor, rapifier, script compiler, lints, archive,
// signing, codec) and renders it to terminal or machine-readable form.
package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// LineCol is a position within a file: Offset is the 0-based byte index
// used for all internal lookups; Line/Col are 1-based, for display only.
type LineCol struct {
	Offset int
	Line   int
	Col    int
}

// Position is a half-open byte range within one file.
type Position struct {
	Start LineCol
	End   LineCol
	File  string // workspace path string form
}

// Span is an alias kept for readability at call sites that only need a
// byte range without a resolved LineCol (e.g. AST nodes before they are
// attached to a file).
type Span struct {
	Start int
	End   int
}

// Severity orders diagnostics from least to most severe.
type Severity int

const (
	SeverityNote Severity = iota
	SeverityHelp
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityNote:
		return "note"
	case SeverityHelp:
		return "help"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// LabelStyle distinguishes the span that caused the diagnostic (Primary)
// from spans offered only as supporting context (Secondary).
type LabelStyle int

const (
	Primary LabelStyle = iota
	Secondary
)

// Label attaches a message to a source span.
type Label struct {
	File    string
	Span    Position
	Message string
	Style   LabelStyle
}

// Diagnostic is a value: it carries no reference to file text, so it can
// be freely copied, merged across goroutines, and serialized.
type Diagnostic struct {
	Severity    Severity
	Code        string
	Link        string
	Message     string
	Labels      []Label
	Notes       []string
	Helps       []string
	Suggestions []string
}

// IsFatal reports whether this diagnostic should stop a build pipeline
// (spec §4.I: "If any check or pre_build report contains a fatal code").
func (d Diagnostic) IsFatal() bool {
	return d.Severity >= SeverityError
}

// SourceText resolves the text and caret position for a label by asking
// a TextSource (typically a workspace) for the file's contents.
type TextSource interface {
	ReadFile(path string) (string, error)
}

// Sort orders diagnostics deterministically by primary label's file then
// span, satisfying spec §5's ordering guarantee for merged parallel work.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := primaryLabel(diags[i]), primaryLabel(diags[j])
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Span.Start.Offset < b.Span.Start.Offset
	})
}

func primaryLabel(d Diagnostic) *Label {
	for i := range d.Labels {
		if d.Labels[i].Style == Primary {
			return &d.Labels[i]
		}
	}
	if len(d.Labels) > 0 {
		return &d.Labels[0]
	}
	return nil
}

// RenderTerminal writes a human-readable rendering: severity tag, short
// code, primary label with source text and caret, then notes/helps.
func RenderTerminal(w io.Writer, d Diagnostic, src TextSource) {
	fmt.Fprintf(w, "%s[%s]: %s\n", d.Severity, d.Code, d.Message)
	for _, l := range d.Labels {
		fmt.Fprintf(w, "  --> %s:%d:%d\n", l.File, l.Span.Start.Line, l.Span.Start.Col)
		if src != nil {
			if text, err := src.ReadFile(l.File); err == nil {
				renderCaret(w, text, l)
			}
		}
		if l.Message != "" {
			fmt.Fprintf(w, "   = %s\n", l.Message)
		}
	}
	for _, n := range d.Notes {
		fmt.Fprintf(w, "  note: %s\n", n)
	}
	for _, h := range d.Helps {
		fmt.Fprintf(w, "  help: %s\n", h)
	}
	for _, s := range d.Suggestions {
		fmt.Fprintf(w, "  suggestion: %s\n", s)
	}
	if d.Link != "" {
		fmt.Fprintf(w, "  see: %s\n", d.Link)
	}
}

func renderCaret(w io.Writer, text string, l Label) {
	lines := strings.Split(text, "\n")
	lineIdx := l.Span.Start.Line - 1
	if lineIdx < 0 || lineIdx >= len(lines) {
		return
	}
	line := lines[lineIdx]
	fmt.Fprintf(w, "   | %s\n", line)
	col := l.Span.Start.Col - 1
	if col < 0 {
		col = 0
	}
	if col > len(line) {
		col = len(line)
	}
	width := l.Span.End.Col - l.Span.Start.Col
	if width < 1 {
		width = 1
	}
	fmt.Fprintf(w, "   | %s%s\n", strings.Repeat(" ", col), strings.Repeat("^", width))
}

// jsonDiagnostic is the machine-readable shape; kept distinct from
// Diagnostic so the wire format is stable independent of internal field
// renames.
type jsonDiagnostic struct {
	Severity string   `json:"severity"`
	Code     string   `json:"code"`
	Link     string   `json:"link,omitempty"`
	Message  string   `json:"message"`
	Labels   []Label  `json:"labels"`
	Notes    []string `json:"notes,omitempty"`
	Helps    []string `json:"helps,omitempty"`
}

// RenderJSON writes the machine-readable form (spec §7 "(e) optional URL").
func RenderJSON(w io.Writer, diags []Diagnostic) error {
	out := make([]jsonDiagnostic, len(diags))
	for i, d := range diags {
		out[i] = jsonDiagnostic{
			Severity: d.Severity.String(),
			Code:     d.Code,
			Link:     d.Link,
			Message:  d.Message,
			Labels:   d.Labels,
			Notes:    d.Notes,
			Helps:    d.Helps,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
