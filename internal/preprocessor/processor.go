package preprocessor

import (
	"fmt"
	"strings"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/herrors"
	"github.com/hemtt-go/hemtt/internal/workspace"
)

// maxIncludeDepth bounds #include recursion (spec §4.C "RecursionLimit").
const maxIncludeDepth = 50

type ifFrame struct {
	parentReading bool
	taken         bool
	current       bool
}

// Processor walks one entry file (and, transitively, its includes)
// applying directives and macro expansion, accumulating a single flat
// output text plus a source map back to original files.
type Processor struct {
	ws    *workspace.Workspace
	file  workspace.Path
	depth int

	defines   map[string]*Definition
	expanding map[string]bool
	ifStack   []ifFrame
	once      map[string]bool

	out      strings.Builder
	mappings []Mapping
	warnings []diag.Diagnostic
	noRapify bool
}

// Process runs the preprocessor over entry, returning the flattened
// text, its source map, and any non-fatal diagnostics collected along
// the way (unknown directives, forbidden built-ins).
func Process(ws *workspace.Workspace, entry workspace.Path) (*Processed, error) {
	p := &Processor{
		ws:        ws,
		defines:   make(map[string]*Definition),
		expanding: make(map[string]bool),
		once:      make(map[string]bool),
	}
	if err := p.processFile(entry); err != nil {
		return nil, err
	}
	return &Processed{
		Text:     p.out.String(),
		Mappings: p.mappings,
		Warnings: p.warnings,
		NoRapify: p.noRapify,
	}, nil
}

func (p *Processor) reading() bool {
	if len(p.ifStack) == 0 {
		return true
	}
	return p.ifStack[len(p.ifStack)-1].current
}

func (p *Processor) pushIf(cond bool) {
	parentReading := p.reading()
	f := ifFrame{parentReading: parentReading}
	if parentReading {
		f.current = cond
		f.taken = cond
	}
	p.ifStack = append(p.ifStack, f)
}

func (p *Processor) elseIf() {
	if len(p.ifStack) == 0 {
		return
	}
	top := &p.ifStack[len(p.ifStack)-1]
	if top.parentReading && !top.taken {
		top.current = true
		top.taken = true
	} else {
		top.current = false
	}
}

func (p *Processor) popIf() {
	if len(p.ifStack) == 0 {
		return
	}
	p.ifStack = p.ifStack[:len(p.ifStack)-1]
}

func (p *Processor) emit(text string, pos diag.Position, wasMacro bool) {
	if text == "" {
		return
	}
	start := p.out.Len()
	p.out.WriteString(text)
	p.mappings = append(p.mappings, Mapping{
		ProcessedRange: [2]int{start, p.out.Len()},
		Original:       pos,
		WasMacro:       wasMacro,
	})
}

func (p *Processor) warn(code string, pos diag.Position, format string, args ...any) {
	p.warnings = append(p.warnings, diag.Diagnostic{
		Severity: diag.SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Labels: []diag.Label{{
			File:  pos.File,
			Span:  pos,
			Style: diag.Primary,
		}},
	})
}

// processFile tokenizes and processes a single file's tokens in place,
// appending to the shared output/mapping accumulators.
func (p *Processor) processFile(file workspace.Path) error {
	if p.once[file.String()] {
		return nil
	}
	if p.depth > maxIncludeDepth {
		return herrors.NewPreprocessorError("RecursionLimit", file.String(), 0, 0,
			fmt.Errorf("include depth exceeded %d", maxIncludeDepth))
	}

	prevFile := p.file
	p.file = file
	p.depth++
	defer func() { p.depth--; p.file = prevFile }()

	text, err := p.ws.ReadToString(file)
	if err != nil {
		return err
	}
	toks := Tokenize(text, file.String())

	atLineStart := true
	i := 0
	for i < len(toks) {
		t := toks[i]

		switch sym := t.Symbol.(type) {
		case EOI:
			return nil

		case Newline:
			if p.reading() {
				p.emit("\n", t.Pos, false)
			}
			atLineStart = true
			i++
			continue

		case Whitespace:
			if p.reading() {
				p.emit(t.Text(), t.Pos, false)
			}
			i++
			continue

		case Comment:
			if p.reading() {
				p.emit(t.Text(), t.Pos, false)
			}
			atLineStart = false
			i++
			continue

		case Punct:
			if atLineStart && rune(sym) == '#' {
				next, err := p.directive(toks, i+1)
				if err != nil {
					return err
				}
				i = next
				atLineStart = true
				continue
			}
			if rune(sym) == '"' {
				next := p.stringLiteral(toks, i)
				i = next
				atLineStart = false
				continue
			}
			if p.reading() {
				p.emit(t.Text(), t.Pos, false)
			}
			atLineStart = false
			i++
			continue

		case Word:
			atLineStart = false
			if !p.reading() {
				i++
				continue
			}
			name := string(sym)
			if forbiddenIdents[name] {
				p.warn("BuiltInNotSupported", t.Pos, "%s is not supported by this preprocessor", name)
				p.emit(name, t.Pos, false)
				i++
				continue
			}
			if def, ok := p.defines[name]; ok && !p.expanding[name] {
				if def.isFunctionLike() {
					if i+1 < len(toks) {
						if eq, isP := isPunct(toks[i+1], '('); isP && eq {
							args, next := parseCallArgs(toks, i+1)
							expanded := p.expand(def, t.Pos, args)
							p.emitTokens(expanded, t.Pos)
							i = next
							continue
						}
					}
					p.emit(name, t.Pos, false)
					i++
					continue
				}
				expanded := p.expand(def, t.Pos, nil)
				p.emitTokens(expanded, t.Pos)
				i++
				continue
			}
			p.emit(name, t.Pos, false)
			i++
			continue

		default:
			atLineStart = false
			if p.reading() {
				p.emit(t.Text(), t.Pos, false)
			}
			i++
			continue
		}
	}
	return nil
}

// emitTokens flattens an already-expanded token slice into output,
// attributing every emitted byte to the macro invocation site.
func (p *Processor) emitTokens(toks []Token, callPos diag.Position) {
	for _, t := range toks {
		p.emit(t.Text(), callPos, true)
	}
}

// stringLiteral copies a double-quoted literal verbatim (doubled `""`
// is the Arma string-escape convention and does not end the literal),
// suppressing directive and macro recognition within it.
func (p *Processor) stringLiteral(toks []Token, start int) int {
	i := start
	if p.reading() {
		p.emit(toks[i].Text(), toks[i].Pos, false)
	}
	i++
	for i < len(toks) {
		t := toks[i]
		if eq, isP := isPunct(t, '"'); isP && eq {
			if i+1 < len(toks) {
				if eq2, isP2 := isPunct(toks[i+1], '"'); isP2 && eq2 {
					if p.reading() {
						p.emit(`""`, t.Pos, false)
					}
					i += 2
					continue
				}
			}
			if p.reading() {
				p.emit(t.Text(), t.Pos, false)
			}
			return i + 1
		}
		if _, ok := t.Symbol.(EOI); ok {
			return i
		}
		if p.reading() {
			p.emit(t.Text(), t.Pos, false)
		}
		i++
	}
	return i
}

// parseCallArgs parses a parenthesized, comma-separated, paren-depth
// aware argument list starting at the '(' token index, mirroring the
// original read_args! macro. Returns the argument token slices (with
// surrounding whitespace trimmed) and the index just past ')'.
func parseCallArgs(toks []Token, openIdx int) ([][]Token, int) {
	i := openIdx + 1
	depth := 1
	var args [][]Token
	var current []Token
	for i < len(toks) {
		t := toks[i]
		if p, ok := t.Symbol.(Punct); ok {
			switch rune(p) {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					args = append(args, trimWhitespace(current))
					return args, i + 1
				}
			case ',':
				if depth == 1 {
					args = append(args, trimWhitespace(current))
					current = nil
					i++
					continue
				}
			}
		}
		if _, ok := t.Symbol.(EOI); ok {
			args = append(args, trimWhitespace(current))
			return args, i
		}
		current = append(current, t)
		i++
	}
	args = append(args, trimWhitespace(current))
	return args, i
}

func trimWhitespace(toks []Token) []Token {
	start, end := 0, len(toks)
	for start < end && (toks[start].IsWhitespace() || toks[start].IsNewline()) {
		start++
	}
	for end > start && (toks[end-1].IsWhitespace() || toks[end-1].IsNewline()) {
		end--
	}
	return toks[start:end]
}

// expand resolves a macro invocation to its fully-expanded token
// sequence. A macro referencing itself, directly or through a call
// chain, is emitted literally rather than recursing forever.
func (p *Processor) expand(def *Definition, callPos diag.Position, callArgs [][]Token) []Token {
	if p.expanding[def.Name] {
		return []Token{{Symbol: Word(def.Name), Pos: callPos}}
	}
	p.expanding[def.Name] = true
	defer delete(p.expanding, def.Name)

	body := def.Body
	if def.isFunctionLike() {
		expandedArgs := make([][]Token, len(callArgs))
		for i, a := range callArgs {
			expandedArgs[i] = p.expandTokens(a)
		}
		body = substituteArgs(body, def.Params, expandedArgs)
	}
	return p.expandTokens(body)
}

// expandTokens rescans a token slice, recursively expanding any
// further macro invocations it contains.
func (p *Processor) expandTokens(toks []Token) []Token {
	var out []Token
	i := 0
	for i < len(toks) {
		t := toks[i]
		if w, ok := t.Word(); ok {
			if def, found := p.defines[w]; found && !p.expanding[w] {
				if def.isFunctionLike() {
					if i+1 < len(toks) {
						if eq, isP := isPunct(toks[i+1], '('); isP && eq {
							args, next := parseCallArgs(toks, i+1)
							out = append(out, p.expand(def, t.Pos, args)...)
							i = next
							continue
						}
					}
					out = append(out, t)
					i++
					continue
				}
				out = append(out, p.expand(def, t.Pos, nil)...)
				i++
				continue
			}
		}
		out = append(out, t)
		i++
	}
	return out
}
