package preprocessor

import (
	"strings"

	"github.com/hemtt-go/hemtt/internal/herrors"
)

// directive parses and executes one "#..." line starting at the token
// just after the '#', returning the index of the first token past the
// directive's line. Directives other than #else/#endif/#ifdef/#ifndef
// are only meaningful while reading(); while skipping a false branch
// their line is still consumed so the cursor stays in sync.
func (p *Processor) directive(toks []Token, i int) (int, error) {
	i = skipInlineWhitespace(toks, i)
	name, i := readWordAt(toks, i)

	switch name {
	case "define":
		return p.directiveDefine(toks, i)
	case "undef":
		return p.directiveUndef(toks, i)
	case "ifdef":
		return p.directiveIfdef(toks, i, false)
	case "ifndef":
		return p.directiveIfdef(toks, i, true)
	case "else":
		p.elseIf()
		return skipToLineEnd(toks, i), nil
	case "endif":
		p.popIf()
		return skipToLineEnd(toks, i), nil
	case "include":
		return p.directiveInclude(toks, i)
	case "pragma":
		return p.directivePragma(toks, i)
	default:
		if p.reading() && name != "" {
			pos := toks[minIdx(i, len(toks)-1)].Pos
			p.warn("UnknownDirective", pos, "unknown preprocessor directive %q", name)
		}
		return skipToLineEnd(toks, i), nil
	}
}

func minIdx(i, max int) int {
	if i > max {
		return max
	}
	return i
}

func skipInlineWhitespace(toks []Token, i int) int {
	for i < len(toks) && toks[i].IsWhitespace() {
		i++
	}
	return i
}

func readWordAt(toks []Token, i int) (string, int) {
	i = skipInlineWhitespace(toks, i)
	if i >= len(toks) {
		return "", i
	}
	if w, ok := toks[i].Word(); ok {
		return w, i + 1
	}
	return "", i
}

// skipToLineEnd advances past tokens up to and including the line's
// terminating newline, treating a backslash immediately before a
// newline as a continuation rather than an end of line.
func skipToLineEnd(toks []Token, i int) int {
	for i < len(toks) {
		t := toks[i]
		if t.IsNewline() {
			return i + 1
		}
		if eq, ok := isPunct(t, '\\'); ok && eq && i+1 < len(toks) && toks[i+1].IsNewline() {
			i += 2
			continue
		}
		if _, ok := t.Symbol.(EOI); ok {
			return i
		}
		i++
	}
	return i
}

// readLineTokens collects the token sequence of one logical line
// (honoring backslash-newline continuation) without consuming the
// terminating newline's position twice, returning the tokens and the
// index just past the line.
func readLineTokens(toks []Token, i int) ([]Token, int) {
	var line []Token
	for i < len(toks) {
		t := toks[i]
		if t.IsNewline() {
			return line, i + 1
		}
		if eq, ok := isPunct(t, '\\'); ok && eq && i+1 < len(toks) && toks[i+1].IsNewline() {
			i += 2
			continue
		}
		if _, ok := t.Symbol.(EOI); ok {
			return line, i
		}
		line = append(line, t)
		i++
	}
	return line, i
}

func (p *Processor) directiveDefine(toks []Token, i int) (int, error) {
	if !p.reading() {
		return skipToLineEnd(toks, i), nil
	}
	name, i := readWordAt(toks, i)
	if name == "" {
		return skipToLineEnd(toks, i), nil
	}

	var params []string
	if i < len(toks) {
		if eq, ok := isPunct(toks[i], '('); ok && eq {
			i++
			for i < len(toks) {
				if eq, ok := isPunct(toks[i], ')'); ok && eq {
					i++
					break
				}
				if eq, ok := isPunct(toks[i], ','); ok && eq {
					i++
					continue
				}
				if toks[i].IsWhitespace() {
					i++
					continue
				}
				if w, ok := toks[i].Word(); ok {
					params = append(params, w)
					i++
					continue
				}
				i++
			}
		}
	}

	i = skipInlineWhitespace(toks, i)
	body, next := readLineTokens(toks, i)
	body = trimWhitespace(body)

	def := &Definition{Name: name, Params: params, Body: body}
	if len(toks) > 0 {
		def.Pos = toks[minIdx(i, len(toks)-1)].Pos
	}
	p.defines[name] = def
	return next, nil
}

func (p *Processor) directiveUndef(toks []Token, i int) (int, error) {
	name, i := readWordAt(toks, i)
	if p.reading() {
		delete(p.defines, name)
	}
	return skipToLineEnd(toks, i), nil
}

func (p *Processor) directiveIfdef(toks []Token, i int, negate bool) (int, error) {
	name, i := readWordAt(toks, i)
	_, defined := p.defines[name]
	cond := defined
	if negate {
		cond = !defined
	}
	p.pushIf(cond)
	return skipToLineEnd(toks, i), nil
}

func (p *Processor) directiveInclude(toks []Token, i int) (int, error) {
	line, next := readLineTokens(toks, i)
	if !p.reading() {
		return next, nil
	}
	line = trimWhitespace(line)
	target := renderTokens(line)
	target = strings.Trim(target, `"`)
	target = strings.Trim(target, "<>")

	resolved, err := p.ws.Locate(target, p.file)
	if err != nil {
		return next, herrors.NewPreprocessorError("include-not-found", p.file.String(), 0, 0, err)
	}
	if err := p.processFile(resolved); err != nil {
		return next, err
	}
	return next, nil
}

func (p *Processor) directivePragma(toks []Token, i int) (int, error) {
	name, i := readWordAt(toks, i)
	rest, next := readLineTokens(toks, i)
	if !p.reading() {
		return next, nil
	}
	switch name {
	case "once":
		p.once[p.file.String()] = true
	case "no_rapify":
		p.noRapify = true
	default:
		_ = rest
	}
	return next, nil
}
