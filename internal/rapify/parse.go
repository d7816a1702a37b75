package rapify

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/hemtt-go/hemtt/internal/diag"
)

// parser is a hand-written recursive-descent scanner/parser combined
// (spec §4.D: "recursive-descent over a hand-written combinator
// layer"). It operates directly on the preprocessor's flat output
// string rather than a separate token stream.
type parser struct {
	src  string
	file string
	pos  int
	line int
	col  int

	diags []diag.Diagnostic
}

// Parse parses a whole preprocessed config file into its implicit root
// class, collecting recoverable-error diagnostics rather than failing
// the whole file on the first syntax error.
func Parse(src, file string) (*Class, []diag.Diagnostic) {
	p := &parser{src: src, file: file, pos: 0, line: 1, col: 1}
	root := &Class{Name: "", Pos: p.posSpan(0, 0)}
	root.Body = p.parseProperties(true)
	return root, p.diags
}

func (p *parser) here() diag.LineCol { return diag.LineCol{Offset: p.pos, Line: p.line, Col: p.col} }

func (p *parser) posSpan(start, end int) diag.Position {
	return diag.Position{
		Start: diag.LineCol{Offset: start},
		End:   diag.LineCol{Offset: end},
		File:  p.file,
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peekAt(n int) byte {
	if p.pos+n >= len(p.src) {
		return 0
	}
	return p.src[p.pos+n]
}

func (p *parser) advance() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return c
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) skipWS() {
	for !p.eof() {
		c := p.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.advance()
		case c == '/' && p.peekAt(1) == '/':
			for !p.eof() && p.peek() != '\n' {
				p.advance()
			}
		case c == '/' && p.peekAt(1) == '*':
			p.advance()
			p.advance()
			for !p.eof() && !(p.peek() == '*' && p.peekAt(1) == '/') {
				p.advance()
			}
			if !p.eof() {
				p.advance()
				p.advance()
			}
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (p *parser) parseIdent() (string, bool) {
	start := p.pos
	if !isIdentStart(p.peek()) {
		return "", false
	}
	for !p.eof() && isIdentCont(p.peek()) {
		p.advance()
	}
	return p.src[start:p.pos], true
}

func (p *parser) warn(code string, pos diag.Position, format string, args ...any) {
	p.diags = append(p.diags, diag.Diagnostic{
		Severity: diag.SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Labels:   []diag.Label{{File: p.file, Span: pos, Style: diag.Primary}},
	})
}

// parseProperties reads a class body's properties until a closing '}'
// (or, for the root class, EOF). Runaway scopes recover by
// synchronizing on the next "class" keyword.
func (p *parser) parseProperties(root bool) []Property {
	var props []Property
	for {
		p.skipWS()
		if p.eof() {
			return props
		}
		if !root && p.peek() == '}' {
			return props
		}

		start := p.pos
		startPos := p.here()

		if p.peek() == '0' || (p.peek() >= '1' && p.peek() <= '9') {
			// A bare numeric "identifier" (enum-style) is accepted as a
			// property name by the original grammar; parse it as digits.
			for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
				p.advance()
			}
			name := p.src[start:p.pos]
			p.finishEntry(name, startPos, &props)
			continue
		}

		ident, ok := p.parseIdent()
		if !ok {
			// Unrecognized token: skip it and resynchronize on the next
			// "class" keyword or closing brace.
			p.advance()
			p.recoverToClassOrBrace()
			continue
		}

		switch ident {
		case "class":
			cls := p.parseClassBody(startPos)
			props = append(props, ClassProperty{Class: cls})
		case "delete":
			p.skipWS()
			name, ok := p.parseIdent()
			if !ok {
				p.recoverToSemicolon()
				continue
			}
			p.skipWS()
			p.expectSemicolon(name, startPos)
			props = append(props, DeleteProperty{Name: name, Pos: p.posSpan(start, p.pos)})
		default:
			p.finishEntry(ident, startPos, &props)
		}
	}
}

// finishEntry parses the "[ '[' ']' ] '=' value ';'" tail of an entry
// whose name has already been consumed.
func (p *parser) finishEntry(name string, startPos diag.LineCol, props *[]Property) {
	p.skipWS()
	expectArray := false
	expand := false
	if p.peek() == '[' {
		p.advance()
		p.skipWS()
		if p.peek() == ']' {
			p.advance()
		}
		expectArray = true
		p.skipWS()
		if p.peek() == '+' && p.peekAt(1) == '=' {
			p.advance()
			p.advance()
			expand = true
		}
	}
	p.skipWS()
	if p.peek() == '=' && !expand {
		p.advance()
	} else if !expand {
		p.recoverToSemicolon()
		return
	}
	p.skipWS()

	var val Value
	if expectArray {
		items := p.parseArrayItems()
		val = ArrayValue{Expand: expand, Items: items, Pos: p.posSpan(int(startPos.Offset), p.pos)}
	} else {
		val = p.parseScalarValue()
	}

	endPos := p.here()
	pos := diag.Position{Start: startPos, End: endPos, File: p.file}
	p.skipWS()
	if p.peek() == ';' {
		p.advance()
		*props = append(*props, EntryProperty{Name: name, Value: val, ExpectedArray: expectArray, Pos: pos})
		return
	}
	p.warn("MissingSemicolon", pos, "missing semicolon after %q", name)
	*props = append(*props, MissingSemicolonProperty{Name: name, Pos: pos})
	*props = append(*props, EntryProperty{Name: name, Value: val, ExpectedArray: expectArray, Pos: pos})
}

func (p *parser) expectSemicolon(name string, startPos diag.LineCol) {
	if p.peek() == ';' {
		p.advance()
		return
	}
	p.warn("MissingSemicolon", p.posSpan(int(startPos.Offset), p.pos), "missing semicolon after %q", name)
}

// parseClassBody parses the remainder of "class Name[: Parent] { ... };"
// or "class Name;" after the "class" keyword has been consumed.
func (p *parser) parseClassBody(startPos diag.LineCol) *Class {
	p.skipWS()
	name, _ := p.parseIdent()
	p.skipWS()

	var parent string
	if p.peek() == ':' {
		p.advance()
		p.skipWS()
		parent, _ = p.parseIdent()
	}
	p.skipWS()

	cls := &Class{Name: name, Parent: parent}
	if p.peek() == ';' {
		p.advance()
		cls.External = true
		cls.Pos = diag.Position{Start: startPos, End: p.here(), File: p.file}
		return cls
	}
	if p.peek() != '{' {
		p.recoverToSemicolon()
		cls.Pos = diag.Position{Start: startPos, End: p.here(), File: p.file}
		return cls
	}
	p.advance()
	cls.Body = p.parseProperties(false)
	p.skipWS()
	if p.peek() == '}' {
		p.advance()
	}
	p.skipWS()
	if p.peek() == ';' {
		p.advance()
	} else {
		p.warn("MissingSemicolon", p.posSpan(p.pos, p.pos), "missing semicolon after class %q", name)
	}
	cls.Pos = diag.Position{Start: startPos, End: p.here(), File: p.file}
	return cls
}

func (p *parser) recoverToSemicolon() {
	for !p.eof() && p.peek() != ';' && p.peek() != '}' {
		p.advance()
	}
	if p.peek() == ';' {
		p.advance()
	}
}

func (p *parser) recoverToClassOrBrace() {
	for !p.eof() {
		p.skipWS()
		if p.eof() || p.peek() == '}' {
			return
		}
		if isIdentStart(p.peek()) {
			save := p.pos
			ident, _ := p.parseIdent()
			if ident == "class" {
				p.pos = save
				return
			}
			continue
		}
		p.advance()
	}
}

// parseScalarValue parses a non-array entry's value: a string or a
// number.
func (p *parser) parseScalarValue() Value {
	p.skipWS()
	start := p.here()
	if p.peek() == '"' || p.peek() == '\'' {
		text := p.parseQuoted()
		return StringValue{Text: text, Pos: diag.Position{Start: start, End: p.here(), File: p.file}}
	}
	if n, ok := p.tryParseNumber(); ok {
		n.Pos = diag.Position{Start: start, End: p.here(), File: p.file}
		return n
	}
	return InvalidValue{Pos: diag.Position{Start: start, End: p.here(), File: p.file}}
}

// parseQuoted reads a delimiter-doubled string literal, where the
// delimiter is whichever of '"' or '\'' opened it.
func (p *parser) parseQuoted() string {
	delim := p.advance()
	var b strings.Builder
	for !p.eof() {
		c := p.peek()
		if c == delim {
			if p.peekAt(1) == delim {
				b.WriteByte(delim)
				p.advance()
				p.advance()
				continue
			}
			p.advance()
			break
		}
		b.WriteByte(c)
		p.advance()
	}
	return b.String()
}

// tryParseNumber parses a decimal, hex (0x...), or scientific-notation
// number, including the "1##2" token-paste digit-concatenation form
// (spec §4.D).
func (p *parser) tryParseNumber() (NumberValue, bool) {
	start := p.pos
	neg := false
	if p.peek() == '-' || p.peek() == '+' {
		neg = p.peek() == '-'
		p.advance()
	}
	if p.peek() == '0' && (p.peekAt(1) == 'x' || p.peekAt(1) == 'X') {
		p.advance()
		p.advance()
		hstart := p.pos
		for !p.eof() && isHexDigit(p.peek()) {
			p.advance()
		}
		v, _ := strconv.ParseInt(p.src[hstart:p.pos], 16, 64)
		if neg {
			v = -v
		}
		return NumberValue{Kind: NumberInt32, Int: int32(v)}, true
	}
	if !unicode.IsDigit(rune(p.peek())) && p.peek() != '.' {
		p.pos = start
		return NumberValue{}, false
	}

	text := p.readNumericRun()
	for p.peek() == '#' && p.peekAt(1) == '#' {
		p.advance()
		p.advance()
		text += p.readNumericRun()
	}
	if text == "" {
		p.pos = start
		return NumberValue{}, false
	}
	isFloat := strings.ContainsAny(text, ".eE")
	if isFloat {
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			p.pos = start
			return NumberValue{}, false
		}
		if neg {
			f = -f
		}
		return NumberValue{Kind: NumberFloat32, Float: float32(f)}, true
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		p.pos = start
		return NumberValue{}, false
	}
	if neg {
		v = -v
	}
	return NumberValue{Kind: NumberInt32, Int: int32(v)}, true
}

func (p *parser) readNumericRun() string {
	start := p.pos
	for !p.eof() && unicode.IsDigit(rune(p.peek())) {
		p.advance()
	}
	if p.peek() == '.' {
		p.advance()
		for !p.eof() && unicode.IsDigit(rune(p.peek())) {
			p.advance()
		}
	}
	if p.peek() == 'e' || p.peek() == 'E' {
		save := p.pos
		p.advance()
		if p.peek() == '+' || p.peek() == '-' {
			p.advance()
		}
		if unicode.IsDigit(rune(p.peek())) {
			for !p.eof() && unicode.IsDigit(rune(p.peek())) {
				p.advance()
			}
		} else {
			p.pos = save
		}
	}
	return p.src[start:p.pos]
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// parseArrayItems parses "{ item, item, ... }" after a "[] ="/"[] +="
// prefix has already been consumed up to (but not including) the '{'.
func (p *parser) parseArrayItems() []Item {
	p.skipWS()
	if p.peek() != '{' {
		return nil
	}
	p.advance()
	var items []Item
	for {
		p.skipWS()
		if p.eof() || p.peek() == '}' {
			break
		}
		items = append(items, p.parseItem())
		p.skipWS()
		if p.peek() == ',' {
			p.advance()
			continue
		}
		if p.peek() == '}' {
			break
		}
		// Malformed item: recover by skipping to the next ',' or '}'.
		for !p.eof() && p.peek() != ',' && p.peek() != '}' {
			p.advance()
		}
		if p.peek() == ',' {
			p.advance()
		}
	}
	if p.peek() == '}' {
		p.advance()
	}
	return items
}

func (p *parser) parseItem() Item {
	p.skipWS()
	start := p.here()
	switch p.peek() {
	case '{':
		p.advance()
		nested := p.parseArrayItemsInner()
		return ArrayItem{Items: nested, Pos: diag.Position{Start: start, End: p.here(), File: p.file}}
	case '"', '\'':
		text := p.parseQuoted()
		return StrItem{Text: text, Pos: diag.Position{Start: start, End: p.here(), File: p.file}}
	}
	if n, ok := p.tryParseNumber(); ok {
		return NumberItem{Kind: n.Kind, Int: n.Int, Float: n.Float, Pos: diag.Position{Start: start, End: p.here(), File: p.file}}
	}
	// Invalid: consume one token's worth so the caller's recovery loop
	// can resynchronize on the next delimiter.
	if !p.eof() {
		p.advance()
	}
	return InvalidItem{Pos: diag.Position{Start: start, End: p.here(), File: p.file}}
}

// parseArrayItemsInner parses items up to a matching '}' that this
// call itself consumes, used for nested array items (the '{' has
// already been consumed by the caller).
func (p *parser) parseArrayItemsInner() []Item {
	var items []Item
	for {
		p.skipWS()
		if p.eof() || p.peek() == '}' {
			break
		}
		items = append(items, p.parseItem())
		p.skipWS()
		if p.peek() == ',' {
			p.advance()
			continue
		}
		if p.peek() == '}' {
			break
		}
		for !p.eof() && p.peek() != ',' && p.peek() != '}' {
			p.advance()
		}
		if p.peek() == ',' {
			p.advance()
		}
	}
	if p.peek() == '}' {
		p.advance()
	}
	return items
}
