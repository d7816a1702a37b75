package preprocessor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hemtt-go/hemtt/internal/diag"
)

// lexer turns source text into a flat token stream with per-token
// positions, mirroring the grammar rules of the original pest-based
// tokenizer (word / digit / punct / whitespace / newline / comment).
type lexer struct {
	src  string
	file string
	pos  int // byte offset
	line int // 1-based
	col  int // 1-based
}

func newLexer(src, file string) *lexer {
	return &lexer{src: src, file: file, pos: 0, line: 1, col: 1}
}

func isWordStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isWordCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *lexer) here() diag.LineCol {
	return diag.LineCol{Offset: l.pos, Line: l.line, Col: l.col}
}

func (l *lexer) advance(r rune, size int) {
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *lexer) peekRune() (rune, int) {
	if l.pos >= len(l.src) {
		return 0, 0
	}
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	return r, size
}

// Tokenize lexes the full source, terminating with an EOI token.
func Tokenize(src, file string) []Token {
	l := newLexer(src, file)
	var toks []Token
	for {
		start := l.here()
		r, size := l.peekRune()
		if size == 0 {
			toks = append(toks, Token{Symbol: EOI{}, Pos: l.span(start)})
			return toks
		}

		switch {
		case r == '\n':
			l.advance(r, size)
			toks = append(toks, Token{Symbol: Newline{}, Pos: l.span(start)})

		case r == ' ' || r == '\t':
			kind := WSSpace
			if r == '\t' {
				kind = WSTab
			}
			l.advance(r, size)
			toks = append(toks, Token{Symbol: Whitespace{Kind: kind}, Pos: l.span(start)})

		case r == '/' && l.peekAt(1) == '/':
			text := l.readLineComment()
			toks = append(toks, Token{Symbol: Comment(text), Pos: l.span(start)})

		case r == '/' && l.peekAt(1) == '*':
			text := l.readBlockComment()
			toks = append(toks, Token{Symbol: Comment(text), Pos: l.span(start)})

		case isWordStart(r):
			text := l.readWord()
			toks = append(toks, Token{Symbol: Word(text), Pos: l.span(start)})

		case unicode.IsDigit(r):
			text := l.readDigits()
			toks = append(toks, Token{Symbol: Digit(parseDigits(text)), Pos: l.span(start)})

		case r > unicode.MaxASCII:
			l.advance(r, size)
			toks = append(toks, Token{Symbol: Unicode(string(r)), Pos: l.span(start)})

		default:
			l.advance(r, size)
			toks = append(toks, Token{Symbol: Punct(r), Pos: l.span(start)})
		}
	}
}

func (l *lexer) span(start diag.LineCol) diag.Position {
	return diag.Position{Start: start, End: l.here(), File: l.file}
}

func (l *lexer) peekAt(offset int) rune {
	p := l.pos
	for i := 0; i < offset && p < len(l.src); i++ {
		_, size := utf8.DecodeRuneInString(l.src[p:])
		p += size
	}
	if p >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[p:])
	return r
}

func (l *lexer) readWord() string {
	var b strings.Builder
	for {
		r, size := l.peekRune()
		if size == 0 || !isWordCont(r) {
			return b.String()
		}
		b.WriteRune(r)
		l.advance(r, size)
	}
}

func (l *lexer) readDigits() string {
	var b strings.Builder
	for {
		r, size := l.peekRune()
		if size == 0 || !unicode.IsDigit(r) {
			return b.String()
		}
		b.WriteRune(r)
		l.advance(r, size)
	}
}

func parseDigits(s string) uint64 {
	var v uint64
	for _, r := range s {
		v = v*10 + uint64(r-'0')
	}
	return v
}

// readLineComment consumes "// ... " up to but excluding the newline.
func (l *lexer) readLineComment() string {
	var b strings.Builder
	for {
		r, size := l.peekRune()
		if size == 0 || r == '\n' {
			return b.String()
		}
		b.WriteRune(r)
		l.advance(r, size)
	}
}

// readBlockComment consumes "/* ... */", including an unterminated block
// up to end of input.
func (l *lexer) readBlockComment() string {
	var b strings.Builder
	for {
		r, size := l.peekRune()
		if size == 0 {
			return b.String()
		}
		b.WriteRune(r)
		l.advance(r, size)
		if r == '*' && l.peekAt(0) == '/' {
			r2, size2 := l.peekRune()
			b.WriteRune(r2)
			l.advance(r2, size2)
			return b.String()
		}
	}
}
