// Package preprocessor implements the C-style, source-map-preserving
// macro preprocessor (spec §4.C): tokenize, expand directives and
// macros, and emit a flat string plus a mapping back to original source.
package preprocessor

import "github.com/hemtt-go/hemtt/internal/diag"

// Symbol is a closed tagged union over the lexical categories a Token
// can carry (spec §3 "Token"). The set is closed, so it is modeled as an
// interface with an unexported marker method rather than an open
// capability interface (spec §9 "Polymorphism").
type Symbol interface {
	symbol()
}

type Word string
type Alpha rune
type Digit uint64

// Punct is one of the structural punctuation characters named in spec §3.
type Punct rune

type WhitespaceKind int

const (
	WSSpace WhitespaceKind = iota
	WSTab
)

type Whitespace struct{ Kind WhitespaceKind }

type Newline struct{}
type Comment string
type Unicode string
type EOI struct{}

func (Word) symbol()       {}
func (Alpha) symbol()      {}
func (Digit) symbol()      {}
func (Punct) symbol()      {}
func (Whitespace) symbol() {}
func (Newline) symbol()    {}
func (Comment) symbol()    {}
func (Unicode) symbol()    {}
func (EOI) symbol()        {}

// Token pairs a Symbol with the source position it came from. Tokens are
// shared by reference after creation and never mutated.
type Token struct {
	Symbol Symbol
	Pos    diag.Position
}

// IsWhitespace reports whether the token is whitespace (not newline).
func (t Token) IsWhitespace() bool {
	_, ok := t.Symbol.(Whitespace)
	return ok
}

// IsNewline reports whether the token is a newline.
func (t Token) IsNewline() bool {
	_, ok := t.Symbol.(Newline)
	return ok
}

// Word returns the token's word text and whether it is a Word token.
func (t Token) Word() (string, bool) {
	w, ok := t.Symbol.(Word)
	return string(w), ok
}

// Text renders the token back to its literal source text.
func (t Token) Text() string {
	switch s := t.Symbol.(type) {
	case Word:
		return string(s)
	case Alpha:
		return string(rune(s))
	case Digit:
		return uintToString(uint64(s))
	case Punct:
		return string(rune(s))
	case Whitespace:
		if s.Kind == WSTab {
			return "\t"
		}
		return " "
	case Newline:
		return "\n"
	case Comment:
		return string(s)
	case Unicode:
		return string(s)
	case EOI:
		return ""
	}
	return ""
}

func uintToString(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
