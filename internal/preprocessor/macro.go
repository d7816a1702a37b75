package preprocessor

import "github.com/hemtt-go/hemtt/internal/diag"

// Definition is a parsed #define: either object-like (Params == nil) or
// function-like (Params holds the formal parameter names, possibly empty
// for "NAME()").
type Definition struct {
	Name   string
	Params []string
	Body   []Token
	Pos    diag.Position
}

func (d *Definition) isFunctionLike() bool { return d.Params != nil }

// forbiddenIdents are identifiers the preprocessor refuses to expand
// because they name a built-in the toolchain does not emulate (spec
// §4.C "Built-in macros are out of scope").
var forbiddenIdents = map[string]bool{
	"__EXEC": true,
	"__EVAL": true,
}

// substituteArgs replaces, in body, any Word token matching a formal
// parameter name with the corresponding supplied argument's tokens. A
// single-token argument substitutes directly; a multi-token argument is
// substituted as its full expansion wherever it's referenced, mirroring
// the original "single word aliases, multi-token becomes an unnamed
// define" distinction by always inlining the argument's tokens.
func substituteArgs(body []Token, params []string, args [][]Token) []Token {
	index := make(map[string]int, len(params))
	for i, p := range params {
		index[p] = i
	}

	var out []Token
	for i := 0; i < len(body); i++ {
		tok := body[i]

		// Stringizing: "#" immediately followed by a parameter name.
		if pn, ok := isPunct(tok, '#'); ok && pn {
			if i+1 < len(body) {
				if w, ok := body[i+1].Word(); ok {
					if argIdx, found := index[w]; found {
						text := renderTokens(args[argIdx])
						out = append(out, Token{Symbol: Word("\"" + text + "\""), Pos: body[i].Pos})
						i++
						continue
					}
				}
			}
		}

		// Token pasting: WORD "##" WORD (only between Word-compatible
		// tokens; either side may be a parameter).
		if i+2 < len(body) {
			if _, lp, rp, ok := tokenPasteAt(body, i); ok {
				left := pasteOperand(body[lp], index, args)
				right := pasteOperand(body[rp], index, args)
				pasted := left + right
				out = append(out, Token{Symbol: Word(pasted), Pos: body[i].Pos})
				i = rp
				continue
			}
		}

		if w, ok := tok.Word(); ok {
			if argIdx, found := index[w]; found {
				out = append(out, args[argIdx]...)
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}

func pasteOperand(t Token, index map[string]int, args [][]Token) string {
	if w, ok := t.Word(); ok {
		if argIdx, found := index[w]; found {
			return renderTokens(args[argIdx])
		}
	}
	return t.Text()
}

// tokenPasteAt reports whether body[i] and body[i+3] are joined by a
// "##" paste operator spelled by the two "#" tokens at body[i+1] and
// body[i+2], returning the operand indices.
func tokenPasteAt(body []Token, i int) (mid, left, right int, ok bool) {
	if i+3 >= len(body) {
		return 0, 0, 0, false
	}
	p1, ok1 := isPunct(body[i+1], '#')
	p2, ok2 := isPunct(body[i+2], '#')
	if ok1 && ok2 && p1 && p2 {
		return i + 1, i, i + 3, true
	}
	return 0, 0, 0, false
}

func isPunct(t Token, r rune) (bool, bool) {
	p, ok := t.Symbol.(Punct)
	if !ok {
		return false, false
	}
	return rune(p) == r, true
}

func renderTokens(toks []Token) string {
	var out []byte
	for _, t := range toks {
		out = append(out, []byte(t.Text())...)
	}
	return string(out)
}
