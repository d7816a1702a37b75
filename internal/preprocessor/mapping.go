package preprocessor

import "github.com/hemtt-go/hemtt/internal/diag"

// Mapping associates a byte range of the processed output with the
// original-source position it was produced from (spec §3 "mapping").
type Mapping struct {
	ProcessedRange [2]int
	Original       diag.Position
	WasMacro       bool
}

// Processed is the output of running the preprocessor over an entry
// file: the flattened text plus enough mapping data to translate any
// offset in it back to original source, and any warnings raised along
// the way (unknown directives, forbidden built-ins). Hitting a recursion
// limit is not a warning: Process returns it as an error.
type Processed struct {
	Text     string
	Mappings []Mapping
	Warnings []diag.Diagnostic
	NoRapify bool
}

// Mapping returns the mapping entry covering offset in the processed
// text, or false if offset falls outside any recorded range (e.g. in
// preprocessor-synthesized whitespace with no source counterpart).
func (p *Processed) Mapping(offset int) (Mapping, bool) {
	for _, m := range p.Mappings {
		if offset >= m.ProcessedRange[0] && offset < m.ProcessedRange[1] {
			return m, true
		}
	}
	return Mapping{}, false
}

// RawMapping returns the original, pre-expansion source position for a
// post-expansion offset, used by error rendering for config/script
// parse errors. Macro-expanded bytes are already recorded against their
// invocation site in the source file, so the covering mapping is the
// answer; its Original offsets are source-file offsets, not offsets
// into the processed text, and are not looked up again.
func (p *Processed) RawMapping(offset int) (Mapping, bool) {
	m, ok := p.Mapping(offset)
	if !ok {
		return Mapping{}, false
	}
	return m, true
}
