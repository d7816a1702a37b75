package paa

import (
	"fmt"

	"github.com/hemtt-go/hemtt/internal/herrors"
)

// LZSS framing optionally wraps DXT mipmap bodies when bit 15 of the
// stored width is set (spec §4.H "LZSS frame"). No lzss.rs source
// file was retrieved into the example pack, so this is the
// well-known public-domain Haruhiko Okumura LZSS algorithm the spec
// text names directly ("historic lzss specification, 18-byte max
// match"): a 4096-byte sliding window seeded with spaces, one flag
// byte per 8 tokens (bit set = literal byte follows, bit clear = a
// 12-bit window position + 4-bit length follows), minimum match
// length 3.
const (
	lzssWindowSize = 4096
	lzssLookahead  = 18
	lzssThreshold  = 2
	lzssFillByte   = 0x20
)

// CompressLZSS encodes input using a brute-force match search over the
// sliding window (correctness over speed; the window is small).
func CompressLZSS(input []byte) []byte {
	if len(input) == 0 {
		return nil
	}
	window := make([]byte, lzssWindowSize)
	for i := range window {
		window[i] = lzssFillByte
	}
	windowPos := lzssWindowSize - lzssLookahead

	out := make([]byte, 0, len(input))
	var flagByte byte
	var mask byte = 1
	var pending []byte
	flush := func() {
		out = append(out, flagByte)
		out = append(out, pending...)
		pending = pending[:0]
		flagByte = 0
		mask = 1
	}

	pi := 0
	for pi < len(input) {
		matchLen, matchPos := findLZSSMatch(window, windowPos, input, pi)
		if matchLen > lzssThreshold {
			flagByte &^= mask
			pending = append(pending, byte(matchPos), byte(((matchPos>>4)&0xF0)|(matchLen-(lzssThreshold+1))))
		} else {
			matchLen = 1
			flagByte |= mask
			pending = append(pending, input[pi])
		}

		for k := 0; k < matchLen && pi < len(input); k++ {
			window[windowPos] = input[pi]
			windowPos = (windowPos + 1) % lzssWindowSize
			pi++
		}

		mask <<= 1
		if mask == 0 {
			flush()
		}
	}
	if mask != 1 {
		flush()
	}
	return out
}

// findLZSSMatch brute-force searches the ring buffer window for the
// longest match against input starting at pi, mirroring the classic
// tree-based search's semantics without its bookkeeping.
func findLZSSMatch(window []byte, windowPos int, input []byte, pi int) (length, pos int) {
	maxLen := lzssLookahead
	if remain := len(input) - pi; remain < maxLen {
		maxLen = remain
	}
	if maxLen < lzssThreshold+1 {
		return 0, 0
	}
	bestLen, bestPos := 0, 0
	for start := 0; start < lzssWindowSize; start++ {
		l := 0
		for l < maxLen && window[(start+l)%lzssWindowSize] == input[pi+l] {
			l++
		}
		if l > bestLen {
			bestLen, bestPos = l, start
		}
	}
	return bestLen, bestPos
}

// DecompressLZSS decodes exactly len(out) bytes from input.
func DecompressLZSS(input []byte, out []byte) error {
	window := make([]byte, lzssWindowSize)
	for i := range window {
		window[i] = lzssFillByte
	}
	r := lzssWindowSize - lzssLookahead

	pi := 0
	fl := 0
	outlen := len(out)
	var flags uint

	for fl < outlen {
		flags >>= 1
		if flags&0x100 == 0 {
			if pi >= len(input) {
				return herrors.NewCodecError("invalid-mipmap-size", fmt.Errorf("unexpected end of LZSS input"))
			}
			flags = uint(input[pi]) | 0xFF00
			pi++
		}
		if flags&1 != 0 {
			if pi >= len(input) {
				return herrors.NewCodecError("invalid-mipmap-size", fmt.Errorf("unexpected end of LZSS input during literal read"))
			}
			c := input[pi]
			pi++
			out[fl] = c
			fl++
			window[r] = c
			r = (r + 1) % lzssWindowSize
		} else {
			if pi+1 >= len(input) {
				return herrors.NewCodecError("invalid-mipmap-size", fmt.Errorf("unexpected end of LZSS input during back-reference read"))
			}
			i := int(input[pi])
			pi++
			j := int(input[pi])
			pi++
			i |= (j & 0xF0) << 4
			matchLen := (j & 0x0F) + lzssThreshold + 1
			for k := 0; k < matchLen && fl < outlen; k++ {
				c := window[(i+k)%lzssWindowSize]
				out[fl] = c
				fl++
				window[r] = c
				r = (r + 1) % lzssWindowSize
			}
		}
	}
	return nil
}

// worstCaseLZSS bounds the output size of CompressLZSS: one flag byte
// per 8 literal tokens plus the literals themselves.
func worstCaseLZSS(n int) int {
	return n + n/8 + 2
}
