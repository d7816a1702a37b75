// Package paa implements the proprietary mip-mapped texture format
// (spec §4.H): a 2-byte magic selecting the pixel format, GGAT-tagged
// metadata records, an SFFO mipmap offset table, and per-mipmap
// bodies framed with either the custom LZ77 codec (always, for
// non-DXT formats) or the historic LZSS codec (optionally, for DXT
// formats). DXT block (de)compression and the uncompressed pixel
// conversions are hand-written over RGBA8 byte slices and do not use
// image/color: no library in the examples pack implements S3TC/BCn
// encoding (DESIGN.md).
package paa

import (
	"fmt"

	"github.com/hemtt-go/hemtt/internal/herrors"
)

// Format identifies a texture's pixel encoding (spec §4.H table).
type Format uint8

const (
	FormatDXT1 Format = iota
	FormatDXT2
	FormatDXT3
	FormatDXT4
	FormatDXT5
	FormatARGB4444
	FormatARGB1555
	FormatARGB8888
	FormatGRAYA
)

// magicBytes maps each format to its 2-byte little-endian file magic.
var magicBytes = map[Format][2]byte{
	FormatDXT1:     {1, 255},
	FormatDXT2:     {2, 255},
	FormatDXT3:     {3, 255},
	FormatDXT4:     {4, 255},
	FormatDXT5:     {5, 255},
	FormatARGB4444: {68, 68},
	FormatARGB1555: {85, 21},
	FormatARGB8888: {136, 136},
	FormatGRAYA:    {128, 128},
}

// FormatFromBytes resolves a 2-byte file magic to a Format.
func FormatFromBytes(b [2]byte) (Format, bool) {
	for f, m := range magicBytes {
		if m == b {
			return f, true
		}
	}
	return 0, false
}

// Bytes returns f's 2-byte little-endian file magic.
func (f Format) Bytes() [2]byte { return magicBytes[f] }

// IsDXT reports whether f is one of the block-compressed DXT formats.
func (f Format) IsDXT() bool {
	switch f {
	case FormatDXT1, FormatDXT2, FormatDXT3, FormatDXT4, FormatDXT5:
		return true
	default:
		return false
	}
}

func (f Format) String() string {
	switch f {
	case FormatDXT1:
		return "DXT1"
	case FormatDXT2:
		return "DXT2"
	case FormatDXT3:
		return "DXT3"
	case FormatDXT4:
		return "DXT4"
	case FormatDXT5:
		return "DXT5"
	case FormatARGB4444:
		return "ARGB4444"
	case FormatARGB1555:
		return "ARGB1555"
	case FormatARGB8888:
		return "ARGB8888"
	case FormatGRAYA:
		return "GRAYA"
	default:
		return "unknown"
	}
}

// blockDim returns how many 4-pixel DXT blocks cover n pixels (n/4
// rounded up).
func blockDim(n int) int {
	return (n + 3) / 4
}

// ImageSize returns the number of raw (pre-LZ) bytes format f occupies
// at width x height (spec §4.H, per-format encoding column).
func (f Format) ImageSize(width, height int) int {
	switch f {
	case FormatDXT1:
		return blockDim(width) * blockDim(height) * 8
	case FormatDXT3, FormatDXT5:
		return blockDim(width) * blockDim(height) * 16
	case FormatARGB4444, FormatARGB1555:
		return width * height * 2
	case FormatARGB8888:
		return width * height * 4
	case FormatGRAYA:
		return width * height
	default:
		return 0
	}
}

// Compress converts an RGBA8 image (width*height*4 bytes, row-major)
// into format f's native encoding.
func (f Format) Compress(rgba []byte, width, height int) ([]byte, error) {
	switch f {
	case FormatDXT1:
		return compressDXT1(rgba, width, height), nil
	case FormatDXT3:
		return compressDXT3(rgba, width, height), nil
	case FormatDXT5:
		return compressDXT5(rgba, width, height), nil
	case FormatARGB4444:
		return compressARGB4444(rgba, width, height), nil
	case FormatARGB1555:
		return compressARGB1555(rgba, width, height), nil
	case FormatARGB8888:
		return compressARGB8888(rgba, width, height), nil
	case FormatGRAYA:
		return compressGRAYA(rgba, width, height), nil
	default:
		return nil, herrors.NewCodecError("unknown-format", fmt.Errorf("format %v has no compressor", f))
	}
}

// Decompress converts format f's native encoding back into RGBA8,
// writing width*height*4 bytes to out.
func (f Format) Decompress(data []byte, width, height int, out []byte) error {
	switch f {
	case FormatDXT1:
		decompressDXT1(data, width, height, out)
	case FormatDXT3:
		decompressDXT3(data, width, height, out)
	case FormatDXT5:
		decompressDXT5(data, width, height, out)
	case FormatARGB4444:
		decompressARGB4444(data, width, height, out)
	case FormatARGB1555:
		decompressARGB1555(data, width, height, out)
	case FormatARGB8888:
		decompressARGB8888(data, width, height, out)
	case FormatGRAYA:
		decompressGRAYA(data, width, height, out)
	default:
		return herrors.NewCodecError("unknown-format", fmt.Errorf("format %v has no decompressor", f))
	}
	return nil
}
