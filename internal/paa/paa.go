package paa

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hemtt-go/hemtt/internal/herrors"
)

// mipmapLZSSFlag is bit 15 of a DXT mipmap's stored width: when set,
// the mipmap body is LZSS-framed rather than stored raw (spec §4.H).
// Non-DXT formats are always LZ77-framed regardless of this bit.
const mipmapLZSSFlag = 1 << 15

// sffoSlots is the fixed number of offset entries the "SFFO" tagg
// reserves, matching the real format's hard-coded 16-level mipmap
// chain (a texture with more mip levels than this is not produced by
// any real content; ported as-is from original_source/libs/paa/src/paa.rs).
const sffoSlots = 16

// MipMap is one mip level's stored (possibly compressed) body plus the
// dimensions it was encoded at.
type MipMap struct {
	Width  uint16 // raw on-disk width; the LZSS flag bit may be set for DXT formats
	Height uint16
	Data   []byte
	Format Format
}

// ActualWidth strips the LZSS flag bit from Width, if set.
func (m MipMap) ActualWidth() uint16 {
	if m.Format.IsDXT() && m.Width&mipmapLZSSFlag != 0 {
		return m.Width &^ mipmapLZSSFlag
	}
	return m.Width
}

// IsCompressed reports whether Data needs decompressing before the
// format's pixel decoder can read it: always true for non-DXT formats
// (LZ77), true for DXT formats only when the LZSS flag bit is set.
func (m MipMap) IsCompressed() bool {
	return !m.Format.IsDXT() || m.Width&mipmapLZSSFlag != 0
}

// readMipMap reads one mipmap record: u16 width, u16 height, u24
// little-endian body length, then the body itself.
func readMipMap(r io.Reader, format Format) (MipMap, error) {
	width, err := readU16(r)
	if err != nil {
		return MipMap{}, herrors.NewCodecError("mipmap-width", err)
	}
	height, err := readU16(r)
	if err != nil {
		return MipMap{}, herrors.NewCodecError("mipmap-height", err)
	}
	length, err := readU24(r)
	if err != nil {
		return MipMap{}, herrors.NewCodecError("mipmap-length", err)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return MipMap{}, herrors.NewCodecError("mipmap-body", err)
	}
	return MipMap{Width: width, Height: height, Data: data, Format: format}, nil
}

// Write emits the mipmap's on-disk record: u16 width, u16 height, u24
// body length, then the body.
func (m MipMap) Write(w io.Writer) error {
	if err := writeU16(w, m.Width); err != nil {
		return err
	}
	if err := writeU16(w, m.Height); err != nil {
		return err
	}
	if len(m.Data) >= 1<<24 {
		return herrors.NewCodecError("mipmap-too-large", fmt.Errorf("mipmap body of %d bytes exceeds the 24-bit length field", len(m.Data)))
	}
	if err := writeU24(w, uint32(len(m.Data))); err != nil {
		return err
	}
	_, err := w.Write(m.Data)
	return err
}

// Decode reverses whatever framing the mipmap was stored with (LZSS
// for flagged DXT bodies, LZ77 for every non-DXT body) and decodes the
// resulting pixels into RGBA8.
func (m MipMap) Decode() ([]byte, error) {
	width := int(m.ActualWidth())
	height := int(m.Height)
	raw := m.Data

	if m.IsCompressed() {
		decompressed := make([]byte, m.Format.ImageSize(width, height))
		var err error
		if m.Format.IsDXT() {
			err = DecompressLZSS(m.Data, decompressed)
		} else {
			err = DecompressLZ77(m.Data, decompressed)
		}
		if err != nil {
			return nil, herrors.NewCodecError("mipmap-decompress", err)
		}
		raw = decompressed
	}

	out := make([]byte, width*height*4)
	if err := m.Format.Decompress(raw, width, height, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Paa is a parsed texture file: its pixel format, an ordered table of
// named metadata records ("taggs"), and its mipmap chain (spec §4.H;
// spec.md §3 "paa.Paa{Format, Taggs, Mipmaps}").
type Paa struct {
	Format    Format
	Taggs     map[string][]byte
	TaggOrder []string // insertion order, since the binary layout is positional
	Mipmaps   []MipMap
}

// New returns an empty Paa of the given format.
func New(format Format) *Paa {
	return &Paa{Format: format, Taggs: make(map[string][]byte)}
}

// SetTagg records a named metadata record, preserving first-insertion
// order for later Write calls.
func (p *Paa) SetTagg(name string, data []byte) {
	if _, exists := p.Taggs[name]; !exists {
		p.TaggOrder = append(p.TaggOrder, name)
	}
	p.Taggs[name] = data
}

// Read parses a PAA file: the 2-byte format magic, a run of GGAT-tagged
// records (one of which, "SFFO", holds the mipmap offset table), then
// each mipmap read by seeking directly to its absolute offset (spec
// §4.H; original_source/libs/paa/src/paa.rs's `read`).
func Read(r io.ReadSeeker) (*Paa, error) {
	var magic [2]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, herrors.NewCodecError("read-magic", err)
	}
	format, ok := FormatFromBytes(magic)
	if !ok {
		return nil, herrors.NewCodecError("invalid-format", fmt.Errorf("unrecognized PAA magic %v", magic))
	}
	p := New(format)

	for {
		var sig [4]byte
		if _, err := io.ReadFull(r, sig[:]); err != nil {
			return nil, herrors.NewCodecError("read-tagg-sig", err)
		}
		if string(sig[:]) != "GGAT" {
			// Not a tagg: the taggs run has ended. These 4 bytes are
			// discarded; every mipmap is located via an absolute seek
			// off the SFFO offset table, never off the current
			// position, so nothing downstream needs them back.
			break
		}
		var name [4]byte
		if _, err := io.ReadFull(r, name[:]); err != nil {
			return nil, herrors.NewCodecError("read-tagg-name", err)
		}
		length, err := readU32(r)
		if err != nil {
			return nil, herrors.NewCodecError("read-tagg-length", err)
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, herrors.NewCodecError("read-tagg-body", err)
		}
		p.SetTagg(string(name[:]), data)
	}

	offsets, ok := p.Taggs["SFFO"]
	if !ok {
		return p, nil
	}
	for i := 0; i+4 <= len(offsets); i += 4 {
		seek := binary.LittleEndian.Uint32(offsets[i : i+4])
		if seek == 0 {
			continue
		}
		if _, err := r.Seek(int64(seek), io.SeekStart); err != nil {
			return nil, herrors.NewCodecError("mipmap-seek", err)
		}
		mip, err := readMipMap(r, format)
		if err != nil {
			return nil, err
		}
		p.Mipmaps = append(p.Mipmaps, mip)
	}
	return p, nil
}

// Write emits the PAA file: the format magic, every tagg except the
// synthesized "SFFO" offset table, the SFFO table itself, a 2-byte
// (always empty) index palette, every mipmap body in order, and the
// fixed 6-byte trailer (original_source/libs/paa/src/paa.rs's `write`).
func (p *Paa) Write(w io.Writer) error {
	magic := p.Format.Bytes()
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}

	offset := 2
	for _, name := range p.TaggOrder {
		if name == "SFFO" {
			continue
		}
		offset += 12 + len(p.Taggs[name])
	}
	offset += 12 + sffoSlots*4 // the SFFO tagg's own header + body
	offset += 2                // the index palette written after it

	for _, name := range p.TaggOrder {
		if name == "SFFO" {
			continue
		}
		data := p.Taggs[name]
		if err := writeTaggHeader(w, name, len(data)); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}

	if err := writeTaggHeader(w, "SFFO", sffoSlots*4); err != nil {
		return err
	}
	cur := uint32(offset)
	for i := 0; i < sffoSlots; i++ {
		if i < len(p.Mipmaps) {
			if err := writeU32(w, cur); err != nil {
				return err
			}
			cur += uint32(len(p.Mipmaps[i].Data)) + 7 // width+height+u24 length prefix
		} else {
			if err := writeU32(w, 0); err != nil {
				return err
			}
		}
	}

	if err := writeU16(w, 0); err != nil { // index palette
		return err
	}
	for _, m := range p.Mipmaps {
		if err := m.Write(w); err != nil {
			return err
		}
	}
	if err := writeU32(w, 0); err != nil {
		return err
	}
	return writeU16(w, 0)
}

func writeTaggHeader(w io.Writer, name string, length int) error {
	if _, err := w.Write([]byte("GGAT")); err != nil {
		return err
	}
	if _, err := w.Write([]byte(name)); err != nil {
		return err
	}
	return writeU32(w, uint32(length))
}

func readU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func readU24(r io.Reader) (uint32, error) {
	var buf [3]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16, nil
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU24(w io.Writer, v uint32) error {
	buf := [3]byte{byte(v), byte(v >> 8), byte(v >> 16)}
	_, err := w.Write(buf[:])
	return err
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}
