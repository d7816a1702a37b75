package rapify

import (
	"bufio"
	"bytes"
	"io"
)

// This file is the binary emitter/reader for rapified configs, grounded
// byte-for-byte on the real rapifier: a two-pass scheme where
// rapifiedLength first computes exactly how many bytes a class's body
// will occupy so that nested class offsets can be written before the
// nested bodies themselves are emitted, followed by writeRapified doing
// the actual write using those precomputed offsets.

func arrayElementLength(e ArrayElement) int {
	switch v := e.(type) {
	case AEStr:
		return len(v.S) + 2
	case AEFloat:
		return 5
	case AEInt:
		return 5
	case AEArray:
		n := 1 + compressedIntLen(uint32(len(v.A.Elements)))
		for _, el := range v.A.Elements {
			n += arrayElementLength(el)
		}
		return n
	default:
		return 0
	}
}

func arrayLength(a RArray) int {
	n := compressedIntLen(uint32(len(a.Elements)))
	for _, e := range a.Elements {
		n += 1 + arrayElementLengthBody(e)
	}
	return n
}

// arrayElementLengthBody is the element's length excluding its own type
// byte (arrayElementLength already folds that in for nested arrays, so
// this only differs for the direct children of an Array, matching the
// asymmetry in the Rust source between ArrayElement::rapified_length
// and Array::write_rapified's inline "+1" for the type byte).
func arrayElementLengthBody(e ArrayElement) int {
	switch v := e.(type) {
	case AEStr:
		return len(v.S) + 1
	case AEFloat:
		return 4
	case AEInt:
		return 4
	case AEArray:
		return arrayLength(v.A)
	default:
		return 0
	}
}

func writeArrayRapified(w io.Writer, a RArray) (int, error) {
	written, err := writeCompressedInt(w, uint32(len(a.Elements)))
	if err != nil {
		return written, err
	}
	for _, el := range a.Elements {
		switch v := el.(type) {
		case AEStr:
			if _, err := w.Write([]byte{0}); err != nil {
				return written, err
			}
			if err := writeCString(w, v.S); err != nil {
				return written, err
			}
			written += len(v.S) + 2
		case AEFloat:
			if _, err := w.Write([]byte{1}); err != nil {
				return written, err
			}
			if err := writeF32(w, v.F); err != nil {
				return written, err
			}
			written += 5
		case AEInt:
			if _, err := w.Write([]byte{2}); err != nil {
				return written, err
			}
			if err := writeI32(w, v.I); err != nil {
				return written, err
			}
			written += 5
		case AEArray:
			if _, err := w.Write([]byte{3}); err != nil {
				return written, err
			}
			n, err := writeArrayRapified(w, v.A)
			if err != nil {
				return written, err
			}
			written += 1 + n
		}
	}
	return written, nil
}

func readArrayRapified(c *cursor) (RArray, error) {
	n, err := c.readCompressedInt()
	if err != nil {
		return RArray{}, err
	}
	elements := make([]ArrayElement, 0, n)
	for i := uint32(0); i < n; i++ {
		typ, err := c.readByte()
		if err != nil {
			return RArray{}, err
		}
		switch typ {
		case 0:
			s, err := c.readCString()
			if err != nil {
				return RArray{}, err
			}
			elements = append(elements, AEStr{S: s})
		case 1:
			f, err := c.readF32()
			if err != nil {
				return RArray{}, err
			}
			elements = append(elements, AEFloat{F: f})
		case 2:
			v, err := c.readI32()
			if err != nil {
				return RArray{}, err
			}
			elements = append(elements, AEInt{I: v})
		case 3:
			nested, err := readArrayRapified(c)
			if err != nil {
				return RArray{}, err
			}
			elements = append(elements, AEArray{A: nested})
		default:
			return RArray{}, errInvalidInput("unrecognized array element type: %d", typ)
		}
	}
	return RArray{Elements: elements}, nil
}

// entryLength is an REntry's rapified length, not including its name.
func entryLength(e REntry) int {
	switch v := e.(type) {
	case REString:
		return len(v.S) + 3
	case REFloat:
		return 6
	case REInt:
		return 6
	case REArrayEntry:
		n := 1 + arrayLength(v.A)
		if v.A.Expand {
			n += 4
		}
		return n
	case REClassEntry:
		if v.C.External || v.C.Deletion {
			return 1
		}
		return 5
	case REInvisible:
		return 0
	default:
		return 0
	}
}

// classLength computes a class body's total rapified length, including
// every nested class body it owns, mirroring Class::rapified_length.
func classLength(c *RClass) int {
	if len(c.Entries) == 0 {
		return 0
	}
	n := len(c.Parent) + 1 + compressedIntLen(uint32(len(c.Entries)))
	for _, ne := range c.Entries {
		n += len(ne.Name) + 1 + entryLength(ne.Entry)
		if ce, ok := ne.Entry.(REClassEntry); ok && !ce.C.External && !ce.C.Deletion {
			n += classLength(ce.C)
		}
	}
	return n
}

// writeClassRapified writes c's body at the current position of w,
// which the caller guarantees starts at byte offset `offset` in the
// whole output. Nested non-external, non-deletion class bodies are
// buffered into their own in-memory cursors and appended after every
// direct entry has been written, so that each nested class's forward
// offset (written inline as a u32 before its entries) is known in
// advance from classLength.
func writeClassRapified(w io.Writer, c *RClass, offset int) (int, error) {
	written := 0
	if len(c.Entries) == 0 {
		return 0, nil
	}

	if err := writeCString(w, c.Parent); err != nil {
		return written, err
	}
	written += len(c.Parent) + 1

	n, err := writeCompressedInt(w, uint32(len(c.Entries)))
	if err != nil {
		return written, err
	}
	written += n

	entriesLen := 0
	for _, ne := range c.Entries {
		entriesLen += len(ne.Name) + 1 + entryLength(ne.Entry)
	}
	classOffset := offset + written + entriesLen

	type pending struct{ buf *bytes.Buffer }
	var classBodies []pending

	for _, ne := range c.Entries {
		name := ne.Name
		switch v := ne.Entry.(type) {
		case REString:
			if _, err := w.Write([]byte{1, 0}); err != nil {
				return written, err
			}
			if err := writeCString(w, name); err != nil {
				return written, err
			}
			if err := writeCString(w, v.S); err != nil {
				return written, err
			}
			written += len(name) + len(v.S) + 4
		case REFloat:
			if _, err := w.Write([]byte{1, 1}); err != nil {
				return written, err
			}
			if err := writeCString(w, name); err != nil {
				return written, err
			}
			if err := writeF32(w, v.F); err != nil {
				return written, err
			}
			written += len(name) + 7
		case REInt:
			if _, err := w.Write([]byte{1, 2}); err != nil {
				return written, err
			}
			if err := writeCString(w, name); err != nil {
				return written, err
			}
			if err := writeI32(w, v.I); err != nil {
				return written, err
			}
			written += len(name) + 7
		case REArrayEntry:
			if v.A.Expand {
				if _, err := w.Write([]byte{5}); err != nil {
					return written, err
				}
				if err := writeU32(w, 1); err != nil {
					return written, err
				}
				written += 4
			} else {
				if _, err := w.Write([]byte{2}); err != nil {
					return written, err
				}
			}
			if err := writeCString(w, name); err != nil {
				return written, err
			}
			an, err := writeArrayRapified(w, v.A)
			if err != nil {
				return written, err
			}
			written += len(name) + 2 + an
		case REClassEntry:
			if v.C.External || v.C.Deletion {
				tag := byte(3)
				if v.C.Deletion {
					tag = 4
				}
				if _, err := w.Write([]byte{tag}); err != nil {
					return written, err
				}
				if err := writeCString(w, name); err != nil {
					return written, err
				}
				written += len(name) + 2
			} else {
				if _, err := w.Write([]byte{0}); err != nil {
					return written, err
				}
				if err := writeCString(w, name); err != nil {
					return written, err
				}
				if err := writeU32(w, uint32(classOffset)); err != nil {
					return written, err
				}
				written += len(name) + 6

				buf := &bytes.Buffer{}
				buf.Grow(classLength(v.C))
				bodyLen, err := writeClassRapified(buf, v.C, classOffset)
				if err != nil {
					return written, err
				}
				classOffset += bodyLen
				classBodies = append(classBodies, pending{buf: buf})
			}
		case REInvisible:
			// Contributes nothing.
		}
	}

	for _, p := range classBodies {
		if _, err := w.Write(p.buf.Bytes()); err != nil {
			return written, err
		}
		written += p.buf.Len()
	}

	return written, nil
}


// readClassRapified mirrors Class::read_rapified exactly: at level 0 it
// reads the root body starting right after the 16-byte header; at
// deeper levels it first reads a forward u32 offset, seeks there to
// read the class body, then restores the cursor to just past the
// offset field so sibling entries keep parsing in order. This is why
// reading needs random access (a cursor over the whole file) rather
// than a single forward-only stream: nested bodies are physically
// appended after every entry at their level, not inline.
func readClassRapified(c *cursor, level int) (*RClass, error) {
	var fp int
	if level == 0 {
		if err := c.seek(16); err != nil {
			return nil, err
		}
	} else {
		bodyOffset, err := c.readU32()
		if err != nil {
			return nil, err
		}
		fp = c.pos
		if err := c.seek(int(bodyOffset)); err != nil {
			return nil, err
		}
	}

	parent, err := c.readCString()
	if err != nil {
		return nil, err
	}
	numEntries, err := c.readCompressedInt()
	if err != nil {
		return nil, err
	}

	cls := &RClass{Parent: parent}
	for i := uint32(0); i < numEntries; i++ {
		typ, err := c.readByte()
		if err != nil {
			return nil, err
		}
		switch typ {
		case 0:
			name, err := c.readCString()
			if err != nil {
				return nil, err
			}
			child, err := readClassRapified(c, level+1)
			if err != nil {
				return nil, err
			}
			cls.Entries = append(cls.Entries, NamedEntry{Name: name, Entry: REClassEntry{C: child}})
		case 1:
			subtype, err := c.readByte()
			if err != nil {
				return nil, err
			}
			name, err := c.readCString()
			if err != nil {
				return nil, err
			}
			switch subtype {
			case 0:
				s, err := c.readCString()
				if err != nil {
					return nil, err
				}
				cls.Entries = append(cls.Entries, NamedEntry{Name: name, Entry: REString{S: s}})
			case 1:
				f, err := c.readF32()
				if err != nil {
					return nil, err
				}
				cls.Entries = append(cls.Entries, NamedEntry{Name: name, Entry: REFloat{F: f}})
			case 2:
				v, err := c.readI32()
				if err != nil {
					return nil, err
				}
				cls.Entries = append(cls.Entries, NamedEntry{Name: name, Entry: REInt{I: v}})
			default:
				return nil, errInvalidInput("unrecognized variable entry subtype: %d", subtype)
			}
		case 2, 5:
			if typ == 5 {
				if err := c.discard(4); err != nil {
					return nil, err
				}
			}
			name, err := c.readCString()
			if err != nil {
				return nil, err
			}
			arr, err := readArrayRapified(c)
			if err != nil {
				return nil, err
			}
			arr.Expand = typ == 5
			cls.Entries = append(cls.Entries, NamedEntry{Name: name, Entry: REArrayEntry{A: arr}})
		case 3, 4:
			name, err := c.readCString()
			if err != nil {
				return nil, err
			}
			child := &RClass{External: typ == 3, Deletion: typ == 4}
			cls.Entries = append(cls.Entries, NamedEntry{Name: name, Entry: REClassEntry{C: child}})
		default:
			return nil, errInvalidInput("unrecognized class entry type: %d", typ)
		}
	}

	if level > 0 {
		if err := c.seek(fp); err != nil {
			return nil, err
		}
	}
	return cls, nil
}

// WriteConfig writes cfg's 16-byte header (magic, fixed bytes and the
// enum-table offset), the root class body, and the 4-byte empty enum
// table that offset points at, matching the real rapifier's
// Config::write_rapified.
func WriteConfig(w io.Writer, cfg *RConfig) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write([]byte("\x00raP")); err != nil {
		return err
	}
	if _, err := bw.Write([]byte{0, 0, 0, 0, 0x08, 0, 0, 0}); err != nil {
		return err
	}

	body := &bytes.Buffer{}
	body.Grow(classLength(cfg.Root))
	if _, err := writeClassRapified(body, cfg.Root, 16); err != nil {
		return err
	}

	enumOffset := uint32(16 + body.Len())
	if err := writeU32(bw, enumOffset); err != nil {
		return err
	}
	if _, err := bw.Write(body.Bytes()); err != nil {
		return err
	}
	if _, err := bw.Write([]byte{0, 0, 0, 0}); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadConfig parses a rapified binary config, verifying the "\0raP"
// magic before descending into the root class. The whole input is read
// into memory first since the format requires random-access seeking
// between a class's entries and the nested bodies appended after them.
func ReadConfig(r io.Reader) (*RConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 || string(data[:4]) != "\x00raP" {
		return nil, errInvalidInput("file doesn't seem to be a rapified config")
	}
	c := newCursor(data)
	root, err := readClassRapified(c, 0)
	if err != nil {
		return nil, err
	}
	return &RConfig{Root: root}, nil
}
