package sqf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

// Wire format (spec §4.E "a little-endian, length-prefixed
// serialization of the Compiled structure; optional zlib compression
// of the constants section controlled by a header flag"):
//
//	magic      [4]byte = "SQFC"
//	version    u8      = 1
//	flags      u8      bit0: constants section is zlib-deflated
//	entrypoint u16
//	names      u32 count, then each: u16 len + bytes
//	fileNames  u16 count, then each: u16 len + bytes
//	constants  u32 uncompressedLen, u32 storedLen, then storedLen bytes
//	           (the constants section, optionally deflated)
//	constCount u32     number of constants in that section
const (
	magic           = "SQFC"
	version         = 1
	flagCompressed  = 1 << 0
	compressMinSize = 256
)

// Serialize writes c in the on-disk compiled-script format.
func Serialize(c Compiled) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.WriteByte(version)

	var constants bytes.Buffer
	for _, k := range c.Constants {
		if err := writeConstant(&constants, k); err != nil {
			return nil, err
		}
	}
	flags := byte(0)
	stored := constants.Bytes()
	if constants.Len() >= compressMinSize {
		var compressed bytes.Buffer
		zw := zlib.NewWriter(&compressed)
		if _, err := zw.Write(constants.Bytes()); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		if compressed.Len() < constants.Len() {
			stored = compressed.Bytes()
			flags |= flagCompressed
		}
	}
	buf.WriteByte(flags)
	writeU16(&buf, c.EntrypointIndex)

	writeU32(&buf, uint32(len(c.Names)))
	for _, n := range c.Names {
		writeString16(&buf, n)
	}

	if len(c.FileNames) > 0xffff {
		return nil, newCompileError("list-too-long", "too many file names")
	}
	writeU16(&buf, uint16(len(c.FileNames)))
	for _, n := range c.FileNames {
		writeString16(&buf, n)
	}

	writeU32(&buf, uint32(constants.Len()))
	writeU32(&buf, uint32(len(stored)))
	buf.Write(stored)

	writeU32(&buf, uint32(len(c.Constants)))

	return buf.Bytes(), nil
}

// Deserialize parses the on-disk compiled-script format produced by
// Serialize.
func Deserialize(data []byte) (Compiled, error) {
	r := bytes.NewReader(data)
	hdr := make([]byte, 4)
	if _, err := io.ReadFull(r, hdr); err != nil || string(hdr) != magic {
		return Compiled{}, fmt.Errorf("sqf: bad magic")
	}
	v, err := r.ReadByte()
	if err != nil || v != version {
		return Compiled{}, fmt.Errorf("sqf: unsupported version %d", v)
	}
	flags, err := r.ReadByte()
	if err != nil {
		return Compiled{}, err
	}
	entrypoint, err := readU16(r)
	if err != nil {
		return Compiled{}, err
	}

	namesCount, err := readU32(r)
	if err != nil {
		return Compiled{}, err
	}
	names := make([]string, namesCount)
	for i := range names {
		names[i], err = readString16(r)
		if err != nil {
			return Compiled{}, err
		}
	}

	fileNamesCount, err := readU16(r)
	if err != nil {
		return Compiled{}, err
	}
	fileNames := make([]string, fileNamesCount)
	for i := range fileNames {
		fileNames[i], err = readString16(r)
		if err != nil {
			return Compiled{}, err
		}
	}

	uncompressedLen, err := readU32(r)
	if err != nil {
		return Compiled{}, err
	}
	storedLen, err := readU32(r)
	if err != nil {
		return Compiled{}, err
	}
	stored := make([]byte, storedLen)
	if _, err := io.ReadFull(r, stored); err != nil {
		return Compiled{}, err
	}
	constantsBytes := stored
	if flags&flagCompressed != 0 {
		zr, err := zlib.NewReader(bytes.NewReader(stored))
		if err != nil {
			return Compiled{}, err
		}
		buf := make([]byte, uncompressedLen)
		if _, err := io.ReadFull(zr, buf); err != nil {
			return Compiled{}, err
		}
		constantsBytes = buf
	}

	constantsCount, err := readU32(r)
	if err != nil {
		return Compiled{}, err
	}
	cr := bytes.NewReader(constantsBytes)
	constants := make([]Constant, constantsCount)
	for i := range constants {
		constants[i], err = readConstant(cr)
		if err != nil {
			return Compiled{}, err
		}
	}

	return Compiled{
		EntrypointIndex: entrypoint,
		Constants:       constants,
		Names:           names,
		FileNames:       fileNames,
	}, nil
}

func writeConstant(w *bytes.Buffer, c Constant) error {
	w.WriteByte(byte(c.Kind))
	switch c.Kind {
	case ConstCode:
		return writeInstructions(w, c.Code)
	case ConstString:
		writeString32(w, c.String)
	case ConstScalar:
		writeF32(w, c.Scalar)
	case ConstBoolean:
		if c.Boolean {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
	case ConstArray, ConstConsumableArray:
		writeU32(w, uint32(len(c.Array)))
		for _, item := range c.Array {
			if err := writeConstant(w, item); err != nil {
				return err
			}
		}
	case ConstNularCommand:
		writeString32(w, c.NularCmd)
	}
	return nil
}

func readConstant(r *bytes.Reader) (Constant, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return Constant{}, err
	}
	kind := ConstantKind(tag)
	switch kind {
	case ConstCode:
		instr, err := readInstructions(r)
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: kind, Code: instr}, nil
	case ConstString:
		s, err := readString32(r)
		return Constant{Kind: kind, String: s}, err
	case ConstScalar:
		v, err := readF32(r)
		return Constant{Kind: kind, Scalar: v}, err
	case ConstBoolean:
		b, err := r.ReadByte()
		return Constant{Kind: kind, Boolean: b != 0}, err
	case ConstArray, ConstConsumableArray:
		n, err := readU32(r)
		if err != nil {
			return Constant{}, err
		}
		items := make([]Constant, n)
		for i := range items {
			items[i], err = readConstant(r)
			if err != nil {
				return Constant{}, err
			}
		}
		return Constant{Kind: kind, Array: items}, nil
	case ConstNularCommand:
		s, err := readString32(r)
		return Constant{Kind: kind, NularCmd: s}, err
	default:
		return Constant{}, fmt.Errorf("sqf: unknown constant tag %d", tag)
	}
}

func writeInstructions(w *bytes.Buffer, instr Instructions) error {
	writeU32(w, uint32(len(instr.Contents)))
	for _, in := range instr.Contents {
		w.WriteByte(byte(in.Op))
		if in.Op == OpEndStatement {
			continue
		}
		writeU16(w, in.Operand)
		writeU32(w, in.Source.Offset)
		writeU16(w, in.Source.FileIndex)
		writeU16(w, in.Source.Line)
	}
	if instr.SourcePointer.IsConstant {
		w.WriteByte(1)
		writeU16(w, instr.SourcePointer.Constant)
	} else {
		w.WriteByte(0)
		writeU32(w, instr.SourcePointer.Offset)
		writeU32(w, instr.SourcePointer.Length)
	}
	return nil
}

func readInstructions(r *bytes.Reader) (Instructions, error) {
	n, err := readU32(r)
	if err != nil {
		return Instructions{}, err
	}
	contents := make([]Instruction, n)
	for i := range contents {
		op, err := r.ReadByte()
		if err != nil {
			return Instructions{}, err
		}
		in := Instruction{Op: InstructionOp(op)}
		if in.Op != OpEndStatement {
			if in.Operand, err = readU16(r); err != nil {
				return Instructions{}, err
			}
			if in.Source.Offset, err = readU32(r); err != nil {
				return Instructions{}, err
			}
			if in.Source.FileIndex, err = readU16(r); err != nil {
				return Instructions{}, err
			}
			if in.Source.Line, err = readU16(r); err != nil {
				return Instructions{}, err
			}
		}
		contents[i] = in
	}
	isConstant, err := r.ReadByte()
	if err != nil {
		return Instructions{}, err
	}
	var ptr CodePointer
	if isConstant != 0 {
		ptr.IsConstant = true
		if ptr.Constant, err = readU16(r); err != nil {
			return Instructions{}, err
		}
	} else {
		if ptr.Offset, err = readU32(r); err != nil {
			return Instructions{}, err
		}
		if ptr.Length, err = readU32(r); err != nil {
			return Instructions{}, err
		}
	}
	return Instructions{Contents: contents, SourcePointer: ptr}, nil
}

func writeU16(w *bytes.Buffer, v uint16) { _ = binary.Write(w, binary.LittleEndian, v) }
func writeU32(w *bytes.Buffer, v uint32) { _ = binary.Write(w, binary.LittleEndian, v) }
func writeF32(w *bytes.Buffer, v float32) { _ = binary.Write(w, binary.LittleEndian, v) }

func writeString16(w *bytes.Buffer, s string) {
	writeU16(w, uint16(len(s)))
	w.WriteString(s)
}

func writeString32(w *bytes.Buffer, s string) {
	writeU32(w, uint32(len(s)))
	w.WriteString(s)
}

func readU16(r io.Reader) (uint16, error) {
	var v uint16
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readF32(r io.Reader) (float32, error) {
	var v float32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readString16(r io.Reader) (string, error) {
	n, err := readU16(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readString32(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
