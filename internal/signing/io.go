package signing

import (
	"encoding/binary"
	"io"
	"math/big"
)

func writeCString(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

// readCString reads one byte at a time so it never consumes bytes past
// the terminator, which matters because callers keep reading fixed-size
// fields from the same stream afterwards.
func readCString(r io.Reader) (string, error) {
	var buf []byte
	one := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, one); err != nil {
			return "", err
		}
		if one[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, one[0])
	}
}

func writeU32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

// writeBigUintLE writes v as width little-endian bytes, zero-padded if
// v is shorter than width (matching the reference's BigUint::from_bytes_le
// round trip).
func writeBigUintLE(w io.Writer, v *big.Int, width int) error {
	buf := make([]byte, width)
	be := v.Bytes()
	for i := 0; i < len(be) && i < width; i++ {
		buf[width-1-i] = be[len(be)-1-i]
	}
	_, err := w.Write(buf)
	return err
}

func readBigUintLE(r io.Reader, width int) (*big.Int, error) {
	buf := make([]byte, width)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	be := make([]byte, width)
	for i, b := range buf {
		be[width-1-i] = b
	}
	return new(big.Int).SetBytes(be), nil
}
