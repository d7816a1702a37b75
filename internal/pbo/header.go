// Package pbo implements the addon archive container: header table,
// file bodies, and SHA-1 trailer (spec §4.F).
package pbo

import (
	"encoding/binary"
	"io"
	"strings"
	"time"
)

// extensionMethod is the packing-method value BI tooling writes into
// the first header record to mark it as the extension-table header
// rather than a file entry (original_source/hemtt-pbo/src/pbo/writing.rs).
const extensionMethod uint32 = 0x5665_7273

// Timestamp is a PBO header's mtime field: seconds since the Unix
// epoch, truncated to fit the format's u32.
type Timestamp uint32

func TimestampFromTime(t time.Time) Timestamp { return Timestamp(t.Unix()) }

func (t Timestamp) Time() time.Time { return time.Unix(int64(t), 0).UTC() }

// Header is one entry in a PBO's header table: either the leading
// extension-table marker, a file entry, or the trailing sentinel
// (spec §3 "Container").
type Header struct {
	Filename string
	Method   uint32
	Original uint32
	Reserved uint32
	Mtime    Timestamp
	Size     uint32
}

// IsExtensionMarker reports whether h is the synthetic header that
// precedes the extension key/value table.
func (h Header) IsExtensionMarker() bool { return h.Method == extensionMethod }

// IsSentinel reports whether h is the null header terminating the
// header table.
func (h Header) IsSentinel() bool { return h.Method == 0 && h.Filename == "" }

func (h Header) write(w io.Writer) error {
	if err := writeCString(w, backslash(h.Filename)); err != nil {
		return err
	}
	for _, v := range [...]uint32{h.Method, h.Original, h.Reserved, uint32(h.Mtime), h.Size} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readHeader(r *cursor) (Header, error) {
	filename, err := r.readCString()
	if err != nil {
		return Header{}, err
	}
	var fields [5]uint32
	for i := range fields {
		fields[i], err = r.readU32()
		if err != nil {
			return Header{}, err
		}
	}
	return Header{
		Filename: filename,
		Method:   fields[0],
		Original: fields[1],
		Reserved: fields[2],
		Mtime:    Timestamp(fields[3]),
		Size:     fields[4],
	}, nil
}

// backslash normalizes a path's separators to the backslashes BI
// tooling stores PBO entry names with.
func backslash(filename string) string { return strings.ReplaceAll(filename, "/", "\\") }
