package pbo

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // the PBO trailer format is defined around SHA-1
	"fmt"
	"sort"
	"strings"

	"github.com/hemtt-go/hemtt/internal/herrors"
)

// extensionPair preserves insertion order for the header-table
// extension list, which the reference implementation stores in an
// IndexMap rather than a plain hash map (spec §4.F "extensions are
// written in insertion order, with `prefix` always first").
type extensionPair struct {
	Key   string
	Value string
}

// Writer builds a PBO container in memory, matching
// original_source/hemtt-pbo/src/pbo/writing.rs's WritablePbo.
type Writer struct {
	extensions []extensionPair
	files      map[string]fileEntry
}

type fileEntry struct {
	Header Header
	Data   []byte
}

func NewWriter() *Writer {
	return &Writer{files: make(map[string]fileEntry)}
}

// AddExtension adds or replaces a header-table extension, returning the
// previous value if one existed.
func (w *Writer) AddExtension(key, value string) (string, bool) {
	value = strings.Trim(value, `\`)
	for i, e := range w.extensions {
		if e.Key == key {
			old := e.Value
			w.extensions[i].Value = value
			return old, true
		}
	}
	w.extensions = append(w.extensions, extensionPair{Key: key, Value: value})
	return "", false
}

func (w *Writer) RemoveExtension(key string) (string, bool) {
	for i, e := range w.extensions {
		if e.Key == key {
			w.extensions = append(w.extensions[:i], w.extensions[i+1:]...)
			return e.Value, true
		}
	}
	return "", false
}

// AddFile adds or replaces a file entry, deriving its header from data's
// length (method 0: stored, uncompressed — spec §4.F "PBOs never
// compress file bodies").
func (w *Writer) AddFile(filename string, data []byte) {
	name := backslash(filename)
	w.files[name] = fileEntry{
		Header: Header{Filename: name, Size: uint32(len(data)), Original: uint32(len(data))},
		Data:   data,
	}
}

// AddFileHeader adds a file with a caller-supplied header, e.g. one
// round-tripped from a Reader so timestamps survive an edit.
func (w *Writer) AddFileHeader(filename string, data []byte, header Header) {
	name := backslash(filename)
	header.Filename = name
	w.files[name] = fileEntry{Header: header, Data: data}
}

func (w *Writer) RemoveFile(filename string) bool {
	name := backslash(filename)
	_, ok := w.files[name]
	delete(w.files, name)
	return ok
}

func (w *Writer) filesSorted() []fileEntry {
	out := make([]fileEntry, 0, len(w.files))
	for _, f := range w.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Header.Filename) < strings.ToLower(out[j].Header.Filename)
	})
	return out
}

func (w *Writer) headerTable() []byte {
	var headers bytes.Buffer

	extHeader := Header{Method: extensionMethod}
	_ = extHeader.write(&headers)

	if prefix, ok := w.extensionValue("prefix"); ok {
		headers.WriteString("prefix\x00")
		_ = writeCString(&headers, prefix)
	}
	for _, e := range w.extensions {
		if e.Key == "prefix" {
			continue
		}
		_ = writeCString(&headers, e.Key)
		_ = writeCString(&headers, e.Value)
	}
	headers.WriteByte(0)

	for _, f := range w.filesSorted() {
		_ = f.Header.write(&headers)
	}

	sentinel := Header{Method: 0}
	_ = sentinel.write(&headers)

	return headers.Bytes()
}

func (w *Writer) extensionValue(key string) (string, bool) {
	for _, e := range w.extensions {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Write serializes the container: header table, file bodies in sorted
// order, a single zero byte, then a 20-byte SHA-1 trailer over the
// header table and file bodies (spec §3 "Container", §8 scenario 5).
func (w *Writer) Write(out *bytes.Buffer) error {
	headers := w.headerTable()
	files := w.filesSorted()

	h := sha1.New() //nolint:gosec
	out.Write(headers)
	h.Write(headers)
	for _, f := range files {
		out.Write(f.Data)
		h.Write(f.Data)
	}
	out.WriteByte(0)
	out.Write(h.Sum(nil))
	return nil
}

// Checksum computes the trailer hash without writing the container,
// used by `hemtt utils pbo` style verification commands.
func (w *Writer) Checksum() []byte {
	headers := w.headerTable()
	h := sha1.New() //nolint:gosec
	h.Write(headers)
	for _, f := range w.filesSorted() {
		h.Write(f.Data)
	}
	return h.Sum(nil)
}

// Reader parses a PBO container, matching
// original_source/hemtt-pbo's ReadablePbo.
type Reader struct {
	Extensions []extensionPair
	headers    []Header
	files      map[string][]byte
	checksum   []byte
}

// Open parses data as a PBO container, verifying its trailing SHA-1
// hash.
func Open(data []byte) (*Reader, error) {
	if len(data) < 21 {
		return nil, herrors.NewArchiveError("too-short", fmt.Errorf("%d bytes is smaller than the minimum trailer", len(data)))
	}
	body := data[:len(data)-21]
	trailerMarker := data[len(data)-21]
	trailerHash := data[len(data)-20:]
	if trailerMarker != 0 {
		return nil, herrors.NewArchiveError("trailing-hash-mismatch", fmt.Errorf("expected a zero byte before the trailer, got 0x%02x", trailerMarker))
	}

	c := newCursor(body)
	r := &Reader{files: make(map[string][]byte)}

	first, err := readHeader(c)
	if err != nil {
		return nil, herrors.NewArchiveError("malformed-header", err)
	}
	if first.IsExtensionMarker() {
		if err := r.readExtensions(c); err != nil {
			return nil, err
		}
	} else {
		r.headers = append(r.headers, first)
	}

	for {
		hdr, err := readHeader(c)
		if err != nil {
			return nil, herrors.NewArchiveError("malformed-header", err)
		}
		if hdr.IsSentinel() {
			break
		}
		r.headers = append(r.headers, hdr)
	}

	for _, hdr := range r.headers {
		buf, err := c.readN(int(hdr.Size))
		if err != nil {
			return nil, herrors.NewArchiveError("truncated-body", err)
		}
		r.files[hdr.Filename] = buf
	}

	headerTableLen := len(body) - len(c.remaining())
	h := sha1.New() //nolint:gosec
	h.Write(body[:headerTableLen])
	for _, hdr := range r.headers {
		h.Write(r.files[hdr.Filename])
	}
	sum := h.Sum(nil)
	if !bytes.Equal(sum, trailerHash) {
		return nil, herrors.NewArchiveError("trailing-hash-mismatch", fmt.Errorf("computed %x, file has %x", sum, trailerHash))
	}
	r.checksum = sum

	return r, nil
}

// Checksum returns the container's trailer hash, verified at Open time
// (spec §4.G signature hashing's h1).
func (r *Reader) Checksum() []byte { return r.checksum }

func (r *Reader) readExtensions(c *cursor) error {
	for {
		key, err := c.readCString()
		if err != nil {
			return herrors.NewArchiveError("malformed-header", err)
		}
		if key == "" {
			return nil
		}
		value, err := c.readCString()
		if err != nil {
			return herrors.NewArchiveError("malformed-header", err)
		}
		r.Extensions = append(r.Extensions, extensionPair{Key: key, Value: value})
	}
}

// Files lists the container's file headers in the order stored on
// disk.
func (r *Reader) Files() []Header { return r.headers }

// Retrieve returns a file's contents, and whether it was present.
func (r *Reader) Retrieve(filename string) ([]byte, bool) {
	data, ok := r.files[backslash(filename)]
	return data, ok
}

// Extension looks up an extension value by key.
func (r *Reader) Extension(key string) (string, bool) {
	for _, e := range r.Extensions {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// ToWriter converts a parsed container back into a Writer, e.g. for
// `hemtt utils pbo` style repacking.
func (r *Reader) ToWriter() *Writer {
	w := NewWriter()
	for _, hdr := range r.headers {
		data := r.files[hdr.Filename]
		w.AddFileHeader(hdr.Filename, data, hdr)
	}
	for _, e := range r.Extensions {
		w.AddExtension(e.Key, e.Value)
	}
	return w
}
