package signing

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // BI's signature scheme is defined around SHA-1
	"fmt"
	"io"
	"math/big"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hemtt-go/hemtt/internal/herrors"
	"github.com/hemtt-go/hemtt/internal/pbo"
)

// Version selects which file bodies participate in a signature's third
// hash (spec §4.G).
type Version int

const (
	// V2 signs only files whose extension is in the selected set, plus
	// any file literally named config.bin.
	V2 Version = 2
	// V3 signs every file in the container.
	V3 Version = 3
)

var v2Extensions = map[string]struct{}{
	"bin": {}, "fsm": {}, "cfg": {}, "sqf": {}, "sqs": {}, "sqm": {},
	"ext": {}, "hpp": {}, "h": {}, "inc": {},
}

// Signature is a detached BI signature (spec §3 "Signature (detached)").
type Signature struct {
	Version   Version
	Authority string
	Length    uint32
	Exponent  *big.Int
	N         *big.Int
	Sig1      *big.Int
	Sig2      *big.Int
	Sig3      *big.Int
}

// FileName returns the conventional detached-signature file name for a
// PBO named pboName (spec §4.G: "{filename}.{authority}.bisign").
func FileName(pboName, authority string) string {
	return fmt.Sprintf("%s.%s.bisign", pboName, authority)
}

// Sign produces a detached signature over container under version,
// using k's private exponent (spec §4.G "Signature hashing").
func (k *PrivateKey) Sign(container *pbo.Reader, version Version) (*Signature, error) {
	h1, h2, h3, err := generateHashes(container, version)
	if err != nil {
		return nil, err
	}
	size := int(k.Length / 8)
	sig1 := new(big.Int).Exp(padHash(h1, size), k.D, k.N)
	sig2 := new(big.Int).Exp(padHash(h2, size), k.D, k.N)
	sig3 := new(big.Int).Exp(padHash(h3, size), k.D, k.N)
	return &Signature{
		Version: version, Authority: k.Authority, Length: k.Length,
		Exponent: k.E, N: k.N, Sig1: sig1, Sig2: sig2, Sig3: sig3,
	}, nil
}

// Verify reports whether s is a valid signature over container under
// k's public modulus, by recomputing the three padded digests and
// comparing against sig_i^e mod n (spec §4.G, §8 "signature
// verification round-trips").
func (k *PublicKey) Verify(container *pbo.Reader, s *Signature) (bool, error) {
	if k.N.Cmp(s.N) != 0 || k.Authority != s.Authority {
		return false, nil
	}
	h1, h2, h3, err := generateHashes(container, s.Version)
	if err != nil {
		return false, err
	}
	size := int(k.Length / 8)
	want1 := padHash(h1, size)
	got1 := new(big.Int).Exp(s.Sig1, k.E, k.N)
	if want1.Cmp(got1) != 0 {
		return false, nil
	}
	if s.Version != V3 {
		return true, nil
	}
	want2 := padHash(h2, size)
	want3 := padHash(h3, size)
	got2 := new(big.Int).Exp(s.Sig2, k.E, k.N)
	got3 := new(big.Int).Exp(s.Sig3, k.E, k.N)
	return want2.Cmp(got2) == 0 && want3.Cmp(got3) == 0, nil
}

// Write serializes s as a .bisign file (spec §6 "Signature file"):
// C-string authority, a redundant size tag covering everything that
// follows it, the RSA1 public-key header, e/n/sig1 at the key's byte
// width, a u32 version, and — only for V3 — sig2 and sig3 at the same
// width. V2 signatures store only sig1 on disk; sig2 and sig3 are not
// written (§4.G).
func (s *Signature) Write(w io.Writer) error {
	width := int(s.Length / 8)
	var body bytes.Buffer
	body.Write(publicMagic)
	_ = writeU32(&body, s.Length)
	_ = writeBigUintLE(&body, s.Exponent, 4)
	_ = writeBigUintLE(&body, s.N, width)
	_ = writeBigUintLE(&body, s.Sig1, width)
	_ = writeU32(&body, uint32(s.Version))
	if s.Version == V3 {
		_ = writeBigUintLE(&body, s.Sig2, width)
		_ = writeBigUintLE(&body, s.Sig3, width)
	}

	if err := writeCString(w, s.Authority); err != nil {
		return err
	}
	if err := writeU32(w, uint32(body.Len())); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

// ReadSignature parses a .bisign file written by Write.
func ReadSignature(r io.Reader) (*Signature, error) {
	authority, err := readCString(r)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	tag, err := readU32(r)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	body := make([]byte, tag)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	br := bytes.NewReader(body)
	magic := make([]byte, len(publicMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	if !bytes.Equal(magic, publicMagic) {
		return nil, herrors.NewSigningError("invalid-padding", fmt.Errorf("unexpected signature magic %x", magic))
	}
	length, err := readU32(br)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	width := int(length / 8)
	e, err := readBigUintLE(br, 4)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	n, err := readBigUintLE(br, width)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	sig1, err := readBigUintLE(br, width)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	versionRaw, err := readU32(br)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	version := Version(versionRaw)
	sig := &Signature{
		Version: version, Authority: authority, Length: length,
		Exponent: e, N: n, Sig1: sig1,
	}
	if version == V3 {
		sig2, err := readBigUintLE(br, width)
		if err != nil {
			return nil, herrors.NewSigningError("malformed-key", err)
		}
		sig3, err := readBigUintLE(br, width)
		if err != nil {
			return nil, herrors.NewSigningError("malformed-key", err)
		}
		sig.Sig2, sig.Sig3 = sig2, sig3
	}
	return sig, nil
}

// padHash implements the reference's pad_hash: PKCS#1 v1.5-style
// DigestInfo-SHA1 padding, big-endian (original_source/libs/signing/src/private.rs).
func padHash(hash []byte, size int) *big.Int {
	buf := make([]byte, 0, size)
	buf = append(buf, 0, 1)
	for len(buf) < size-36 {
		buf = append(buf, 0xFF)
	}
	buf = append(buf, 0x00, 0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2b)
	buf = append(buf, 0x0e, 0x03, 0x02, 0x1a, 0x05, 0x00, 0x04, 0x14)
	buf = append(buf, hash...)
	return new(big.Int).SetBytes(buf)
}

func generateHashes(container *pbo.Reader, version Version) (h1, h2, h3 []byte, err error) {
	h1 = container.Checksum()
	if h1 == nil {
		return nil, nil, nil, herrors.NewSigningError("invalid-padding", fmt.Errorf("container checksum not available"))
	}

	names := hashFilenames(container)
	prefixBytes := prefixSuffix(container)

	h := sha1.New() //nolint:gosec
	h.Write(h1)
	h.Write(names)
	h.Write(prefixBytes)
	h2 = h.Sum(nil)

	h = sha1.New() //nolint:gosec
	h.Write(hashFiles(container, version))
	h.Write(names)
	h.Write(prefixBytes)
	h3 = h.Sum(nil)

	return h1, h2, h3, nil
}

// hashFilenames hashes the sorted-lowercase file name list, one
// NUL-terminated entry at a time (BI binary formats never vary this
// convention — spec §4.G "sorted-lowercase filenames hash").
func hashFilenames(container *pbo.Reader) []byte {
	names := make([]string, 0, len(container.Files()))
	for _, hdr := range container.Files() {
		names = append(names, strings.ToLower(hdr.Filename))
	}
	sort.Strings(names)
	h := sha1.New() //nolint:gosec
	for _, n := range names {
		h.Write([]byte(n))
		h.Write([]byte{0})
	}
	return h.Sum(nil)
}

// hashFiles hashes the selected file bodies, in the same sorted order
// hashFilenames uses.
func hashFiles(container *pbo.Reader, version Version) []byte {
	headers := append([]pbo.Header(nil), container.Files()...)
	sort.Slice(headers, func(i, j int) bool {
		return strings.ToLower(headers[i].Filename) < strings.ToLower(headers[j].Filename)
	})
	h := sha1.New() //nolint:gosec
	for _, hdr := range headers {
		if !fileSelected(hdr.Filename, version) {
			continue
		}
		data, _ := container.Retrieve(hdr.Filename)
		h.Write(data)
	}
	return h.Sum(nil)
}

func fileSelected(filename string, version Version) bool {
	if version == V3 {
		return true
	}
	base := strings.ToLower(filepath.Base(strings.ReplaceAll(filename, "\\", "/")))
	if base == "config.bin" {
		return true
	}
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	_, ok := v2Extensions[ext]
	return ok
}

func prefixSuffix(container *pbo.Reader) []byte {
	prefix, ok := container.Extension("prefix")
	if !ok {
		return nil
	}
	if strings.HasSuffix(prefix, "\\") {
		return []byte(prefix)
	}
	return []byte(prefix + "\\")
}
