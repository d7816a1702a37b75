// Package signing implements BI private/public key serialization and
// the three-hash detached-signature scheme over PBO containers (spec
// §4.G). It deliberately stays on the standard library's crypto/rsa
// and math/big: no pack dependency implements this padded,
// non-ASN.1-framed signature format (DESIGN.md).
package signing

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
	"math/big"

	"github.com/hemtt-go/hemtt/internal/herrors"
)

var privateMagic = []byte("\x07\x02\x00\x00\x00\x24\x00\x00RSA2")
var publicMagic = []byte("\x06\x02\x00\x00\x00\x24\x00\x00RSA1")

// PrivateKey is a BI .biprivatekey: a CRT-form RSA key plus the
// authority name signatures are issued under (spec §4.G).
type PrivateKey struct {
	Authority string
	Length    uint32
	E         *big.Int
	N         *big.Int
	P         *big.Int
	Q         *big.Int
	Dp        *big.Int
	Dq        *big.Int
	Qinv      *big.Int
	D         *big.Int
}

// PublicKey is a BI .bikey: authority, length, and the (e, n) pair
// needed to verify a signature.
type PublicKey struct {
	Authority string
	Length    uint32
	E         *big.Int
	N         *big.Int
}

// GenerateKey creates a new RSA key of the given bit length (1024 or
// 2048 per spec §4.G) under authority.
func GenerateKey(length uint32, authority string) (*PrivateKey, error) {
	if length != 1024 && length != 2048 {
		return nil, herrors.NewSigningError("length-mismatch", fmt.Errorf("key length must be 1024 or 2048, got %d", length))
	}
	rsaKey, err := rsa.GenerateKey(rand.Reader, int(length))
	if err != nil {
		return nil, herrors.NewSigningError("keygen-failed", err)
	}
	rsaKey.Precompute()
	if len(rsaKey.Primes) != 2 {
		return nil, herrors.NewSigningError("keygen-failed", fmt.Errorf("expected 2 primes, got %d", len(rsaKey.Primes)))
	}
	return &PrivateKey{
		Authority: authority,
		Length:    length,
		E:         big.NewInt(int64(rsaKey.E)),
		N:         rsaKey.N,
		P:         rsaKey.Primes[0],
		Q:         rsaKey.Primes[1],
		Dp:        rsaKey.Precomputed.Dp,
		Dq:        rsaKey.Precomputed.Dq,
		Qinv:      rsaKey.Precomputed.Qinv,
		D:         rsaKey.D,
	}, nil
}

func (k *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{Authority: k.Authority, Length: k.Length, E: k.E, N: k.N}
}

// Write serializes k in the BI private-key binary format
// (original_source/libs/signing/src/private.rs's BIPrivateKey::write):
// authority cstring, a redundant size tag, a fixed magic, the key
// length, then little-endian big integers at fixed widths.
func (k *PrivateKey) Write(w io.Writer) error {
	if err := writeCString(w, k.Authority); err != nil {
		return err
	}
	if err := writeU32(w, k.Length/16*9+20); err != nil {
		return err
	}
	if _, err := w.Write(privateMagic); err != nil {
		return err
	}
	if err := writeU32(w, k.Length); err != nil {
		return err
	}
	l8, l16 := int(k.Length/8), int(k.Length/16)
	fields := []struct {
		v *big.Int
		w int
	}{
		{k.E, 4}, {k.N, l8}, {k.P, l16}, {k.Q, l16},
		{k.Dp, l16}, {k.Dq, l16}, {k.Qinv, l16}, {k.D, l8},
	}
	for _, f := range fields {
		if err := writeBigUintLE(w, f.v, f.w); err != nil {
			return err
		}
	}
	return nil
}

// ReadPrivateKey parses the BI private-key binary format.
func ReadPrivateKey(r io.Reader) (*PrivateKey, error) {
	authority, err := readCString(r)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	temp, err := readU32(r)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	// three u32 reads span the fixed 12-byte magic+tag the writer emits
	// as 8 magic bytes followed by "RSA2".
	if _, err := readU32(r); err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	if _, err := readU32(r); err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	if _, err := readU32(r); err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	length, err := readU32(r)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	if temp != length/16*9+20 {
		return nil, herrors.NewSigningError("length-mismatch", fmt.Errorf("size tag %d does not match key length %d", temp, length))
	}
	l8, l16 := int(length/8), int(length/16)
	e, err := readBigUintLE(r, 4)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	n, err := readBigUintLE(r, l8)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	p, err := readBigUintLE(r, l16)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	q, err := readBigUintLE(r, l16)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	dp, err := readBigUintLE(r, l16)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	dq, err := readBigUintLE(r, l16)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	qinv, err := readBigUintLE(r, l16)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	d, err := readBigUintLE(r, l8)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	return &PrivateKey{
		Authority: authority, Length: length,
		E: e, N: n, P: p, Q: q, Dp: dp, Dq: dq, Qinv: qinv, D: d,
	}, nil
}

// Write serializes k in the BI public-key binary format: identical
// header shape to the private key but tagged RSA1 and carrying only
// (e, n) (no CRT components, since a verifier never needs them).
func (k *PublicKey) Write(w io.Writer) error {
	if err := writeCString(w, k.Authority); err != nil {
		return err
	}
	if err := writeU32(w, k.Length/8+20); err != nil {
		return err
	}
	if _, err := w.Write(publicMagic); err != nil {
		return err
	}
	if err := writeU32(w, k.Length); err != nil {
		return err
	}
	if err := writeBigUintLE(w, k.E, 4); err != nil {
		return err
	}
	return writeBigUintLE(w, k.N, int(k.Length/8))
}

// ReadPublicKey parses the BI public-key binary format.
func ReadPublicKey(r io.Reader) (*PublicKey, error) {
	authority, err := readCString(r)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	temp, err := readU32(r)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	if _, err := readU32(r); err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	if _, err := readU32(r); err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	if _, err := readU32(r); err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	length, err := readU32(r)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	if temp != length/8+20 {
		return nil, herrors.NewSigningError("length-mismatch", fmt.Errorf("size tag %d does not match key length %d", temp, length))
	}
	e, err := readBigUintLE(r, 4)
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	n, err := readBigUintLE(r, int(length/8))
	if err != nil {
		return nil, herrors.NewSigningError("malformed-key", err)
	}
	return &PublicKey{Authority: authority, Length: length, E: e, N: n}, nil
}
