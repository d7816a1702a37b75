package signing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemtt-go/hemtt/internal/pbo"
)

func buildTestContainer(t *testing.T) *pbo.Reader {
	t.Helper()
	w := pbo.NewWriter()
	w.AddExtension("prefix", "myaddon")
	w.AddFile("config.cpp", []byte("class CfgPatches { class myaddon {}; };"))
	w.AddFile("script.sqf", []byte("hint \"hi\";"))
	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf))
	r, err := pbo.Open(buf.Bytes())
	require.NoError(t, err)
	return r
}

func TestPrivateKeyWriteReadRoundTrip(t *testing.T) {
	key, err := GenerateKey(1024, "test authority")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, key.Write(&buf))

	out, err := ReadPrivateKey(&buf)
	require.NoError(t, err)

	assert.Equal(t, key.Authority, out.Authority)
	assert.Equal(t, key.Length, out.Length)
	assert.Equal(t, 0, key.N.Cmp(out.N))
	assert.Equal(t, 0, key.D.Cmp(out.D))
	assert.Equal(t, 0, key.P.Cmp(out.P))
	assert.Equal(t, 0, key.Q.Cmp(out.Q))
}

func TestPublicKeyWriteReadRoundTrip(t *testing.T) {
	priv, err := GenerateKey(1024, "test authority")
	require.NoError(t, err)
	pub := priv.PublicKey()

	var buf bytes.Buffer
	require.NoError(t, pub.Write(&buf))

	out, err := ReadPublicKey(&buf)
	require.NoError(t, err)

	assert.Equal(t, pub.Authority, out.Authority)
	assert.Equal(t, pub.Length, out.Length)
	assert.Equal(t, 0, pub.N.Cmp(out.N))
	assert.Equal(t, 0, pub.E.Cmp(out.E))
}

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, err := GenerateKey(1024, "test authority")
	require.NoError(t, err)
	container := buildTestContainer(t)

	sig, err := priv.Sign(container, V3)
	require.NoError(t, err)

	ok, err := priv.PublicKey().Verify(container, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignatureWriteReadRoundTrip(t *testing.T) {
	priv, err := GenerateKey(1024, "test authority")
	require.NoError(t, err)
	container := buildTestContainer(t)

	sig, err := priv.Sign(container, V3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, sig.Write(&buf))

	out, err := ReadSignature(&buf)
	require.NoError(t, err)
	assert.Equal(t, sig.Version, out.Version)
	assert.Equal(t, sig.Length, out.Length)
	assert.Equal(t, 0, sig.Sig1.Cmp(out.Sig1))
	require.NotNil(t, out.Sig2)
	require.NotNil(t, out.Sig3)
	assert.Equal(t, 0, sig.Sig2.Cmp(out.Sig2))
	assert.Equal(t, 0, sig.Sig3.Cmp(out.Sig3))
}

func TestV2SignatureOmitsSig2AndSig3OnDisk(t *testing.T) {
	priv, err := GenerateKey(1024, "test authority")
	require.NoError(t, err)
	container := buildTestContainer(t)

	sig, err := priv.Sign(container, V2)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, sig.Write(&buf))

	out, err := ReadSignature(&buf)
	require.NoError(t, err)
	assert.Equal(t, V2, out.Version)
	assert.Nil(t, out.Sig2)
	assert.Nil(t, out.Sig3)

	ok, err := priv.PublicKey().Verify(container, out)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsTamperedContainer(t *testing.T) {
	priv, err := GenerateKey(1024, "test authority")
	require.NoError(t, err)
	container := buildTestContainer(t)

	sig, err := priv.Sign(container, V3)
	require.NoError(t, err)

	other := pbo.NewWriter()
	other.AddExtension("prefix", "myaddon")
	other.AddFile("config.cpp", []byte("class CfgPatches { class myaddon { version = 2; }; };"))
	other.AddFile("script.sqf", []byte("hint \"hi\";"))
	var buf bytes.Buffer
	require.NoError(t, other.Write(&buf))
	tampered, err := pbo.Open(buf.Bytes())
	require.NoError(t, err)

	ok, err := priv.PublicKey().Verify(tampered, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestV2ExcludesNonSelectedExtensions(t *testing.T) {
	w := pbo.NewWriter()
	w.AddFile("readme.txt", []byte("not signed under v2"))
	w.AddFile("config.bin", []byte("selected regardless"))
	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf))
	container, err := pbo.Open(buf.Bytes())
	require.NoError(t, err)

	v2 := hashFiles(container, V2)
	v3 := hashFiles(container, V3)
	assert.NotEqual(t, v2, v3, "v2 must exclude readme.txt while v3 includes it")
}

func TestPadHashLength(t *testing.T) {
	hash := bytes.Repeat([]byte{0xAB}, 20)
	padded := padHash(hash, 128)
	assert.LessOrEqual(t, len(padded.Bytes()), 128)
}
