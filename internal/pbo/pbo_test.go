package pbo

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checksumHex(t *testing.T, w *Writer) string {
	t.Helper()
	return hex.EncodeToString(w.Checksum())
}

func TestWriterChecksumEmpty(t *testing.T) {
	w := NewWriter()
	assert.Equal(t, "448ea285b3e098e50a6d78889116e8cea5ce8217", checksumHex(t, w))
}

func TestWriterChecksumExtensionsOnly(t *testing.T) {
	w := NewWriter()
	w.AddExtension("prefix", "foobar")
	w.AddExtension("version", "1.2.3")
	assert.Equal(t, "5217c75c6772e62a761fabf8dc8fca2fe921d9f8", checksumHex(t, w))
}

func TestWriterChecksumWithFile(t *testing.T) {
	w := NewWriter()
	w.AddExtension("prefix", "foobar")
	w.AddExtension("version", "1.2.3")
	w.AddFile("test.txt", []byte("test"))
	assert.Equal(t, "207c98b1e12490f1f941cc66b31d48b59511ab2e", checksumHex(t, w))
}

func TestWriterChecksumMatchesWrittenTrailer(t *testing.T) {
	w := NewWriter()
	w.AddExtension("prefix", "foobar")
	w.AddFile("config.cpp", []byte("class CfgPatches {};"))

	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf))

	data := buf.Bytes()
	trailer := data[len(data)-20:]
	assert.Equal(t, hex.EncodeToString(w.Checksum()), hex.EncodeToString(trailer))
}

func TestRoundTripWriteThenOpen(t *testing.T) {
	w := NewWriter()
	w.AddExtension("prefix", "myaddon")
	w.AddExtension("version", "1.0.0")
	w.AddFile("config.cpp", []byte("class CfgPatches { class myaddon {}; };"))
	w.AddFile("data/texture.paa", []byte{0xFF, 0x01, 0x02, 0x03})

	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf))

	r, err := Open(buf.Bytes())
	require.NoError(t, err)

	prefix, ok := r.Extension("prefix")
	assert.True(t, ok)
	assert.Equal(t, "myaddon", prefix)

	cfg, ok := r.Retrieve("config.cpp")
	require.True(t, ok)
	assert.Equal(t, "class CfgPatches { class myaddon {}; };", string(cfg))

	tex, ok := r.Retrieve("data\\texture.paa")
	require.True(t, ok)
	assert.Equal(t, []byte{0xFF, 0x01, 0x02, 0x03}, tex)

	assert.Len(t, r.Files(), 2)
}

func TestOpenRejectsCorruptTrailer(t *testing.T) {
	w := NewWriter()
	w.AddFile("a.txt", []byte("hello"))
	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf))

	data := buf.Bytes()
	data[len(data)-1] ^= 0xFF

	_, err := Open(data)
	require.Error(t, err)
}

func TestRemoveFileAndExtension(t *testing.T) {
	w := NewWriter()
	w.AddExtension("prefix", "foobar")
	w.AddExtension("version", "1.2.3")
	w.AddExtension("remove_me", "faz")
	w.RemoveExtension("remove_me")
	w.AddFile("test.txt", []byte("test"))
	w.AddFile("test2.txt", []byte("test"))
	w.RemoveFile("test2.txt")

	assert.Equal(t, "207c98b1e12490f1f941cc66b31d48b59511ab2e", checksumHex(t, w))
}

func TestBackslashNormalization(t *testing.T) {
	w := NewWriter()
	w.AddFile("data/sub/file.txt", []byte("x"))
	for name := range w.files {
		assert.NotContains(t, name, "/")
	}
}
