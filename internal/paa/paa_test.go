package paa

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidRGBA(width, height int, r, g, b, a byte) []byte {
	out := make([]byte, width*height*4)
	for i := 0; i < width*height; i++ {
		out[i*4] = r
		out[i*4+1] = g
		out[i*4+2] = b
		out[i*4+3] = a
	}
	return out
}

func TestPaaWriteReadRoundTrip(t *testing.T) {
	format := FormatARGB8888
	p := New(format)
	p.SetTagg("AVER", []byte{1, 0})

	for _, size := range []int{8, 4} {
		rgba := solidRGBA(size, size, 10, 20, 30, 255)
		body, err := format.Compress(rgba, size, size)
		require.NoError(t, err)
		p.Mipmaps = append(p.Mipmaps, MipMap{
			Width:  uint16(size),
			Height: uint16(size),
			Data:   CompressLZ77(body),
			Format: format,
		})
	}

	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf))

	decoded, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, format, decoded.Format)
	assert.Equal(t, []byte{1, 0}, decoded.Taggs["AVER"])
	require.Len(t, decoded.Mipmaps, 2)

	assert.Equal(t, uint16(8), decoded.Mipmaps[0].ActualWidth())
	assert.Equal(t, uint16(4), decoded.Mipmaps[1].ActualWidth())

	pixels, err := decoded.Mipmaps[0].Decode()
	require.NoError(t, err)
	assert.Equal(t, byte(10), pixels[0])
	assert.Equal(t, byte(20), pixels[1])
	assert.Equal(t, byte(30), pixels[2])
	assert.Equal(t, byte(255), pixels[3])
}

func TestMipMapLZSSFlagRoundTrip(t *testing.T) {
	format := FormatDXT1
	// 8,8,8 survives the RGB565 endpoint quantization exactly.
	rgba := solidRGBA(4, 4, 8, 8, 8, 255)
	raw, err := format.Compress(rgba, 4, 4)
	require.NoError(t, err)

	compressed := CompressLZSS(raw)
	m := MipMap{Width: 4 | mipmapLZSSFlag, Height: 4, Data: compressed, Format: format}

	assert.True(t, m.IsCompressed())
	assert.Equal(t, uint16(4), m.ActualWidth())

	pixels, err := m.Decode()
	require.NoError(t, err)
	assert.Equal(t, byte(8), pixels[0])
}
