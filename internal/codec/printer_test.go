package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinterASCII(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, ASCII)

	require.NoError(t, p.Received([]byte{0x41}))
	require.NoError(t, p.Received([]byte("BCDEF")))
	assert.Equal(t, "ABCDEF", out.String(), "ASCII mode never inserts line breaks")
}

func TestPrinterHexGrouping(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, 2)

	require.NoError(t, p.Received([]byte{0xde, 0xad}))
	assert.Equal(t, "dead", out.String())

	// Three more words split across reads complete the line
	require.NoError(t, p.Received([]byte{0xbe, 0xef, 0x00}))
	require.NoError(t, p.Received([]byte{0x01, 0x02, 0x03}))
	assert.Equal(t, "deadbeef00010203\n", out.String())

	require.NoError(t, p.Received([]byte{0xff}))
	assert.Equal(t, "deadbeef00010203\nff", out.String())
}

func TestPrinterWidthOneGroupsFourBytes(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, 1)

	require.NoError(t, p.Received([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}))
	assert.Equal(t, "01020304\n05060708\n09", out.String())
}

func TestPrinterEcho(t *testing.T) {
	tests := []struct {
		width int
		value uint32
		want  string
	}{
		{ASCII, 'A', "> A(1)\n"},
		{1, 0x0a, "> 0a(1)\n"},
		{2, 0xff, "> 00ff(2)\n"},
		{4, 0x12345678, "> 12345678(4)\n"},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		require.NoError(t, NewPrinter(&out, tt.width).Echo(tt.value))
		assert.Equal(t, tt.want, out.String())
	}
}

func TestPrinterFinish(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, 4)
	require.NoError(t, p.Received([]byte{0xca, 0xfe}))
	require.NoError(t, p.Finish())
	assert.True(t, strings.HasSuffix(out.String(), "cafe\n"))
}
