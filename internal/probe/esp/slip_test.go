package esp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlipEncode(t *testing.T) {
	t.Run("plain payload gets delimiters", func(t *testing.T) {
		got := slipEncode([]byte{0x01, 0x02})
		assert.Equal(t, []byte{0xC0, 0x01, 0x02, 0xC0}, got)
	})

	t.Run("delimiter and escape bytes are stuffed", func(t *testing.T) {
		got := slipEncode([]byte{0xC0, 0xDB})
		assert.Equal(t, []byte{0xC0, 0xDB, 0xDC, 0xDB, 0xDD, 0xC0}, got)
	})
}

func TestSlipDecode(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		payload := []byte{0x00, 0xC0, 0xDB, 0x55, 0xFF}
		framed := slipEncode(payload)
		decoded, err := slipDecode(framed[1 : len(framed)-1])
		require.NoError(t, err)
		assert.Equal(t, payload, decoded)
	})

	t.Run("truncated escape fails", func(t *testing.T) {
		_, err := slipDecode([]byte{0x01, 0xDB})
		assert.Error(t, err)
	})

	t.Run("invalid escape fails", func(t *testing.T) {
		_, err := slipDecode([]byte{0xDB, 0x00})
		assert.Error(t, err)
	})
}

func TestReadFrame(t *testing.T) {
	t.Run("skips noise before the frame", func(t *testing.T) {
		r := bytes.NewReader([]byte{'b', 'o', 'o', 't', 0xC0, 0x01, 0x02, 0xC0})
		payload, err := readFrame(r)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02}, payload)
	})

	t.Run("coalesces empty frames", func(t *testing.T) {
		r := bytes.NewReader([]byte{0xC0, 0xC0, 0xC0, 0x7F, 0xC0})
		payload, err := readFrame(r)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x7F}, payload)
	})

	t.Run("eof without frame errors", func(t *testing.T) {
		_, err := readFrame(bytes.NewReader([]byte{0x01, 0x02}))
		assert.Error(t, err)
	})
}
