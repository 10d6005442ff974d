package proto

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarIntRoundTrip(t *testing.T) {
	cases := []int32{0, 1, 2, 127, 128, 255, 2097151, 2147483647, -1, -2147483648}
	for _, v := range cases {
		var buf bytes.Buffer
		require.NoError(t, WriteVarInt(&buf, v))
		got, err := ReadVarInt(bufio.NewReader(&buf))
		require.NoError(t, err)
		assert.Equal(t, v, got, "round trip of %d", v)
	}
}

func TestVarIntRefusesOversizedSequence(t *testing.T) {
	// Five continuation bytes followed by a terminator is never valid.
	raw := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	_, err := ReadVarInt(bufio.NewReader(bytes.NewReader(raw)))
	assert.ErrorIs(t, err, ErrOversizedVarInt)
}

func TestVarIntTruncated(t *testing.T) {
	raw := []byte{0x80} // continuation bit set, nothing follows
	_, err := ReadVarInt(bufio.NewReader(bytes.NewReader(raw)))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestPeekVarIntDoesNotConsume(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteVarInt(&buf, 300))
	buf.WriteString("trailing")
	r := bufio.NewReader(&buf)

	v, n, err := PeekVarInt(r)
	require.NoError(t, err)
	assert.Equal(t, int32(300), v)
	assert.Equal(t, 2, n)

	// The bytes should still be there for a real read.
	got, err := ReadVarInt(r)
	require.NoError(t, err)
	assert.Equal(t, int32(300), got)

	rest := make([]byte, len("trailing"))
	_, err = r.Read(rest)
	require.NoError(t, err)
	assert.Equal(t, "trailing", string(rest))
}
