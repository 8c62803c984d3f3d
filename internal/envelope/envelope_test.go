package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderEncodeDecode(t *testing.T) {
	t.Parallel()

	payload := []byte("block and player state")
	h := NewHeader(7, 1, payload)

	buf := h.Encode()
	require.Len(t, buf, HeaderSize)

	decoded, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
}

func TestDecodeHeaderTruncated(t *testing.T) {
	t.Parallel()

	h := NewHeader(1, 1, nil)
	buf := h.Encode()

	for _, n := range []int{0, 1, HeaderSize / 2, HeaderSize - 1} {
		_, err := DecodeHeader(buf[:n])
		assert.ErrorIs(t, err, ErrTruncated, "length %d", n)
	}
}

func TestHeaderValidate(t *testing.T) {
	t.Parallel()

	valid := NewHeader(1, 1, []byte("x"))
	require.NoError(t, valid.Validate())

	badMagic := valid
	badMagic.Magic = 0xDEADBEEF
	assert.ErrorIs(t, badMagic.Validate(), ErrInvalidMagicNumber)

	badFormat := valid
	badFormat.Format = FormatVersion + 1
	assert.ErrorIs(t, badFormat.Validate(), ErrInvalidFormat)

	badCodec := valid
	badCodec.Codec = 0
	assert.ErrorIs(t, badCodec.Validate(), ErrInvalidCodec)

	// Magic is checked before format so a foreign file never reports a
	// format problem.
	bothBad := valid
	bothBad.Magic = 0
	bothBad.Format = 99
	assert.ErrorIs(t, bothBad.Validate(), ErrInvalidMagicNumber)
}

func TestChecksumCoversHeaderAndPayload(t *testing.T) {
	t.Parallel()

	payload := []byte("abcdef")
	h := NewHeader(3, 1, payload)
	require.NoError(t, h.VerifyPayload(payload))

	// Flipping a payload byte changes the checksum.
	corrupt := append([]byte(nil), payload...)
	corrupt[2] ^= 0xFF
	assert.ErrorIs(t, h.VerifyPayload(corrupt), ErrInvalidChecksum)

	// Changing a covered header field invalidates the stored checksum.
	tampered := h
	tampered.Version = 99
	assert.ErrorIs(t, tampered.VerifyPayload(payload), ErrInvalidChecksum)

	// A short payload is reported as truncation, not a checksum mismatch.
	assert.ErrorIs(t, h.VerifyPayload(payload[:3]), ErrTruncated)
}

func TestChecksumDeterministic(t *testing.T) {
	t.Parallel()

	payload := []byte("same bytes")
	a := NewHeader(1, 2, payload)
	b := NewHeader(1, 2, payload)
	assert.Equal(t, a.Checksum, b.Checksum)

	c := NewHeader(2, 2, payload)
	assert.NotEqual(t, a.Checksum, c.Checksum, "version participates in the checksum")
}
