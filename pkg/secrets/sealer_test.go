package secrets

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestNewSealer_InvalidKey(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)

	blob, err := s.Seal("1//refresh-token", []byte("member-1"))
	require.NoError(t, err)
	assert.Equal(t, byte(blobVersion), blob[0])
	assert.NotContains(t, string(blob), "refresh-token")

	plain, err := s.Open(blob, []byte("member-1"))
	require.NoError(t, err)
	assert.Equal(t, "1//refresh-token", plain)
}

func TestSealer_NonceIsRandom(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)

	a, _ := s.Seal("token", nil)
	b, _ := s.Seal("token", nil)
	assert.NotEqual(t, a, b)
}

func TestSealer_OpenRejects(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)
	blob, err := s.Seal("token", []byte("member-1"))
	require.NoError(t, err)

	t.Run("other member", func(t *testing.T) {
		_, err := s.Open(blob, []byte("member-2"))
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("other key", func(t *testing.T) {
		other, err := NewSealer(bytes.Repeat([]byte{0x07}, 32))
		require.NoError(t, err)
		_, err = other.Open(blob, []byte("member-1"))
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := s.Open(blob[:5], []byte("member-1"))
		assert.ErrorIs(t, err, ErrInvalidBlobSize)
	})

	t.Run("bad version", func(t *testing.T) {
		tampered := append([]byte{}, blob...)
		tampered[0] = 0x09
		_, err := s.Open(tampered, []byte("member-1"))
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})
}
