package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// blobVersion prefixes every sealed value so the format can change later
	blobVersion = 0x01
	nonceSize   = 12
	keySize     = 32
)

var (
	ErrInvalidKeySize     = errors.New("encryption key must be 32 bytes")
	ErrInvalidBlobSize    = errors.New("sealed blob is too small")
	ErrUnsupportedVersion = errors.New("unsupported sealed blob version")
	ErrDecryptionFailed   = errors.New("failed to open sealed blob")
)

// Sealer encrypts delegated OAuth refresh tokens with AES-256-GCM.
// Blob format: version(1) || nonce(12) || ciphertext
type Sealer struct {
	gcm cipher.AEAD
}

// NewSealer creates a sealer with the given 32-byte key
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &Sealer{gcm: gcm}, nil
}

// Seal encrypts plaintext. The additional data (the owning member ID) must
// be passed again to Open.
func (s *Sealer) Seal(plaintext string, additional []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := s.gcm.Seal(nil, nonce, []byte(plaintext), additional)

	blob := make([]byte, 1+nonceSize+len(ciphertext))
	blob[0] = blobVersion
	copy(blob[1:1+nonceSize], nonce)
	copy(blob[1+nonceSize:], ciphertext)

	return blob, nil
}

// Open decrypts a blob produced by Seal
func (s *Sealer) Open(blob, additional []byte) (string, error) {
	if len(blob) < 1+nonceSize+s.gcm.Overhead() {
		return "", ErrInvalidBlobSize
	}
	if blob[0] != blobVersion {
		return "", fmt.Errorf("%w: got version %d", ErrUnsupportedVersion, blob[0])
	}

	plaintext, err := s.gcm.Open(nil, blob[1:1+nonceSize], blob[1+nonceSize:], additional)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}
