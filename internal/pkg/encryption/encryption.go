// Package encryption seals cached session payloads with AES-256-GCM.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrCorrupt is returned when a sealed payload cannot be opened.
var ErrCorrupt = errors.New("sealed payload is corrupt")

// Sealer protects payloads at rest.
type Sealer interface {
	// Seal encrypts plaintext. The result carries its own nonce.
	Seal(plaintext []byte) ([]byte, error)

	// Open decrypts a payload produced by Seal.
	Open(sealed []byte) ([]byte, error)
}

// NewSealer returns an AES sealer for key, or a pass-through sealer when key
// is empty.
func NewSealer(key string) (Sealer, error) {
	if key == "" {
		return PlainSealer{}, nil
	}
	return NewAESSealer(key)
}

// AESSealer implements Sealer using AES-256-GCM.
type AESSealer struct {
	gcm cipher.AEAD
}

// NewAESSealer creates an AES-256-GCM sealer. The key must be 32 bytes,
// given raw or base64-encoded.
func NewAESSealer(key string) (*AESSealer, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		keyBytes = []byte(key)
	}
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(keyBytes))
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESSealer{gcm: gcm}, nil
}

// Seal encrypts plaintext and prepends the nonce.
func (s *AESSealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open splits off the nonce and decrypts.
func (s *AESSealer) Open(sealed []byte) ([]byte, error) {
	n := s.gcm.NonceSize()
	if len(sealed) < n {
		return nil, ErrCorrupt
	}
	plaintext, err := s.gcm.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return plaintext, nil
}

// PlainSealer stores payloads unchanged. Used when no key is configured.
type PlainSealer struct{}

// Seal returns plaintext.
func (PlainSealer) Seal(plaintext []byte) ([]byte, error) { return plaintext, nil }

// Open returns sealed.
func (PlainSealer) Open(sealed []byte) ([]byte, error) { return sealed, nil }

// GenerateKey returns a random base64-encoded 32-byte key.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
