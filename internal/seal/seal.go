// Package seal wraps IDAT payloads in AES-256-GCM.
//
// A sealed payload is nonce(12) || ciphertext || tag(16). No associated data
// is bound; each payload carries its own random nonce.
package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	// KeySize is the AES-256 key length.
	KeySize = 32
	// NonceSize is the GCM nonce length.
	NonceSize = 12
	// TagSize is the GCM authentication tag length.
	TagSize = 16
	// Overhead is the number of bytes Seal adds to a payload.
	Overhead = NonceSize + TagSize
)

var (
	// ErrKeySize reports key material that is not KeySize bytes.
	ErrKeySize = errors.New("key must be 32 bytes")
	// ErrShortPayload reports a sealed payload too short for nonce and tag.
	ErrShortPayload = errors.New("sealed payload shorter than nonce and tag")
	// ErrAuth reports a payload that failed authentication.
	ErrAuth = errors.New("message authentication failed")
)

// Key is 32 bytes of symmetric key material.
type Key [KeySize]byte

// KeyFromBytes copies b into a Key.
func KeyFromBytes(b []byte) (Key, error) {
	var k Key
	if len(b) != KeySize {
		return k, fmt.Errorf("%w: got %d", ErrKeySize, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// Sealer encrypts and decrypts payloads under one key.
// It is safe for concurrent use.
type Sealer struct {
	aead cipher.AEAD
	rand io.Reader
}

// New returns a Sealer for key.
func New(key Key) (*Sealer, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead, rand: rand.Reader}, nil
}

// Seal encrypts plaintext under a fresh random nonce and returns
// nonce || ciphertext || tag.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	out := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	if _, err := io.ReadFull(s.rand, out); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return s.aead.Seal(out, out[:NonceSize], plaintext, nil), nil
}

// Open authenticates and decrypts a payload produced by Seal.
func (s *Sealer) Open(payload []byte) ([]byte, error) {
	if len(payload) < Overhead {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortPayload, len(payload))
	}
	nonce, ciphertext := payload[:NonceSize], payload[NonceSize:]
	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuth
	}
	return plain, nil
}
