// Package keys supplies the 32-byte keys consumed by the codec. Keys come
// from a key file or are derived from a password with Argon2id or
// PBKDF2-HMAC-SHA256; derivation parameters and salt persist as JSON next to
// the sealed files.
package keys

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/AnyUserName/pngseal/internal/seal"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// Provider yields a ready key.
type Provider interface {
	Key(ctx context.Context) (seal.Key, error)
}

// Static returns a fixed key.
type Static seal.Key

func (s Static) Key(context.Context) (seal.Key, error) { return seal.Key(s), nil }

// File reads a key file holding either 32 raw bytes or 64 hex characters.
type File string

func (f File) Key(context.Context) (seal.Key, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return seal.Key{}, fmt.Errorf("read key file: %w", err)
	}
	return ParseKey(data)
}

// ParseKey accepts 32 raw bytes or their hex encoding (surrounding
// whitespace ignored).
func ParseKey(data []byte) (seal.Key, error) {
	if len(data) == seal.KeySize {
		return seal.KeyFromBytes(data)
	}
	text := strings.TrimSpace(string(data))
	if len(text) == 2*seal.KeySize {
		raw, err := hex.DecodeString(text)
		if err != nil {
			return seal.Key{}, fmt.Errorf("hex key: %w", err)
		}
		return seal.KeyFromBytes(raw)
	}
	return seal.KeyFromBytes(data)
}

// Password derives a key from a passphrase with the algorithm and salt in
// Params.
type Password struct {
	Secret []byte
	Params Params
}

func (p Password) Key(ctx context.Context) (seal.Key, error) {
	if err := ctx.Err(); err != nil {
		return seal.Key{}, err
	}
	if len(p.Secret) == 0 {
		return seal.Key{}, fmt.Errorf("empty password")
	}
	salt, err := p.Params.SaltBytes()
	if err != nil {
		return seal.Key{}, err
	}

	var raw []byte
	switch p.Params.Algorithm {
	case Argon2id:
		raw = argon2.IDKey(p.Secret, salt, p.Params.Time, p.Params.Memory, p.Params.Threads, seal.KeySize)
	case PBKDF2:
		raw = pbkdf2.Key(p.Secret, salt, p.Params.Iterations, seal.KeySize, sha256.New)
	default:
		return seal.Key{}, fmt.Errorf("unknown kdf %q", p.Params.Algorithm)
	}
	return seal.KeyFromBytes(raw)
}

// NewSalt returns n random bytes.
func NewSalt(n int) ([]byte, error) {
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	return salt, nil
}
