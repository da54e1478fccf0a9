package keys

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
)

// KDF algorithm names as stored in Params.
const (
	Argon2id = "argon2id"
	PBKDF2   = "pbkdf2-sha256"
)

// ParamsFileName is the JSON file written beside sealed outputs.
const ParamsFileName = "pngseal.kdf.json"

// SaltSize is the salt length used by NewParams.
const SaltSize = 16

// Params records how a password key was derived.
type Params struct {
	Algorithm  string `json:"algorithm"`
	Salt       string `json:"salt"` // base64
	Time       uint32 `json:"time,omitempty"`
	Memory     uint32 `json:"memory,omitempty"` // KiB
	Threads    uint8  `json:"threads,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
	KeyLen     int    `json:"keylen"`
}

// NewParams returns default parameters with a fresh salt for algorithm
// ("argon2id" or "pbkdf2"; empty means argon2id).
func NewParams(algorithm string) (Params, error) {
	salt, err := NewSalt(SaltSize)
	if err != nil {
		return Params{}, err
	}
	p := Params{Salt: base64.StdEncoding.EncodeToString(salt), KeyLen: 32}
	switch algorithm {
	case "", Argon2id:
		p.Algorithm = Argon2id
		p.Time = 3
		p.Memory = 64 * 1024
		p.Threads = 4
	case "pbkdf2", PBKDF2:
		p.Algorithm = PBKDF2
		p.Iterations = 600_000
	default:
		return Params{}, fmt.Errorf("unknown kdf %q (want argon2id or pbkdf2)", algorithm)
	}
	return p, nil
}

// SaltBytes decodes the stored salt.
func (p Params) SaltBytes() ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(p.Salt)
	if err != nil {
		return nil, fmt.Errorf("kdf salt: %w", err)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("kdf salt is empty")
	}
	return salt, nil
}

// WriteParams stores p as indented JSON.
func WriteParams(p Params, path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadParams loads parameters written by WriteParams.
func ReadParams(path string) (Params, error) {
	var p Params
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read kdf params: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse kdf params: %w", err)
	}
	return p, nil
}
