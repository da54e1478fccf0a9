package keys

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseKey(t *testing.T) {
	raw := bytes.Repeat([]byte{0xAB}, 32)
	tests := []struct {
		name    string
		in      []byte
		wantErr bool
	}{
		{"raw", raw, false},
		{"hex", []byte(hex.EncodeToString(raw)), false},
		{"hex newline", []byte(hex.EncodeToString(raw) + "\n"), false},
		{"short", raw[:16], true},
		{"bad hex", []byte(strings.Repeat("zz", 32)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := ParseKey(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !bytes.Equal(k[:], raw) {
				t.Errorf("key = %x", k)
			}
		})
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "k.hex")
	raw := bytes.Repeat([]byte{7}, 32)
	if err := os.WriteFile(path, []byte(hex.EncodeToString(raw)), 0o600); err != nil {
		t.Fatal(err)
	}
	k, err := File(path).Key(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(k[:], raw) {
		t.Errorf("key = %x", k)
	}
	if _, err := File(filepath.Join(t.TempDir(), "missing")).Key(context.Background()); err == nil {
		t.Error("missing file accepted")
	}
}

func cheapParams(t *testing.T, alg string) Params {
	t.Helper()
	p, err := NewParams(alg)
	if err != nil {
		t.Fatal(err)
	}
	// keep tests fast
	p.Memory = 1024
	p.Time = 1
	p.Threads = 1
	if p.Algorithm == PBKDF2 {
		p.Iterations = 1000
	}
	return p
}

func TestPassword_Deterministic(t *testing.T) {
	for _, alg := range []string{Argon2id, "pbkdf2"} {
		t.Run(alg, func(t *testing.T) {
			p := cheapParams(t, alg)
			ctx := context.Background()
			a, err := Password{Secret: []byte("hunter2"), Params: p}.Key(ctx)
			if err != nil {
				t.Fatal(err)
			}
			b, _ := Password{Secret: []byte("hunter2"), Params: p}.Key(ctx)
			if a != b {
				t.Error("same password and salt gave different keys")
			}
			c, _ := Password{Secret: []byte("hunter3"), Params: p}.Key(ctx)
			if a == c {
				t.Error("different passwords gave the same key")
			}
		})
	}
}

func TestPassword_SaltMatters(t *testing.T) {
	p1 := cheapParams(t, Argon2id)
	p2 := cheapParams(t, Argon2id)
	a, _ := Password{Secret: []byte("pw"), Params: p1}.Key(context.Background())
	b, _ := Password{Secret: []byte("pw"), Params: p2}.Key(context.Background())
	if a == b {
		t.Error("fresh salts produced identical keys")
	}
}

func TestPassword_Errors(t *testing.T) {
	p := cheapParams(t, Argon2id)
	if _, err := (Password{Params: p}).Key(context.Background()); err == nil {
		t.Error("empty password accepted")
	}
	bad := p
	bad.Algorithm = "scrypt"
	if _, err := (Password{Secret: []byte("x"), Params: bad}).Key(context.Background()); err == nil {
		t.Error("unknown algorithm accepted")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Password{Secret: []byte("x"), Params: p}).Key(ctx); err == nil {
		t.Error("cancelled context ignored")
	}
}

func TestNewParams_Unknown(t *testing.T) {
	if _, err := NewParams("md5"); err == nil {
		t.Error("md5 accepted")
	}
}

func TestParams_WriteRead(t *testing.T) {
	p := cheapParams(t, "pbkdf2")
	path := filepath.Join(t.TempDir(), ParamsFileName)
	if err := WriteParams(p, path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadParams(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != p {
		t.Errorf("got %+v, want %+v", got, p)
	}
}

func TestStatic(t *testing.T) {
	var p Provider = Static{1, 2, 3}
	k, err := p.Key(context.Background())
	if err != nil || k[0] != 1 || k[2] != 3 {
		t.Errorf("Static key = %x, %v", k, err)
	}
}
