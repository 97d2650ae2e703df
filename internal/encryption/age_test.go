package encryption

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"btmad/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	cfg := config.EncryptionConfig{
		Type:         "age",
		IdentityPath: filepath.Join(t.TempDir(), "keys", "btmad.key"),
	}
	return NewAgeEncryptor(cfg)
}

func TestAgeEncryptor_IsConfigured_BeforeSetup(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)
	if e.IsConfigured() {
		t.Error("IsConfigured() = true before Setup, want false")
	}
}

func TestAgeEncryptor_Setup(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)

	if err := e.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false after Setup, want true")
	}

	info, err := os.Stat(e.identityPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("identity permissions = %o, want 600", perm)
	}

	before, _ := os.ReadFile(e.identityPath)
	if err := e.Setup(); err != nil {
		t.Fatalf("second Setup() error = %v", err)
	}
	after, _ := os.ReadFile(e.identityPath)
	if !bytes.Equal(before, after) {
		t.Error("second Setup() replaced the existing identity")
	}
}

func TestAgeEncryptor_EncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "token json", input: []byte(`{"access_token":"ya29.abc","token_type":"Bearer"}`)},
		{name: "empty", input: []byte{}},
		{name: "binary data", input: []byte{0x00, 0xff, 0x01, 0xfe}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestAgeEncryptor(t)
			if err := e.Setup(); err != nil {
				t.Fatalf("Setup() error = %v", err)
			}

			encrypted, err := e.Encrypt(tt.input)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if !strings.HasPrefix(string(encrypted), "-----BEGIN AGE ENCRYPTED FILE-----") {
				t.Errorf("Encrypt() output is not armored: %q", encrypted[:min(len(encrypted), 40)])
			}

			decrypted, err := e.Decrypt(encrypted)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(decrypted, tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", len(decrypted), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_DecryptWithOtherIdentity(t *testing.T) {
	t.Parallel()

	a, b := newTestAgeEncryptor(t), newTestAgeEncryptor(t)
	for _, e := range []*AgeEncryptor{a, b} {
		if err := e.Setup(); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
	}

	encrypted, err := a.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if _, err := b.Decrypt(encrypted); err == nil {
		t.Error("Decrypt() with a different identity should return error")
	}
}

func TestAgeEncryptor_EncryptBeforeSetup(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	if _, err := e.Encrypt([]byte("data")); err == nil {
		t.Error("Encrypt() before Setup should return error")
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		want    string
		wantErr bool
	}{
		{name: "default is age", cfg: config.EncryptionConfig{IdentityPath: "/tmp/k"}, want: "*encryption.AgeEncryptor"},
		{name: "age", cfg: config.EncryptionConfig{Type: "age", IdentityPath: "/tmp/k"}, want: "*encryption.AgeEncryptor"},
		{name: "age without path", cfg: config.EncryptionConfig{Type: "age"}, wantErr: true},
		{name: "none", cfg: config.EncryptionConfig{Type: "none"}, want: "encryption.NoneEncryptor"},
		{name: "test", cfg: config.EncryptionConfig{Type: "test"}, want: "*encryption.TestEncryptor"},
		{name: "unknown", cfg: config.EncryptionConfig{Type: "rot13"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEncryptorFromConfig(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewEncryptorFromConfig() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEncryptorFromConfig() error = %v", err)
			}
			if typ := fmt.Sprintf("%T", got); typ != tt.want {
				t.Errorf("type = %s, want %s", typ, tt.want)
			}
		})
	}
}

func TestTestEncryptor_RoundTrip(t *testing.T) {
	e := NewTestEncryptor()
	enc, _ := e.Encrypt([]byte("hello"))
	if bytes.Equal(enc, []byte("hello")) {
		t.Error("encrypted output is identical to plaintext")
	}
	dec, err := e.Decrypt(enc)
	if err != nil || string(dec) != "hello" {
		t.Errorf("Decrypt() = %q, %v", dec, err)
	}
	if _, err := e.Decrypt([]byte("hello")); err == nil {
		t.Error("Decrypt() without header should return error")
	}
}
