package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
	"filippo.io/age/armor"

	"btmad/internal/config"
	"btmad/internal/mad"
)

// AgeEncryptor implements mad.Encryptor using filippo.io/age with an X25519
// identity kept in a private file next to the local store. Ciphertext is
// ASCII-armored so it can be stored as a key/value string.
type AgeEncryptor struct {
	identityPath string
}

var _ mad.Encryptor = (*AgeEncryptor)(nil)

// NewAgeEncryptor creates a new AgeEncryptor from configuration.
func NewAgeEncryptor(cfg config.EncryptionConfig) *AgeEncryptor {
	return &AgeEncryptor{identityPath: cfg.IdentityPath}
}

// Setup generates an X25519 identity and writes it with owner-only
// permissions. An existing identity is left untouched.
func (e *AgeEncryptor) Setup() error {
	if e.IsConfigured() {
		return nil
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating identity: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(e.identityPath), 0700); err != nil {
		return fmt.Errorf("creating identity directory: %w", err)
	}

	f, err := os.OpenFile(e.identityPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating identity file: %w", err)
	}
	defer f.Close()

	contents := "# public key: " + identity.Recipient().String() + "\n" + identity.String() + "\n"
	if _, err := io.WriteString(f, contents); err != nil {
		return fmt.Errorf("writing identity: %w", err)
	}
	return nil
}

// IsConfigured returns true if the identity file exists.
func (e *AgeEncryptor) IsConfigured() bool {
	_, err := os.Stat(e.identityPath)
	return err == nil
}

// Encrypt returns the armored age ciphertext of plaintext.
func (e *AgeEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	identity, err := e.loadIdentity()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	armored := armor.NewWriter(&buf)

	w, err := age.Encrypt(armored, identity.Recipient())
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("encrypting data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return nil, fmt.Errorf("finalizing armor: %w", err)
	}
	return buf.Bytes(), nil
}

// Decrypt reverses Encrypt.
func (e *AgeEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	identity, err := e.loadIdentity()
	if err != nil {
		return nil, err
	}

	r, err := age.Decrypt(armor.NewReader(bytes.NewReader(ciphertext)), identity)
	if err != nil {
		return nil, fmt.Errorf("creating decrypted reader: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decrypting data: %w", err)
	}
	return plaintext, nil
}

func (e *AgeEncryptor) loadIdentity() (*age.X25519Identity, error) {
	data, err := os.ReadFile(e.identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}

	identities, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing identity file: %w", err)
	}
	for _, id := range identities {
		if x, ok := id.(*age.X25519Identity); ok {
			return x, nil
		}
	}
	return nil, errors.New("no X25519 identity found in identity file")
}
