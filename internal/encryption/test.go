package encryption

import (
	"bytes"
	"errors"

	"btmad/internal/mad"
)

// testHeader is prepended to data by TestEncryptor to make encrypted output
// clearly different from plaintext while remaining deterministic and reversible.
var testHeader = []byte("BTMADENC:")

// TestEncryptor is a simple, deterministic encryptor for testing. It
// prepends a fixed header during encryption and strips it during decryption.
type TestEncryptor struct{}

var _ mad.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (*TestEncryptor) Setup() error       { return nil }
func (*TestEncryptor) IsConfigured() bool { return true }

func (*TestEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	return append(append([]byte{}, testHeader...), plaintext...), nil
}

func (*TestEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if !bytes.HasPrefix(ciphertext, testHeader) {
		return nil, errors.New("invalid test encryption header")
	}
	return bytes.Clone(ciphertext[len(testHeader):]), nil
}

// NoneEncryptor stores secrets as plaintext.
type NoneEncryptor struct{}

var _ mad.Encryptor = NoneEncryptor{}

func (NoneEncryptor) Setup() error       { return nil }
func (NoneEncryptor) IsConfigured() bool { return true }

func (NoneEncryptor) Encrypt(plaintext []byte) ([]byte, error)  { return bytes.Clone(plaintext), nil }
func (NoneEncryptor) Decrypt(ciphertext []byte) ([]byte, error) { return bytes.Clone(ciphertext), nil }
