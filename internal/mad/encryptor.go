package mad

// Encryptor protects small secrets, such as a cached access token, at rest.
type Encryptor interface {
	// Setup creates key material if none exists. It is a no-op otherwise.
	Setup() error

	// IsConfigured reports whether key material exists.
	IsConfigured() bool

	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}
