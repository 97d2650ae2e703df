package encryption

import (
	"fmt"

	"btmad/internal/config"
	"btmad/internal/mad"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (mad.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		if cfg.IdentityPath == "" {
			return nil, fmt.Errorf("encryption.identity_path is required for age encryption")
		}
		return NewAgeEncryptor(cfg), nil
	case "none":
		return NoneEncryptor{}, nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
