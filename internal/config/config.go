package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultDocumentName is the name of the single remote data document.
const DefaultDocumentName = "BTMad.data.json"

// DriveFileScope grants access to files created or opened by the app only.
const DriveFileScope = "https://www.googleapis.com/auth/drive.file"

// Config represents the main configuration for btmad. Credentials are not
// stored here; they live in the local key/value store.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Local      LocalConfig      `toml:"local"`
	Store      StoreConfig      `toml:"store"`
	Auth       AuthConfig       `toml:"auth"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// LocalConfig locates the local key/value database ("local storage").
type LocalConfig struct {
	Path string `toml:"path"`
}

// StoreConfig selects where the aggregate is persisted.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type         string `toml:"type"` // "local", "memory", "drive", "s3" or "filesystem"
	DocumentName string `toml:"document_name,omitempty"`

	// Drive-specific fields (only used when Type == "drive")
	DriveEndpoint string `toml:"drive_endpoint,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`

	// Filesystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// AuthConfig holds the identity provider's OAuth2 endpoints.
type AuthConfig struct {
	DeviceAuthURL string   `toml:"device_auth_url"`
	TokenURL      string   `toml:"token_url"`
	RevokeURL     string   `toml:"revoke_url"`
	Scopes        []string `toml:"scopes"`
}

// EncryptionConfig controls how the cached access token is protected at rest.
type EncryptionConfig struct {
	Type         string `toml:"type"` // "age" (default), "none" or "test"
	IdentityPath string `toml:"identity_path,omitempty"`
}

// NewConfig creates a new Config rooted at baseDir with default paths and
// Google endpoints.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Local: LocalConfig{
			Path: filepath.Join(baseDir, "local.db"),
		},
		Store: StoreConfig{
			Type:         "local",
			DocumentName: DefaultDocumentName,
		},
		Auth: AuthConfig{
			DeviceAuthURL: "https://oauth2.googleapis.com/device/code",
			TokenURL:      "https://oauth2.googleapis.com/token",
			RevokeURL:     "https://oauth2.googleapis.com/revoke",
			Scopes:        []string{DriveFileScope},
		},
		Encryption: EncryptionConfig{
			Type:         "age",
			IdentityPath: filepath.Join(baseDir, "keys", "btmad.key"),
		},
	}
}

// Validate checks that the fields required by the selected store type are set.
func (c *Config) Validate() error {
	var errs []error
	if c.Local.Path == "" {
		errs = append(errs, errors.New("local.path is required"))
	}
	switch c.Store.Type {
	case "local", "memory":
	case "drive":
		if c.Auth.TokenURL == "" || c.Auth.DeviceAuthURL == "" {
			errs = append(errs, errors.New("auth.device_auth_url and auth.token_url are required for store type drive"))
		}
	case "s3":
		if c.Store.S3Bucket == "" {
			errs = append(errs, errors.New("store.s3_bucket is required for store type s3"))
		}
	case "filesystem":
		if c.Store.FSRoot == "" {
			errs = append(errs, errors.New("store.fs_root is required for store type filesystem"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store type: %q", c.Store.Type))
	}
	return errors.Join(errs...)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Store.DocumentName == "" {
		cfg.Store.DocumentName = DefaultDocumentName
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to path through a temp file and rename, so a
// crash never leaves a truncated config behind.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".btmad-config-*")
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		f.Close()
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing config file: %w", err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// Remove deletes the config file at path. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing config file: %w", err)
	}
	return nil
}
