package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Outbox and encryption types.
const (
	OutboxFilesystem = "filesystem"
	OutboxMemory     = "memory"
	OutboxS3         = "s3"

	EncryptionNone = "none"
	EncryptionAge  = "age"
	EncryptionTest = "test"
)

// Age models accepted in [overdue].
const (
	AgeModelCalendar = "calendar"
	AgeModelWeekday  = "weekday"
	AgeModelBusiness = "business"
)

// DefaultThreshold is the overdue threshold, in days, when none is configured.
const DefaultThreshold = 2

func init() {
	// Report validation failures by their TOML key.
	validation.ErrorTag = "toml"
}

// Config represents the main configuration for cr.
type Config struct {
	LedgerDir  string           `toml:"ledger_dir"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Overdue    OverdueConfig    `toml:"overdue"`
	Git        GitConfig        `toml:"git"`
	Outbox     OutboxConfig     `toml:"outbox"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// OverdueConfig holds defaults for the overdue report. Command line flags
// take precedence.
type OverdueConfig struct {
	Threshold int    `toml:"threshold"`
	AgeModel  string `toml:"age_model"` // "calendar" (default), "weekday" or "business"
}

// GitConfig holds settings for the ledger checkout.
type GitConfig struct {
	Binary string `toml:"binary,omitempty"` // defaults to "git" on PATH
	Remote string `toml:"remote,omitempty"` // push target; empty pushes to the upstream
}

// OutboxConfig represents configuration for the report outbox.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type OutboxConfig struct {
	Type string `toml:"type"` // "filesystem", "memory" or "s3"

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty"`   // for S3 compatible stores
	S3AccessKey string `toml:"s3_access_key,omitempty"` // static credentials; empty uses the default chain
	S3SecretKey string `toml:"s3_secret_key,omitempty"`
}

// EncryptionConfig selects how published reports are protected.
type EncryptionConfig struct {
	Type           string `toml:"type"`                      // "none" (default), "age" or "test"
	RecipientsPath string `toml:"recipients_path,omitempty"` // age recipients file, one per line
}

// NewConfig creates a new Config with default values rooted at baseDir.
func NewConfig(ledgerDir, baseDir string) *Config {
	return &Config{
		LedgerDir: ledgerDir,
		BaseDir:   baseDir,
		LogDir:    filepath.Join(baseDir, "log"),
		Overdue: OverdueConfig{
			Threshold: DefaultThreshold,
			AgeModel:  AgeModelCalendar,
		},
		Outbox: OutboxConfig{
			Type:   OutboxFilesystem,
			FSRoot: filepath.Join(baseDir, "outbox"),
		},
		Encryption: EncryptionConfig{
			Type: EncryptionNone,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LedgerDir, validation.Required),
		validation.Field(&c.LogDir, validation.Required),
	); err != nil {
		return err
	}
	if err := c.Overdue.Validate(); err != nil {
		return fmt.Errorf("overdue: %w", err)
	}
	if err := c.Outbox.Validate(); err != nil {
		return fmt.Errorf("outbox: %w", err)
	}
	if err := c.Encryption.Validate(); err != nil {
		return fmt.Errorf("encryption: %w", err)
	}
	return nil
}

// Validate validates the overdue defaults.
func (c *OverdueConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Threshold, validation.Min(0)),
		validation.Field(&c.AgeModel, validation.In(AgeModelCalendar, AgeModelWeekday, AgeModelBusiness)),
	)
}

// Validate validates the outbox configuration.
func (c *OutboxConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.Required, validation.In(OutboxFilesystem, OutboxMemory, OutboxS3)),
		validation.Field(&c.FSRoot, validation.When(c.Type == OutboxFilesystem, validation.Required)),
		validation.Field(&c.S3Bucket, validation.When(c.Type == OutboxS3, validation.Required)),
		validation.Field(&c.S3SecretKey, validation.When(c.S3AccessKey != "", validation.Required)),
	)
}

// Validate validates the encryption configuration. An empty type means none.
func (c *EncryptionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.In(EncryptionNone, EncryptionAge, EncryptionTest)),
		validation.Field(&c.RecipientsPath, validation.When(c.Type == EncryptionAge, validation.Required)),
	)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
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

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes a new config file at path. An existing file is never replaced.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
