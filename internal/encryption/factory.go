package encryption

import (
	"fmt"

	"cr-go/internal/config"
	"cr-go/internal/cr"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// It returns nil for type "none": reports are then published as plain JSON.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (cr.Encryptor, error) {
	switch cfg.Type {
	case config.EncryptionNone, "":
		return nil, nil
	case config.EncryptionAge:
		if cfg.RecipientsPath == "" {
			return nil, fmt.Errorf("age encryption requires recipients_path to be set")
		}
		return NewAgeEncryptor(cfg), nil
	case config.EncryptionTest:
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
