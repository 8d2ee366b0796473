package testutil

import (
	"cr-go/internal/cr"
	"cr-go/internal/encryption"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() cr.Encryptor {
	return encryption.NewTestEncryptor()
}
