package encryption

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"

	"cr-go/internal/config"
	"cr-go/internal/cr"
)

// AgeEncryptor implements cr.Encryptor using filippo.io/age. Reports are
// encrypted to every recipient listed in the recipients file, so only the
// holders of the matching identities (the delivery side) can read them.
type AgeEncryptor struct {
	recipientsPath string
}

var _ cr.Encryptor = (*AgeEncryptor)(nil)

// NewAgeEncryptor creates a new AgeEncryptor from configuration.
func NewAgeEncryptor(cfg config.EncryptionConfig) *AgeEncryptor {
	return &AgeEncryptor{recipientsPath: cfg.RecipientsPath}
}

// Setup generates a new X25519 identity, writes it to identityPath with
// owner-only permissions and appends its recipient to the recipients file.
// An existing identity file is never overwritten.
func (e *AgeEncryptor) Setup(identityPath string) error {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(identityPath), 0700); err != nil {
		return fmt.Errorf("creating identity directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(e.recipientsPath), 0755); err != nil {
		return fmt.Errorf("creating recipients directory: %w", err)
	}

	idFile, err := os.OpenFile(identityPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating identity file: %w", err)
	}
	if _, err := io.WriteString(idFile, identity.String()+"\n"); err != nil {
		idFile.Close()
		return fmt.Errorf("writing identity: %w", err)
	}
	if err := idFile.Close(); err != nil {
		return fmt.Errorf("closing identity file: %w", err)
	}

	recFile, err := os.OpenFile(e.recipientsPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening recipients file: %w", err)
	}
	defer recFile.Close()
	if _, err := io.WriteString(recFile, identity.Recipient().String()+"\n"); err != nil {
		return fmt.Errorf("writing recipient: %w", err)
	}
	return nil
}

// Encrypt reads plaintext from r and writes age-encrypted ciphertext to w.
func (e *AgeEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	recipients, err := e.loadRecipients()
	if err != nil {
		return fmt.Errorf("loading recipients: %w", err)
	}

	encWriter, err := age.Encrypt(w, recipients...)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}

	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}

	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}

	return nil
}

// Extension returns the suffix of age-encrypted payloads.
func (e *AgeEncryptor) Extension() string {
	return ".age"
}

// IsConfigured returns true if the recipients file exists.
func (e *AgeEncryptor) IsConfigured() bool {
	_, err := os.Stat(e.recipientsPath)
	return err == nil
}

func (e *AgeEncryptor) loadRecipients() ([]age.Recipient, error) {
	data, err := os.ReadFile(e.recipientsPath)
	if err != nil {
		return nil, fmt.Errorf("reading recipients file: %w", err)
	}

	recipients, err := age.ParseRecipients(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing recipients file: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients found in %s", e.recipientsPath)
	}
	return recipients, nil
}

// DecryptWithIdentities reads age ciphertext from r and writes plaintext to
// w, using the identities in identityPath.
func DecryptWithIdentities(identityPath string, r io.Reader, w io.Writer) error {
	data, err := os.ReadFile(identityPath)
	if err != nil {
		return fmt.Errorf("reading identity file: %w", err)
	}

	identities, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parsing identity file: %w", err)
	}

	decReader, err := age.Decrypt(r, identities...)
	if err != nil {
		return fmt.Errorf("creating decrypted reader: %w", err)
	}

	if _, err := io.Copy(w, decReader); err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}
	return nil
}
