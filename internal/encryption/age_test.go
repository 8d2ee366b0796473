package encryption

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cr-go/internal/config"
)

func newTestAgeEncryptor(t *testing.T) (*AgeEncryptor, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.EncryptionConfig{
		Type:           config.EncryptionAge,
		RecipientsPath: filepath.Join(dir, "keys", "recipients.txt"),
	}
	return NewAgeEncryptor(cfg), filepath.Join(dir, "keys", "delivery.key")
}

func TestAgeEncryptor_IsConfigured(t *testing.T) {
	t.Parallel()
	e, identity := newTestAgeEncryptor(t)
	if e.IsConfigured() {
		t.Error("IsConfigured() = true before Setup, want false")
	}

	if err := e.Setup(identity); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false after Setup, want true")
	}

	info, err := os.Stat(identity)
	if err != nil {
		t.Fatalf("identity not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("identity permissions = %v, want 0600", info.Mode().Perm())
	}
}

func TestAgeEncryptor_SetupKeepsExistingIdentity(t *testing.T) {
	t.Parallel()
	e, identity := newTestAgeEncryptor(t)
	if err := e.Setup(identity); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := e.Setup(identity); err == nil {
		t.Error("second Setup() with the same identity path should fail")
	}
}

func TestAgeEncryptor_EncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "report", input: []byte(`{"Total":2,"Profiles":[]}`)},
		{name: "empty", input: []byte{}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, identity := newTestAgeEncryptor(t)
			if err := e.Setup(identity); err != nil {
				t.Fatalf("Setup() error = %v", err)
			}

			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(tt.input) > 0 && bytes.Contains(encrypted.Bytes(), tt.input) {
				t.Error("encrypted output contains the plaintext")
			}

			var decrypted bytes.Buffer
			if err := DecryptWithIdentities(identity, bytes.NewReader(encrypted.Bytes()), &decrypted); err != nil {
				t.Fatalf("DecryptWithIdentities() error = %v", err)
			}
			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", decrypted.Len(), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_MultipleRecipients(t *testing.T) {
	t.Parallel()

	e, first := newTestAgeEncryptor(t)
	second := filepath.Join(filepath.Dir(first), "backup.key")
	if err := e.Setup(first); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := e.Setup(second); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	var encrypted bytes.Buffer
	if err := e.Encrypt(strings.NewReader("payload"), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	for _, id := range []string{first, second} {
		var out bytes.Buffer
		if err := DecryptWithIdentities(id, bytes.NewReader(encrypted.Bytes()), &out); err != nil {
			t.Fatalf("DecryptWithIdentities(%s) error = %v", filepath.Base(id), err)
		}
		if out.String() != "payload" {
			t.Errorf("decrypted = %q, want %q", out.String(), "payload")
		}
	}
}

func TestAgeEncryptor_WrongIdentity(t *testing.T) {
	t.Parallel()

	e, identity := newTestAgeEncryptor(t)
	if err := e.Setup(identity); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	other, otherIdentity := newTestAgeEncryptor(t)
	if err := other.Setup(otherIdentity); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	var encrypted bytes.Buffer
	if err := e.Encrypt(strings.NewReader("secret"), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	var out bytes.Buffer
	if err := DecryptWithIdentities(otherIdentity, bytes.NewReader(encrypted.Bytes()), &out); err == nil {
		t.Error("DecryptWithIdentities() with a foreign identity should fail")
	}
}

func TestAgeEncryptor_EncryptBeforeSetup(t *testing.T) {
	t.Parallel()

	e, _ := newTestAgeEncryptor(t)
	var buf bytes.Buffer
	if err := e.Encrypt(strings.NewReader("data"), &buf); err == nil {
		t.Error("Encrypt() before Setup should return error")
	}
	if e.Extension() != ".age" {
		t.Errorf("Extension() = %q, want .age", e.Extension())
	}
}
