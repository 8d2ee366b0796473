package cr

import "io"

// Encryptor protects report payloads before they leave for the outbox.
// Encryption needs only public material; no user interaction is involved.
type Encryptor interface {
	// Encrypt reads plaintext from r and writes the protected form to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Extension is appended to payload names, e.g. ".age". Empty when the
	// payload is stored as is.
	Extension() string
}
