package outbox

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cr-go/internal/cr"
)

// FileSystemOutbox stores payloads as files in a single directory.
type FileSystemOutbox struct {
	root string
}

// NewFileSystemOutbox creates the outbox directory if needed.
func NewFileSystemOutbox(root string) (*FileSystemOutbox, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create outbox directory: %w", err)
	}
	return &FileSystemOutbox{root: root}, nil
}

// Put stores a payload. An existing payload of the same name is replaced
// atomically.
func (o *FileSystemOutbox) Put(name string, r io.Reader, size int64) error {
	if err := checkName(name); err != nil {
		return err
	}
	return o.writeFile(filepath.Join(o.root, name), r, size)
}

// Get writes the named payload to w.
func (o *FileSystemOutbox) Get(name string, w io.Writer) error {
	if err := checkName(name); err != nil {
		return err
	}
	f, err := os.Open(filepath.Join(o.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to open payload: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the outbox directory exists and is writable.
func (o *FileSystemOutbox) ValidateSetup() error {
	info, err := os.Stat(o.root)
	if err != nil {
		return fmt.Errorf("outbox root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("outbox root is not a directory: %s", o.root)
	}

	scratch, err := os.CreateTemp(o.root, ".scratch-*")
	if err != nil {
		return fmt.Errorf("outbox root not writable: %w", err)
	}
	scratch.Close()
	return os.Remove(scratch.Name())
}

// writeFile writes data from r to destPath using atomic write (temp file + rename).
func (o *FileSystemOutbox) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// Same directory, so the rename cannot cross filesystems.
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ cr.Outbox = (*FileSystemOutbox)(nil)
