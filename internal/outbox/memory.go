package outbox

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"cr-go/internal/cr"
)

// MemoryOutbox keeps payloads in memory. It is safe for concurrent use.
type MemoryOutbox struct {
	payloads map[string][]byte
	mu       sync.RWMutex
}

// NewMemoryOutbox creates an empty in-memory outbox.
func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{payloads: make(map[string][]byte)}
}

// Put stores a payload.
func (m *MemoryOutbox) Put(name string, r io.Reader, size int64) error {
	if err := checkName(name); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads[name] = data
	return nil
}

// Get writes the named payload to w.
func (m *MemoryOutbox) Get(name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.payloads[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// Names lists stored payload names in order.
func (m *MemoryOutbox) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.payloads))
	for n := range m.payloads {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ValidateSetup always succeeds for the in-memory outbox.
func (m *MemoryOutbox) ValidateSetup() error {
	return nil
}

var _ cr.Outbox = (*MemoryOutbox)(nil)
