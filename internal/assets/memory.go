package assets

import (
	"context"
	"sync"

	"limscore/pkg/domain"
)

var _ domain.AssetSource = (*Memory)(nil)

// Memory serves assets from process memory. Intended for tests and dry runs.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory returns an empty in-memory asset source.
func NewMemory() *Memory { return &Memory{files: make(map[string][]byte)} }

// Driver returns the asset driver identifier.
func (m *Memory) Driver() string { return DriverMemory }

// Add stores a file under name, replacing any previous contents.
func (m *Memory) Add(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := make([]byte, len(data))
	copy(b, data)
	m.files[name] = b
}

// Open returns a copy of the named file's contents.
func (m *Memory) Open(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	data, ok := m.files[name]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound{Key: name}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Exists reports whether the named file is present.
func (m *Memory) Exists(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[name]
	return ok, nil
}
