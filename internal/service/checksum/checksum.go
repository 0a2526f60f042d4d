package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Manager is a thread-safe cache of content checksums keyed by absolute path.
// A document store records the checksum of every snapshot it hands out and compares
// it again before writing, so concurrent external edits surface as conflicts.
type Manager struct {
	mu    sync.RWMutex
	store map[string]string
}

// NewManager creates an empty checksum cache.
func NewManager() *Manager {
	return &Manager{
		store: make(map[string]string),
	}
}

// Compute returns the SHA-256 checksum of data as a hex string.
func (m *Manager) Compute(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get retrieves the cached checksum for a path.
func (m *Manager) Get(path string) (checksum string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	checksum, ok = m.store[path]
	return checksum, ok
}

// Update stores or replaces the checksum for a path.
func (m *Manager) Update(path string, checksum string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[path] = checksum
}

// Invalidate forgets the checksum for a path.
func (m *Manager) Invalidate(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, path)
}

// Move re-keys a cached checksum after a rename.
func (m *Manager) Move(oldPath, newPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sum, ok := m.store[oldPath]; ok {
		m.store[newPath] = sum
		delete(m.store, oldPath)
	}
}

// Len reports how many paths are cached.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

// Clear removes all cached checksums. Called once a batch has finished.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]string)
}
