package store

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type memoryBackend struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore returns a process-local store for development and tests.
func NewMemoryStore(logger *zap.Logger) *Store {
	return newStore(&memoryBackend{records: make(map[string][]byte)}, logger)
}

func (m *memoryBackend) name() string { return "memory" }

func (m *memoryBackend) get(_ context.Context, key recordKey) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.records[key.String()]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}

func (m *memoryBackend) put(_ context.Context, key recordKey, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key.String()] = payload
	return nil
}

func (m *memoryBackend) apply(_ context.Context, b batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ResetUser {
		for k := range m.records {
			if ownedBy(k, b.UserID) {
				delete(m.records, k)
			}
		}
	}
	for _, w := range b.Writes {
		m.records[w.Key.String()] = w.Payload
	}
	return nil
}

// ownedBy matches "<kind>:<user>" and "<kind>:<user>:<module>".
func ownedBy(key string, userID int) bool {
	parts := strings.Split(key, ":")
	return len(parts) >= 2 && parts[1] == strconv.Itoa(userID)
}
