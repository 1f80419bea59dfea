package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

type memoryEntry struct {
	admin     bool
	rooms     []string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Used when no Redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) LoadSession(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, id)
		return nil, nil
	}
	return Restore(id, e.admin, e.rooms), nil
}

func (m *MemoryStore) SaveSession(_ context.Context, s *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms := s.Rooms()
	if prev, ok := m.entries[s.ID]; ok && !m.now().After(prev.expiresAt) {
		rooms = lo.Union(prev.rooms, rooms)
		sort.Strings(rooms)
	}
	m.entries[s.ID] = memoryEntry{
		admin:     s.IsAdmin(),
		rooms:     rooms,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}
