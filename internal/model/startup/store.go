package startup

import "sync"

// Store exposes startup retrieval for handlers and services.
type Store interface {
	List() []Startup
	FindByID(id string) (Startup, bool)
	Upsert(item Startup)
}

// MemoryStore implements Store with an in-memory slice kept in insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Startup
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied startups.
func NewMemoryStore(items []Startup) *MemoryStore {
	return &MemoryStore{items: append([]Startup(nil), items...)}
}

// List returns every startup.
func (s *MemoryStore) List() []Startup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Startup(nil), s.items...)
}

// FindByID looks up a startup by identifier.
func (s *MemoryStore) FindByID(id string) (Startup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Startup{}, false
}

// Upsert replaces the startup with the same ID or appends it.
func (s *MemoryStore) Upsert(item Startup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i] = item
			return
		}
	}
	s.items = append(s.items, item)
}
