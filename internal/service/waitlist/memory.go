package waitlist

import (
	"context"
	"sync"
)

// MemoryRepository keeps signups in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]Entry)}
}

func (r *MemoryRepository) Add(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.Email] = entry
	return nil
}

func (r *MemoryRepository) Exists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[email]
	return ok, nil
}

func (r *MemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries), nil
}

func (r *MemoryRepository) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]Entry)
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
