package orchestrator

import "sync"

// MemoryStore is a process-local idempotency store. It is safe for
// concurrent use within one process but offers no protection across
// processes; use the sqlite-backed store for that.
type MemoryStore struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(map[string]struct{})}
}

func (s *MemoryStore) Has(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok, nil
}

func (s *MemoryStore) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
	return nil
}
