package tokens

import (
	"sync"
	"time"
)

// MemoryStore keeps tokens in process memory. This is the default
// backend: single-instance deployments get atomic check-and-delete from
// the mutex alone. Multi-instance deployments must use the redis store
// instead, or accept weaker replay protection.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]*Token
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]*Token)}
}

func (s *MemoryStore) Put(t *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[t.ID] = t
	return nil
}

func (s *MemoryStore) Take(id string, userID int64, kind Kind) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[id]
	if !ok {
		return nil, nil
	}
	if t.UserID != userID || t.Kind != kind {
		return nil, nil
	}

	delete(s.tokens, id)
	return t, nil
}

func (s *MemoryStore) Purge(deadline time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, t := range s.tokens {
		if t.IssuedAt.Before(deadline) {
			delete(s.tokens, id)
			purged++
		}
	}
	return purged, nil
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tokens)
}
