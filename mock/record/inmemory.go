package record

import (
	"context"
	"sync"
)

// InMemoryStore keeps exchanges in an append-only slice. It is the default
// backend and the natural choice for tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	exchanges []Exchange
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Put appends one exchange.
func (s *InMemoryStore) Put(_ context.Context, ex Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = append(s.exchanges, ex)
	return nil
}

// List returns exchanges in insertion order, filtered by q.
func (s *InMemoryStore) List(_ context.Context, q Query) ([]Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Exchange
	skipped := 0
	for _, ex := range s.exchanges {
		if q.Method != "" && ex.Method != q.Method {
			continue
		}
		if q.Path != "" && ex.Path != q.Path {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		result = append(result, ex)
		if q.Limit > 0 && len(result) >= q.Limit {
			break
		}
	}

	return result, nil
}

// Close is a no-op for the in-memory backend.
func (s *InMemoryStore) Close() error {
	return nil
}
