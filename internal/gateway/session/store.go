package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"smellcheck/internal/review"
)

// Factory builds the review service backing one browser session.
type Factory func() *review.Service

// Store is the live-session registry: one review.Service per session ID,
// bounded in count and idle time. Sessions are in-memory only, so eviction
// is harmless; an evicted ID just starts a fresh session on next use.
type Store struct {
	mu    sync.Mutex
	lru   *expirable.LRU[string, *review.Service]
	newFn Factory
}

// NewStore creates a registry holding at most max sessions, each aged out
// after ttl of inactivity.
func NewStore(max int, ttl time.Duration, newFn Factory) *Store {
	if max <= 0 {
		max = 256
	}
	return &Store{
		lru:   expirable.NewLRU[string, *review.Service](max, nil, ttl),
		newFn: newFn,
	}
}

// GetOrCreate returns the service for id, creating it on first use. The lock
// makes the read-through atomic, so concurrent requests with a new ID end up
// sharing one service instead of racing two into the registry.
func (s *Store) GetOrCreate(id string) *review.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc, ok := s.lru.Get(id); ok {
		return svc
	}
	svc := s.newFn()
	s.lru.Add(id, svc)
	return svc
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

var idCounter atomic.Uint64

// NewID mints a session identifier. The counter keeps IDs unique even when
// two are minted in the same nanosecond.
func NewID() string {
	return fmt.Sprintf("sess-%d-%d", time.Now().UnixNano(), idCounter.Add(1))
}
