package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smellcheck/internal/llm"
	"smellcheck/internal/review"
)

func newTestStore(max int, ttl time.Duration) *Store {
	client := llm.NewFakeClient()
	return NewStore(max, ttl, func() *review.Service {
		return review.NewService(client, review.NewSession("test-key"))
	})
}

func TestGetOrCreateIsStableWithinTTL(t *testing.T) {
	s := newTestStore(4, time.Minute)

	a := s.GetOrCreate("one")
	require.NotNil(t, a)
	assert.Same(t, a, s.GetOrCreate("one"), "same ID within the TTL returns the same session")
	assert.NotSame(t, a, s.GetOrCreate("two"))
	assert.Equal(t, 2, s.Len())
}

func TestIdleSessionAgesOut(t *testing.T) {
	s := newTestStore(4, 30*time.Millisecond)

	a := s.GetOrCreate("one")
	time.Sleep(80 * time.Millisecond)
	b := s.GetOrCreate("one")
	assert.NotSame(t, a, b, "an idle session must be replaced after the TTL")
}

func TestCapacityEvictsOldest(t *testing.T) {
	s := newTestStore(2, time.Minute)

	a := s.GetOrCreate("one")
	_ = s.GetOrCreate("two")
	_ = s.GetOrCreate("three")
	assert.Equal(t, 2, s.Len())

	b := s.GetOrCreate("one")
	assert.NotSame(t, a, b, "the oldest session is evicted at capacity")
}

func TestNewIDUniqueAndPrefixed(t *testing.T) {
	a, b := NewID(), NewID()
	assert.True(t, strings.HasPrefix(a, "sess-"))
	assert.NotEqual(t, a, b)
}
