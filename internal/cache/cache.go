package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the TTL cache used by the snapshot aggregator to absorb repeated
// provider requests. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the payload for key, or ok=false on a miss. An entry older
	// than its TTL counts as a miss.
	Get(ctx context.Context, key string) (payload []byte, ok bool, err error)
	// Set stores payload under key with the given time-to-live.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

type memoryEntry struct {
	payload  []byte
	storedAt time.Time
	ttl      time.Duration
}

// Memory is an in-process TTL cache. Expired entries are evicted lazily on
// read; there is no background sweeper.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory builds an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.ttl > 0 && m.now().Sub(e.storedAt) > e.ttl {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.payload, true, nil
}

func (m *Memory) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		payload:  append([]byte(nil), payload...),
		storedAt: m.now(),
		ttl:      ttl,
	}
	return nil
}
