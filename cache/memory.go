package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value   []byte
	expires time.Time
}

// MemoryStore keeps entries in process memory. Expiry is judged against the
// injected clock, so it can be driven by tests. Expired entries are dropped
// when read, and swept from the whole store at most once per ttl on Set.
type MemoryStore struct {
	mu        sync.Mutex
	now       func() time.Time
	entries   map[string]entry
	nextSweep time.Time
}

// NewMemoryStore returns an empty MemoryStore. A nil clock means time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		now:     now,
		entries: make(map[string]entry),
	}
}

var _ Store = &MemoryStore{}

// Get returns a copy of the value under key unless it has expired.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set stores a copy of value until ttl has passed on the store clock.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if !now.Before(m.nextSweep) {
		m.sweep(now)
		m.nextSweep = now.Add(ttl)
	}
	m.entries[key] = entry{
		value:   append([]byte(nil), value...),
		expires: now.Add(ttl),
	}
	return nil
}

// sweep drops every entry that has expired at now. m.mu must be held.
func (m *MemoryStore) sweep(now time.Time) {
	for key, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, key)
		}
	}
}

// Len returns the number of entries held, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// DeletePrefix drops all entries whose key starts with prefix.
func (m *MemoryStore) DeletePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}
