package cache

import (
	"sync"
	"time"
)

// memoSweepThreshold is how many writes between full expiry sweeps.
const memoSweepThreshold = 1024

// Memo is a short-TTL memoizer keyed by fingerprint. Tiers 2 and 3 wrap
// their evaluators with one, since rule evaluation and risk scoring are
// deterministic for identical input. Expired entries read as misses and are
// dropped lazily; a full sweep runs every memoSweepThreshold writes.
type Memo[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoEntry[V]
	writes  int
}

type memoEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewMemo creates a memoizer whose entries live for ttl.
func NewMemo[V any](ttl time.Duration) *Memo[V] {
	return &Memo[V]{
		ttl:     ttl,
		entries: make(map[string]memoEntry[V]),
	}
}

// Get returns the memoized value for a key if it has not expired.
func (m *Memo[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Put memoizes a value for the configured TTL.
func (m *Memo[V]) Put(key string, value V) {
	if m.ttl <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoEntry[V]{
		value:     value,
		expiresAt: time.Now().Add(m.ttl),
	}

	m.writes++
	if m.writes >= memoSweepThreshold {
		m.writes = 0
		m.sweepLocked()
	}
}

// Len returns the current number of entries, expired or not.
func (m *Memo[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// sweepLocked drops all expired entries. Caller must hold the lock.
func (m *Memo[V]) sweepLocked() {
	now := time.Now()
	for key, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
}
