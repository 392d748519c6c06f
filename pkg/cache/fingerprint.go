package cache

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"sentinel-hq/ceres/pkg/validation"
)

// Record is one memoized decision in the fingerprint cache.
type Record struct {
	// Fingerprint is the cache key.
	Fingerprint string

	// Decision is the memoized decision.
	Decision *validation.Decision

	// ExpiresAt is when this record stops being served.
	ExpiresAt time.Time

	// HitCount is how many lookups this record has served.
	HitCount int64

	// LastAccessed is when this record last served a lookup.
	LastAccessed time.Time
}

// Expired reports whether the record is past its TTL.
func (r *Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// FingerprintCache is the Tier 1 exact-match decision cache: a bounded LRU
// keyed by fingerprint with per-record TTLs and a bloom pre-filter.
// All methods are safe for concurrent use.
type FingerprintCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	filter   *bloomFilter
	logger   *slog.Logger
}

// NewFingerprintCache creates a cache bounded to capacity records.
func NewFingerprintCache(capacity int, logger *slog.Logger) *FingerprintCache {
	if capacity <= 0 {
		capacity = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FingerprintCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
		filter:   newBloomFilter(capacity),
		logger:   logger.With("component", "cache.fingerprint"),
	}
}

// Lookup returns the unexpired record for a fingerprint, or nil on miss.
// An expired record is lazily evicted and reported as a miss. The bloom
// pre-filter short-circuits fingerprints that have never been stored
// without touching the map.
func (c *FingerprintCache) Lookup(fingerprint string) *Record {
	if !c.filter.MayContain(fingerprint) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[fingerprint]
	if !ok {
		return nil
	}

	rec := elem.Value.(*Record)
	now := time.Now()
	if rec.Expired(now) {
		c.removeLocked(elem)
		return nil
	}

	rec.HitCount++
	rec.LastAccessed = now
	c.order.MoveToFront(elem)
	return rec
}

// Store inserts or refreshes the decision for a fingerprint with the given
// TTL, evicting the least-recently-used record under capacity pressure.
func (c *FingerprintCache) Store(fingerprint string, decision *validation.Decision, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[fingerprint]; ok {
		rec := elem.Value.(*Record)
		rec.Decision = decision
		rec.ExpiresAt = now.Add(ttl)
		rec.LastAccessed = now
		c.order.MoveToFront(elem)
		return
	}

	for len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		evicted := oldest.Value.(*Record)
		c.removeLocked(oldest)
		c.logger.Debug("evicted record under capacity pressure",
			"fingerprint", evicted.Fingerprint,
			"hit_count", evicted.HitCount,
		)
	}

	rec := &Record{
		Fingerprint:  fingerprint,
		Decision:     decision,
		ExpiresAt:    now.Add(ttl),
		LastAccessed: now,
	}
	c.entries[fingerprint] = c.order.PushFront(rec)
	c.filter.Add(fingerprint)
}

// Invalidate removes a fingerprint's record, if present.
func (c *FingerprintCache) Invalidate(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[fingerprint]; ok {
		c.removeLocked(elem)
	}
}

// Len returns the number of records currently held, expired or not.
func (c *FingerprintCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// removeLocked drops an entry from the map and the LRU list.
// Caller must hold the lock.
func (c *FingerprintCache) removeLocked(elem *list.Element) {
	rec := elem.Value.(*Record)
	delete(c.entries, rec.Fingerprint)
	c.order.Remove(elem)
}
