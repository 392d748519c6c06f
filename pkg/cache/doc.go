// Package cache implements the decision caches of the speed layer.
//
// FingerprintCache is Tier 1: a bounded LRU of resolved decisions keyed by
// command fingerprint, with confidence-dependent TTLs and a bloom-filter
// pre-filter that keeps first-time-seen lookups cheap. Memo is the shared
// short-TTL memoizer that Tiers 2 and 3 use to avoid re-evaluating
// deterministic rule and score computations for identical input.
//
// Expired entries are treated as misses and lazily evicted; a full cache
// evicts its least-recently-used entry. Nothing in this package returns an
// error: cache pressure and corruption degrade to miss behavior.
package cache
