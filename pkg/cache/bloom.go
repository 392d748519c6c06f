package cache

import (
	"hash/fnv"
	"sync"
)

// bloomBitsPerEntry and bloomHashes give roughly a 1% false-positive rate
// at the cache's rated capacity.
const (
	bloomBitsPerEntry = 10
	bloomHashes       = 7
)

// bloomFilter is a fixed-size bloom filter used as a membership pre-filter
// in front of the fingerprint cache. A negative answer is definitive
// ("this fingerprint has never been stored"); a positive answer still
// requires a map lookup. The filter only accumulates, so entries evicted
// from the cache may keep testing positive; that costs one map lookup and
// nothing else.
type bloomFilter struct {
	mu   sync.RWMutex
	bits []uint64
	m    uint64
}

// newBloomFilter sizes the filter for the given expected entry count.
func newBloomFilter(capacity int) *bloomFilter {
	m := uint64(capacity) * bloomBitsPerEntry
	if m < 64 {
		m = 64
	}
	return &bloomFilter{
		bits: make([]uint64, (m+63)/64),
		m:    m,
	}
}

// Add marks a key as present.
func (f *bloomFilter) Add(key string) {
	h1, h2 := bloomHash(key)

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := uint64(0); i < bloomHashes; i++ {
		bit := (h1 + i*h2) % f.m
		f.bits[bit/64] |= 1 << (bit % 64)
	}
}

// MayContain reports whether the key might have been added. False means
// definitely never added.
func (f *bloomFilter) MayContain(key string) bool {
	h1, h2 := bloomHash(key)

	f.mu.RLock()
	defer f.mu.RUnlock()
	for i := uint64(0); i < bloomHashes; i++ {
		bit := (h1 + i*h2) % f.m
		if f.bits[bit/64]&(1<<(bit%64)) == 0 {
			return false
		}
	}
	return true
}

// bloomHash derives the two base hashes used for double hashing.
func bloomHash(key string) (uint64, uint64) {
	h := fnv.New64a()
	h.Write([]byte(key))
	h1 := h.Sum64()

	h.Write([]byte{0xff})
	h2 := h.Sum64() | 1 // odd, so the stride cycles the full table

	return h1, h2
}
