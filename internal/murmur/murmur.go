// Package murmur wraps MurmurHash3-x64-128 for the two consumers that
// share a single hash invocation per query: the counting Bloom filter
// (internal/cbloom) and the open-chained hashmap (internal/hashmap).
//
// Computing the hash once and splitting its 128 bits four ways is load
// bearing: a Bloom probe and its confirming hashmap lookup must never
// pay for two independent hash computations over the same key.
package murmur

import "github.com/spaolacci/murmur3"

// Salt is the fixed keyed-hash seed used across the whole module so that
// FIB builds and lookups are reproducible.
const Salt uint32 = 0x97c29b3a

// Hash128 is the 128-bit MurmurHash3-x64-128 digest of a key, split into
// four 32-bit words (h0, h1, h2, h3).
type Hash128 struct {
	H0, H1, H2, H3 uint32
}

// Sum computes the salted MurmurHash3-x64-128 digest of data.
func Sum(data []byte) Hash128 {
	hi, lo := murmur3.Sum128WithSeed(data, Salt)
	return Hash128{
		H0: uint32(hi >> 32),
		H1: uint32(hi),
		H2: uint32(lo >> 32),
		H3: uint32(lo),
	}
}

// BloomWords returns (h0, h1), the pair the counting Bloom filter's
// double-hashing scheme consumes.
func (h Hash128) BloomWords() (uint32, uint32) {
	return h.H0, h.H1
}

// MapKey64 returns h2‖h3 as a single 64-bit value, the precomputed slot
// hash the hashmap indexes with instead of re-hashing the key.
func (h Hash128) MapKey64() uint64 {
	return uint64(h.H2)<<32 | uint64(h.H3)
}
