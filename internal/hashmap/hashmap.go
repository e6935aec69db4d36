// Package hashmap implements an open-chained exact-match hashmap keyed
// by XID, used by both the Bloom-based LPM engine (to confirm a Bloom
// hit) and as a general XID -> uint32 lookup primitive.
//
// The table never hashes a key itself: callers precompute the 64-bit
// slot hash (h2‖h3 of the shared MurmurHash3 digest, see
// internal/murmur) once per query and pass it in, so a Bloom probe and
// its confirming hashmap lookup share a single hash invocation.
//
// Chains are represented as indices into an arena rather than heap
// pointers, following the arena+indices approach used throughout this
// module: no chain node is ever allocated or freed individually.
package hashmap

import "github.com/ngarch/xfib/internal/xid"

const loadFactorTarget = 0.75

type chainNode struct {
	key     xid.XID
	value   uint32
	next    int32 // -1 terminates the chain
	deleted bool  // tombstoned by Delete; skipped when grow relinks the arena
}

// Map is a fixed-key-type, open-chained hashmap.
type Map struct {
	buckets []int32 // head index into nodes, -1 if empty
	nodes   []chainNode
	h64s    []uint64 // precomputed slot hash per node, parallel to nodes
	count   int
}

// New returns a Map with a power-of-two table sized for at least
// initialCapacity entries at the target load factor.
func New(initialCapacity int) *Map {
	size := 16
	for float64(initialCapacity) > loadFactorTarget*float64(size) {
		size <<= 1
	}
	m := &Map{
		buckets: make([]int32, size),
		nodes:   make([]chainNode, 0, initialCapacity),
		h64s:    make([]uint64, 0, initialCapacity),
	}
	for i := range m.buckets {
		m.buckets[i] = -1
	}
	return m
}

func (m *Map) slot(h64 uint64) int {
	return int(h64 % uint64(len(m.buckets)))
}

// Insert sets key to value, using the caller-supplied precomputed slot
// hash h64. If key is already present, its value is updated. Insert may
// trigger a table doubling (rehash) when the load factor target is
// exceeded; rehashing re-derives each entry's slot from the new table
// size using the h64 stashed alongside it at insertion time, so no key
// is ever rehashed by the table itself.
func (m *Map) Insert(key xid.XID, value uint32, h64 uint64) {
	if idx, ok := m.find(key, h64); ok {
		m.nodes[idx].value = value
		return
	}

	if float64(m.count+1)/float64(len(m.buckets)) > loadFactorTarget {
		m.grow()
	}

	s := m.slot(h64)
	m.nodes = append(m.nodes, chainNode{key: key, value: value, next: m.buckets[s]})
	m.buckets[s] = int32(len(m.nodes) - 1)
	m.count++
	m.h64s = append(m.h64s, h64)
}

// Get looks up key using its precomputed slot hash h64.
func (m *Map) Get(key xid.XID, h64 uint64) (uint32, bool) {
	idx, ok := m.find(key, h64)
	if !ok {
		return 0, false
	}
	return m.nodes[idx].value, true
}

// Delete removes key, unlinking it from its chain and tombstoning its
// arena slot. The slot itself is not reclaimed (the arena never
// shrinks), but the tombstone keeps grow from relinking it into the
// rehashed table.
func (m *Map) Delete(key xid.XID, h64 uint64) bool {
	s := m.slot(h64)
	prev := int32(-1)
	cur := m.buckets[s]
	for cur != -1 {
		n := &m.nodes[cur]
		if n.key == key {
			if prev == -1 {
				m.buckets[s] = n.next
			} else {
				m.nodes[prev].next = n.next
			}
			n.deleted = true
			m.count--
			return true
		}
		prev = cur
		cur = n.next
	}
	return false
}

// Len reports the number of entries currently stored.
func (m *Map) Len() int { return m.count }

func (m *Map) find(key xid.XID, h64 uint64) (int32, bool) {
	s := m.slot(h64)
	cur := m.buckets[s]
	for cur != -1 {
		if m.nodes[cur].key == key {
			return cur, true
		}
		cur = m.nodes[cur].next
	}
	return -1, false
}

func (m *Map) grow() {
	newSize := len(m.buckets) << 1
	newBuckets := make([]int32, newSize)
	for i := range newBuckets {
		newBuckets[i] = -1
	}

	for i := range m.nodes {
		if m.nodes[i].deleted {
			continue
		}
		h64 := m.h64s[i]
		s := int(h64 % uint64(newSize))
		m.nodes[i].next = newBuckets[s]
		newBuckets[s] = int32(i)
	}
	m.buckets = newBuckets
}
