// Package bloomfib implements the parallel counting-Bloom-filter and
// hashtable LPM engine (C8): one counting Bloom filter and one exact
// hashmap per distinct prefix length in [engine.MinLen, engine.MaxLen].
// A lookup probes each active length's Bloom filter and confirms the
// first (longest) hit against that length's hashmap, which is
// authoritative; the Bloom filter is an accelerant that may produce
// false positives but never false negatives.
package bloomfib

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/ngarch/xfib/internal/cbloom"
	"github.com/ngarch/xfib/internal/engine"
	"github.com/ngarch/xfib/internal/hashmap"
	"github.com/ngarch/xfib/internal/murmur"
	"github.com/ngarch/xfib/internal/xid"
)

// bucket holds the per-length state described by the source's
// invariant: present iff n_entries > 0 iff bloom != nil iff map != nil.
// Presence itself is tracked separately in Engine.active, a compact
// bitset rather than a bool per bucket, so Lookup can skip an entire
// inactive length with a single bit test.
type bucket struct {
	bloom *cbloom.Filter
	table *hashmap.Map
}

// Engine is a built Bloom-based LPM engine ready for lookups.
type Engine struct {
	errorRate float64
	active    *bitset.BitSet // bit i set iff length (i+engine.MinLen) has a bucket
	buckets   [engine.WDIST]bucket
}

// Build partitions entries by prefix length and builds one counting
// Bloom filter (sized engine.NTimes times the bucket's entry count) plus
// one hashmap per nonempty length. errorRate is the target Bloom
// false-positive rate; a non-positive value defaults to
// engine.DefaultErrorRate.
func Build(entries []engine.Entry, errorRate float64) (*Engine, error) {
	if err := engine.ValidateAll(entries); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Len < engine.MinLen || e.Len > engine.MaxLen {
			return nil, fmt.Errorf("bloomfib: entry length %d out of bucketed range [%d,%d]", e.Len, engine.MinLen, engine.MaxLen)
		}
	}
	if errorRate <= 0 {
		errorRate = engine.DefaultErrorRate
	}

	e := &Engine{errorRate: errorRate, active: bitset.New(uint(engine.WDIST))}

	counts := make(map[int]int, engine.WDIST)
	for _, entry := range entries {
		counts[entry.Len]++
	}

	for length, n := range counts {
		b, err := cbloom.New(engine.NTimes*n, errorRate)
		if err != nil {
			return nil, fmt.Errorf("bloomfib: building length-%d bucket: %w", length, err)
		}
		e.buckets[length-engine.MinLen] = bucket{
			bloom: b,
			table: hashmap.New(n),
		}
		e.active.Set(uint(length - engine.MinLen))
	}

	for _, entry := range entries {
		b := &e.buckets[entry.Len-engine.MinLen]
		h := murmur.Sum(entry.Prefix[:])
		if err := b.bloom.Add(h); err != nil {
			return nil, fmt.Errorf("bloomfib: length-%d bucket: %w", entry.Len, err)
		}
		b.table.Insert(entry.Prefix, entry.Nexthop, h.MapKey64())
	}

	return e, nil
}

// Lookup probes every active length from MaxLen down to MinLen,
// confirming the first Bloom hit against that length's hashmap. Because
// lengths are visited longest-first, the first exact hashmap match is
// necessarily the longest matching prefix in the FIB; a Bloom false
// positive costs one extra hashmap miss but can never produce a wrong
// answer, since the hashmap is authoritative.
func (e *Engine) Lookup(key xid.XID) uint32 {
	for length := engine.MaxLen; length >= engine.MinLen; length-- {
		if !e.active.Test(uint(length - engine.MinLen)) {
			continue
		}
		b := &e.buckets[length-engine.MinLen]
		kl := xid.Mask(key, length)
		h := murmur.Sum(kl[:])
		if !b.bloom.Check(h) {
			continue
		}
		if v, ok := b.table.Get(kl, h.MapKey64()); ok {
			return v
		}
	}
	return 0
}

// ActiveLengths reports how many distinct prefix lengths have a
// nonempty bucket, mainly for test and benchmark introspection.
func (e *Engine) ActiveLengths() int {
	return int(e.active.Count())
}
