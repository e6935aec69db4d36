// Package cbloom implements a counting Bloom filter with 4-bit counters
// and a double-hashing scheme derived from a single MurmurHash3-x64-128
// digest, as specified for the Bloom-based LPM engine (internal/bloomfib).
//
// Counters are insert-only in this module's actual usage (the engine
// never removes an entry once built), but Remove is implemented because
// the underlying counter array supports it and a partial port that
// silently dropped it would misrepresent the data structure.
package cbloom

import (
	"errors"
	"fmt"
	"math"

	"github.com/ngarch/xfib/internal/murmur"
)

// maxCounter is the saturation value of a 4-bit counter.
const maxCounter = 15

// Filter is a counting Bloom filter: nFuncs independent hash functions,
// each indexing its own counts-per-func span of 4-bit counters so that
// distinct functions never collide on the same counter.
type Filter struct {
	nFuncs        int
	countsPerFunc int
	counters      []byte // packed two 4-bit counters per byte
}

// New builds a counting Bloom filter sized for capacity expected
// insertions at the target false-positive errorRate.
//
//	nFuncs        = ceil(log2(1/errorRate))
//	countsPerFunc = ceil(capacity * |ln(errorRate)| / (nFuncs * ln(2)^2))
//
// New fails if these parameters would yield nFuncs <= 0.
func New(capacity int, errorRate float64) (*Filter, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cbloom: capacity must be positive, got %d", capacity)
	}
	if errorRate <= 0 || errorRate >= 1 {
		return nil, fmt.Errorf("cbloom: errorRate must be in (0,1), got %v", errorRate)
	}

	nFuncs := int(math.Ceil(math.Log2(1 / errorRate)))
	if nFuncs <= 0 {
		return nil, fmt.Errorf("cbloom: errorRate %v yields non-positive n_funcs", errorRate)
	}

	ln2 := math.Ln2
	countsPerFunc := int(math.Ceil(float64(capacity) * math.Abs(math.Log(errorRate)) / (float64(nFuncs) * ln2 * ln2)))
	if countsPerFunc <= 0 {
		countsPerFunc = 1
	}

	total := nFuncs * countsPerFunc
	return &Filter{
		nFuncs:        nFuncs,
		countsPerFunc: countsPerFunc,
		counters:      make([]byte, (total+1)/2),
	}, nil
}

// slots returns the nFuncs counter indices a hash digest maps to, via
// double hashing: slot(i) = i*countsPerFunc + (h0 + i*h1) mod countsPerFunc.
func (f *Filter) slots(h0, h1 uint32, dst []int) []int {
	if cap(dst) < f.nFuncs {
		dst = make([]int, f.nFuncs)
	}
	dst = dst[:f.nFuncs]
	for i := 0; i < f.nFuncs; i++ {
		offset := (uint64(h0) + uint64(i)*uint64(h1)) % uint64(f.countsPerFunc)
		dst[i] = i*f.countsPerFunc + int(offset)
	}
	return dst
}

func (f *Filter) get(i int) byte {
	b := f.counters[i/2]
	if i%2 == 0 {
		return b & 0x0f
	}
	return b >> 4
}

func (f *Filter) set(i int, v byte) {
	idx := i / 2
	if i%2 == 0 {
		f.counters[idx] = (f.counters[idx] & 0xf0) | (v & 0x0f)
	} else {
		f.counters[idx] = (f.counters[idx] & 0x0f) | (v << 4)
	}
}

// ErrCounterOverflow indicates a 4-bit counter saturated past 15; the
// engine treats this as a fatal build-time sizing bug.
var ErrCounterOverflow = errors.New("cbloom: counter overflow")

// ErrCounterUnderflow indicates Remove was called against a counter
// that was already zero.
var ErrCounterUnderflow = errors.New("cbloom: counter underflow")

// AddWords inserts the key whose digest's first two words are (h0, h1).
// It reports ErrCounterOverflow if any touched counter would exceed 15;
// the filter is left with the offending counter saturated, which callers
// must treat as a fatal build failure.
func (f *Filter) AddWords(h0, h1 uint32) error {
	var buf [8]int
	slots := f.slots(h0, h1, buf[:0])
	var overflowed bool
	for _, s := range slots {
		v := f.get(s)
		if v >= maxCounter {
			overflowed = true
			continue
		}
		f.set(s, v+1)
	}
	if overflowed {
		return ErrCounterOverflow
	}
	return nil
}

// Add is a convenience wrapper over AddWords taking a precomputed digest.
func (f *Filter) Add(h murmur.Hash128) error {
	h0, h1 := h.BloomWords()
	return f.AddWords(h0, h1)
}

// RemoveWords decrements the counters for (h0, h1), failing if any of
// them is already zero.
func (f *Filter) RemoveWords(h0, h1 uint32) error {
	var buf [8]int
	slots := f.slots(h0, h1, buf[:0])
	for _, s := range slots {
		if f.get(s) == 0 {
			return ErrCounterUnderflow
		}
	}
	for _, s := range slots {
		f.set(s, f.get(s)-1)
	}
	return nil
}

// Remove is a convenience wrapper over RemoveWords.
func (f *Filter) Remove(h murmur.Hash128) error {
	h0, h1 := h.BloomWords()
	return f.RemoveWords(h0, h1)
}

// CheckWords reports whether every counter indexed by (h0, h1) is
// nonzero, i.e. whether the corresponding key may be a member.
func (f *Filter) CheckWords(h0, h1 uint32) bool {
	var buf [8]int
	slots := f.slots(h0, h1, buf[:0])
	for _, s := range slots {
		if f.get(s) == 0 {
			return false
		}
	}
	return true
}

// Check is a convenience wrapper over CheckWords taking a precomputed digest.
func (f *Filter) Check(h murmur.Hash128) bool {
	h0, h1 := h.BloomWords()
	return f.CheckWords(h0, h1)
}

// NFuncs reports the number of hash functions derived for this filter.
func (f *Filter) NFuncs() int { return f.nFuncs }

// CountsPerFunc reports the number of counters dedicated to each hash function.
func (f *Filter) CountsPerFunc() int { return f.countsPerFunc }
