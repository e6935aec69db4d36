// Package fibgen produces synthetic FIBs for the benchmark harness
// (internal/engine consumers: Patricia, LC-trie, Bloom) and for
// property tests that need FIBs of a controlled shape.
//
// Generation draws from three independent, reproducibly seeded PRNG
// streams (length, prefix, nexthop) so that two runs with identical
// seeds produce byte-identical FIBs, mirroring the golden-data
// generators used elsewhere in this corpus.
package fibgen

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/ngarch/xfib/internal/engine"
	"github.com/ngarch/xfib/internal/xid"
)

// Config controls a single generation run.
type Config struct {
	// TableExp is k in entries = 2^k; must be in [4, 20].
	TableExp int

	// NumNexthops bounds the nexthop values drawn, uniform in [1, NumNexthops].
	NumNexthops int

	// MinLen and MaxRand control the prefix length distribution: lengths
	// are drawn uniform in [MinLen, MinLen+MaxRand). Zero values default
	// to engine.MinLen and engine.WDIST.
	MinLen  int
	MaxRand int

	// LenSeed, PrefixSeed, and NexthopSeed drive three independent PCG
	// streams, making generation reproducible across runs and processes.
	LenSeed, PrefixSeed, NexthopSeed [2]uint64
}

// Generate produces 2^cfg.TableExp deduplicated FIB entries.
func Generate(cfg Config) ([]engine.Entry, error) {
	if cfg.TableExp < 4 || cfg.TableExp > 20 {
		return nil, fmt.Errorf("fibgen: tablexp %d out of range [4,20]", cfg.TableExp)
	}
	minLen := cfg.MinLen
	if minLen == 0 {
		minLen = engine.MinLen
	}
	maxRand := cfg.MaxRand
	if maxRand == 0 {
		maxRand = engine.WDIST
	}
	if cfg.NumNexthops <= 0 {
		return nil, fmt.Errorf("fibgen: NumNexthops must be positive")
	}

	n := 1 << cfg.TableExp

	lenRng := rand.New(rand.NewPCG(cfg.LenSeed[0], cfg.LenSeed[1]))
	pfxRng := rand.New(rand.NewPCG(cfg.PrefixSeed[0], cfg.PrefixSeed[1]))
	nhRng := rand.New(rand.NewPCG(cfg.NexthopSeed[0], cfg.NexthopSeed[1]))

	entries := make([]engine.Entry, n)
	for i := range entries {
		length := minLen + lenRng.IntN(maxRand)
		entries[i] = engine.Entry{
			Prefix:  randomPrefix(pfxRng, length),
			Len:     length,
			Nexthop: uint32(1 + nhRng.IntN(cfg.NumNexthops)),
		}
	}

	dedupe(entries, pfxRng)
	return entries, nil
}

// randomPrefix draws a uniformly random XID masked to length bits.
func randomPrefix(rng *rand.Rand, length int) xid.XID {
	var raw xid.XID
	for i := range raw {
		raw[i] = byte(rng.UintN(256))
	}
	return xid.Mask(raw, length)
}

type sortKey struct {
	prefix xid.XID
	length int
}

func less(a, b sortKey) int {
	if c := xid.Compare(a.prefix, b.prefix); c != 0 {
		return c
	}
	if a.length < b.length {
		return -1
	}
	if a.length > b.length {
		return 1
	}
	return 0
}

// dedupe removes (prefix, length) collisions by regenerating each
// duplicate's prefix until it collides with neither the sorted live set
// (binary search) nor the other duplicates still being regenerated.
func dedupe(entries []engine.Entry, pfxRng *rand.Rand) {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	keyOf := func(i int) sortKey { return sortKey{entries[i].Prefix, entries[i].Len} }

	slices.SortFunc(order, func(a, b int) int { return less(keyOf(a), keyOf(b)) })

	live := make([]sortKey, 0, len(entries))
	seenLive := make(map[sortKey]struct{}, len(entries))

	var dups []int
	for _, idx := range order {
		k := keyOf(idx)
		if _, exists := seenLive[k]; exists {
			dups = append(dups, idx)
			continue
		}
		seenLive[k] = struct{}{}
		live = append(live, k)
	}
	sort.Slice(live, func(i, j int) bool { return less(live[i], live[j]) < 0 })

	regenerating := make(map[sortKey]struct{}, len(dups))

	for _, idx := range dups {
		length := entries[idx].Len
		for {
			candidate := randomPrefix(pfxRng, length)
			k := sortKey{candidate, length}
			if binarySearchHas(live, k) {
				continue
			}
			if _, clash := regenerating[k]; clash {
				continue
			}
			regenerating[k] = struct{}{}
			entries[idx].Prefix = candidate
			break
		}
	}
}

func binarySearchHas(live []sortKey, k sortKey) bool {
	i := sort.Search(len(live), func(i int) bool { return less(live[i], k) >= 0 })
	return i < len(live) && less(live[i], k) == 0
}
