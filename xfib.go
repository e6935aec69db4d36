// Package xfib implements longest-prefix-match lookup over 160-bit XID
// forwarding information bases, via three interchangeable engines: a
// path-compressed radix trie (Patricia), its level-compressed
// derivative (LC-trie), and a parallel counting-Bloom-filter-plus-
// hashtable engine. All three share one contract: build once from an
// immutable FIB snapshot, then answer read-only Lookup calls.
//
// CLI argument parsing, textual FIB file I/O beyond the optional loader
// below, random-seed file loading, and timing printouts are the
// benchmark harness's concern (cmd/xfibbench), not this package's.
package xfib

import (
	"github.com/ngarch/xfib/internal/bloomfib"
	"github.com/ngarch/xfib/internal/engine"
	"github.com/ngarch/xfib/internal/lctrie"
	"github.com/ngarch/xfib/internal/patricia"
	"github.com/ngarch/xfib/internal/xid"
)

// Bits is the fixed width, in bits, of every XID and FIB prefix.
const Bits = xid.Bits

// MinLen and MaxLen bound the valid prefix lengths a Bloom-engine build
// buckets by; Patricia and LC-trie accept any length in [1, Bits].
const (
	MinLen = engine.MinLen
	MaxLen = engine.MaxLen
)

// DefaultErrorRate is the Bloom false-positive rate used when a
// Bloom-engine build is not given an explicit one.
const DefaultErrorRate = engine.DefaultErrorRate

// XID is a 160-bit big-endian bitstring.
type XID = xid.XID

// Entry is a single FIB tuple: a 160-bit prefix, its length in bits,
// and the opaque 32-bit nexthop it resolves to. Prefix bits at
// positions >= Len must be zero; every constructor in this package
// validates and rejects FIBs that violate this.
type Entry = engine.Entry

// Engine is the single lookup contract shared by all three LPM
// engines: given a 160-bit key, return the nexthop of the longest
// matching FIB prefix, or 0 if none matches.
type Engine interface {
	Lookup(key XID) uint32
}

// NewPatriciaEngine builds the baseline path-compressed radix trie
// engine over entries.
func NewPatriciaEngine(entries []Entry) (Engine, error) {
	return patricia.Build(entries)
}

// NewLCTrieEngine builds a Patricia trie and compresses it into a
// level- and path-compressed, word-packed array for cache-efficient
// descent. Its Lookup results are guaranteed identical to the Patricia
// trie it was compressed from.
func NewLCTrieEngine(entries []Entry) (Engine, error) {
	pt, err := patricia.Build(entries)
	if err != nil {
		return nil, err
	}
	return lctrie.Build(pt)
}

// NewBloomEngine builds the parallel counting-Bloom-filter and hashtable
// engine, bucketed by prefix length. A non-positive errorRate defaults
// to DefaultErrorRate.
func NewBloomEngine(entries []Entry, errorRate float64) (Engine, error) {
	return bloomfib.Build(entries, errorRate)
}
