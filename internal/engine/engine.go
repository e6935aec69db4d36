// Package engine holds the types and constants shared by every LPM
// engine (Patricia, LC-trie, Bloom) and by the callers that build and
// drive them: the FIB entry contract, the lookup interface, and the
// spec-mandated size constants.
//
// Keeping these in one leaf package (rather than letting each engine
// define its own copy) is what lets internal/patricia, internal/lctrie
// and internal/bloomfib share one notion of "FIB entry" without an
// import cycle back to the root package.
package engine

import (
	"fmt"

	"github.com/ngarch/xfib/internal/xid"
)

// MinLen and MaxLen bound the prefix lengths, in bits, that the Bloom
// engine's per-length bucketing accepts. A FIB entry in general may use
// any length in [1, xid.Bits] (see Validate).
const (
	MinLen = 20
	MaxLen = 159
	// WDIST is the number of distinct length classes in [MinLen, MaxLen].
	WDIST = MaxLen - MinLen + 1

	// NTimes sizes each length bucket's counting Bloom filter to NTimes
	// times the number of entries stored at that length.
	NTimes = 2

	// DefaultErrorRate is the target false-positive rate used when a
	// build does not specify one explicitly.
	DefaultErrorRate = 0.05
)

// Entry is a single FIB tuple: a 160-bit prefix, its length in bits, and
// the opaque nexthop it resolves to. Bits of Prefix at position >= Len
// must be zero (canonicalized at load); Build implementations enforce
// this rather than trusting the caller.
type Entry struct {
	Prefix  xid.XID
	Len     int
	Nexthop uint32
}

// Canonical reports whether e.Prefix has no set bits at or beyond e.Len.
func (e Entry) Canonical() bool {
	return xid.IsCanonical(e.Prefix, e.Len)
}

// Validate checks the structural invariants a FIB entry must satisfy
// before any engine may build over it.
func (e Entry) Validate() error {
	if e.Len < 1 || e.Len > xid.Bits {
		return fmt.Errorf("engine: entry length %d out of range [1,%d]", e.Len, xid.Bits)
	}
	if !e.Canonical() {
		return fmt.Errorf("engine: entry prefix %s is not canonical at length %d", e.Prefix, e.Len)
	}
	return nil
}

// Lookup is the single contract all three LPM engines implement: given a
// 160-bit key, return the nexthop of the longest matching prefix, or 0
// if none matches.
type Lookup interface {
	Lookup(key xid.XID) uint32
}

// ValidateAll runs Validate over every entry and additionally rejects
// duplicate (prefix, length) pairs, which are ill-defined for every
// engine in this module (see the Patricia builder's base-vector
// invariant). Implementations reject malformed FIBs at this boundary
// rather than guessing a tie-break.
func ValidateAll(entries []Entry) error {
	seen := make(map[dupKey]struct{}, len(entries))
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("engine: entry %d: %w", i, err)
		}
		k := dupKey{e.Prefix, e.Len}
		if _, ok := seen[k]; ok {
			return fmt.Errorf("engine: duplicate entry (prefix=%s, len=%d)", e.Prefix, e.Len)
		}
		seen[k] = struct{}{}
	}
	return nil
}

type dupKey struct {
	prefix xid.XID
	length int
}
