// Package golden provides a simple, slow, obviously-correct longest
// prefix match table used as a reference implementation against which
// the three fast engines (Patricia, LC-trie, Bloom) are checked. It
// trades every bit of cache-friendliness for an implementation short
// enough to read in one sitting and trust by inspection.
package golden

import (
	"slices"

	"github.com/ngarch/xfib/internal/engine"
	"github.com/ngarch/xfib/internal/xid"
)

// Table is a golden reference FIB: a plain slice of entries searched
// linearly. It implements engine.Lookup so it can stand in wherever a
// fast engine is expected, e.g. in cross-engine correctness checks.
type Table []engine.Entry

// Build canonicalizes and copies entries into a new Table. Unlike the
// fast engines it does not reject duplicate (prefix, len) pairs; the
// last one wins, matching a naive route table's de-dupe-on-insert
// behavior.
func Build(entries []engine.Entry) Table {
	t := make(Table, 0, len(entries))
	for _, e := range entries {
		e.Prefix = xid.Mask(e.Prefix, e.Len)
		t.insert(e)
	}
	return t
}

func (t *Table) insert(e engine.Entry) {
	for i, item := range *t {
		if item.Prefix == e.Prefix && item.Len == e.Len {
			(*t)[i].Nexthop = e.Nexthop
			return
		}
	}
	*t = append(*t, e)
}

// Lookup performs an O(n) longest-prefix-match scan: the entry whose
// prefix matches key with the greatest Len wins.
func (t Table) Lookup(key xid.XID) uint32 {
	bestLen := -1
	var nexthop uint32
	for _, e := range t {
		if xid.Mask(key, e.Len) == e.Prefix && e.Len > bestLen {
			nexthop = e.Nexthop
			bestLen = e.Len
		}
	}
	return nexthop
}

// AllSorted returns the table's entries sorted by (prefix, len), mainly
// for deterministic test output.
func (t Table) AllSorted() []engine.Entry {
	out := slices.Clone([]engine.Entry(t))
	slices.SortFunc(out, func(a, b engine.Entry) int {
		if c := xid.Compare(a.Prefix, b.Prefix); c != 0 {
			return c
		}
		return a.Len - b.Len
	})
	return out
}

var _ engine.Lookup = Table(nil)
