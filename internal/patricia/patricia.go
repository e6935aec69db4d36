// Package patricia implements the path-compressed radix trie (Patricia)
// LPM engine: the baseline of the three interchangeable engines this
// module provides, and the structure the LC-trie compressor
// (internal/lctrie) consumes as its input.
//
// Node children are represented as int32 indices into a single arena
// slice rather than heap pointers (see the module's design notes on
// arena+indices tries): the builder appends nodes depth-first and never
// frees one individually, and the level-compression pass in
// internal/lctrie walks those indices to lay out its own packed array
// instead of chasing and freeing a cascade of pointers.
package patricia

import (
	"fmt"
	"slices"
	"sort"

	"github.com/ngarch/xfib/internal/engine"
	"github.com/ngarch/xfib/internal/xid"
)

// noChild marks the absence of a child/pre/base link in the arenas below.
const noChild = -1

// Node is a Patricia trie node. Internal nodes carry Skip >= 0 and two
// children; leaves carry Base as an index into the base vector and
// Left == Right == noChild.
type Node struct {
	Skip        int
	Left, Right int32
	Base        int32
}

// IsLeaf reports whether n is a leaf (i.e. has no children).
func (n Node) IsLeaf() bool { return n.Base != noChild }

// BaseEntry is a base-vector entry: a FIB prefix that is not a proper
// prefix of any other stored prefix. Pre chains to the longest
// shorter-prefix entry (in the prefix vector) that also matches this
// entry's bits, or noChild if there is none.
type BaseEntry struct {
	Str        xid.XID
	Len        int
	Pre        int32
	NexthopIdx int32
}

// PrefixEntry is a prefix-vector entry: a FIB prefix that is a proper
// prefix of some other stored prefix. Pre chains onward exactly like
// BaseEntry.Pre.
type PrefixEntry struct {
	Len        int
	Pre        int32
	NexthopIdx int32
}

// Trie is a built Patricia trie ready for lookups.
type Trie struct {
	Nodes    []Node
	Root     int32
	Bases    []BaseEntry
	Prefixes []PrefixEntry
	Nexthops []uint32
}

// Build constructs a Patricia trie over entries. It fails if entries
// contains a duplicate (prefix, len) pair or any structurally invalid
// entry; per this module's resolution of the source's open question on
// duplicate removal, such FIBs are rejected rather than given a silent
// tie-break.
func Build(entries []engine.Entry) (*Trie, error) {
	if err := engine.ValidateAll(entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("patricia: cannot build over an empty FIB")
	}

	nexthops := dedupeNexthops(entries)

	sorted := make([]engine.Entry, len(entries))
	copy(sorted, entries)
	slices.SortFunc(sorted, func(a, b engine.Entry) int {
		if c := xid.Compare(a.Prefix, b.Prefix); c != 0 {
			return c
		}
		return a.Len - b.Len
	})

	t := &Trie{Nexthops: nexthops}
	t.partition(sorted)

	if len(t.Bases) == 0 {
		return nil, fmt.Errorf("patricia: FIB has no base entries after partitioning")
	}

	root := t.buildSubtrie(0, len(t.Bases), 0)
	t.Root = root
	return t, nil
}

// dedupeNexthops builds a sorted, deduplicated nexthop vector. Entries
// are not rewritten here; partition assigns each entry's nexthop index
// by binary search over this vector (nexthopIndex).
func dedupeNexthops(entries []engine.Entry) []uint32 {
	seen := make(map[uint32]struct{})
	for _, e := range entries {
		seen[e.Nexthop] = struct{}{}
	}
	out := make([]uint32, 0, len(seen))
	for nh := range seen {
		out = append(out, nh)
	}
	slices.Sort(out)
	return out
}

func (t *Trie) nexthopIndex(nh uint32) int32 {
	i, ok := sort.Find(len(t.Nexthops), func(i int) int {
		switch {
		case t.Nexthops[i] < nh:
			return 1
		case t.Nexthops[i] > nh:
			return -1
		default:
			return 0
		}
	})
	if !ok {
		panic("patricia: nexthop missing from deduplicated vector")
	}
	return int32(i)
}

type stackItem struct {
	prefixVecIdx int32
	length       int
	prefixBits   xid.XID
}

// partition separates sorted entries into base and prefix vectors and
// wires up each base's pre chain to the longest shorter-prefix entry
// that still matches it, using a stack of currently-open ancestors: the
// classic sorted-prefix-list construction also used to build radix
// routing tries from a flat, pre-sorted route list.
func (t *Trie) partition(sorted []engine.Entry) {
	n := len(sorted)
	var stack []stackItem

	for i, e := range sorted {
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.length <= e.Len && xid.Mask(e.Prefix, top.length) == top.prefixBits {
				break
			}
			stack = stack[:len(stack)-1]
		}

		var pre int32 = noChild
		if len(stack) > 0 {
			pre = stack[len(stack)-1].prefixVecIdx
		}

		isPrefixEntry := i+1 < n && e.Len <= sorted[i+1].Len && xid.Mask(sorted[i+1].Prefix, e.Len) == e.Prefix

		if isPrefixEntry {
			idx := int32(len(t.Prefixes))
			t.Prefixes = append(t.Prefixes, PrefixEntry{
				Len:        e.Len,
				Pre:        pre,
				NexthopIdx: t.nexthopIndex(e.Nexthop),
			})
			stack = append(stack, stackItem{idx, e.Len, e.Prefix})
		} else {
			t.Bases = append(t.Bases, BaseEntry{
				Str:        e.Prefix,
				Len:        e.Len,
				Pre:        pre,
				NexthopIdx: t.nexthopIndex(e.Nexthop),
			})
		}
	}
}

// buildSubtrie recursively builds the trie over base-vector range
// [first, first+count), having already consumed p leading bits. It
// returns the index of the root node of that subtrie.
func (t *Trie) buildSubtrie(first, count, p int) int32 {
	if count == 1 {
		idx := int32(len(t.Nodes))
		t.Nodes = append(t.Nodes, Node{Base: int32(first), Left: noChild, Right: noChild})
		return idx
	}

	newP := skipcompute(p, t.Bases[first].Str, t.Bases[first+count-1].Str)
	skip := newP - p

	splitIdx := sort.Search(count, func(i int) bool {
		return t.Bases[first+i].Str.Bit(newP) == 1
	}) + first

	left := t.buildSubtrie(first, splitIdx-first, newP+1)
	right := t.buildSubtrie(splitIdx, first+count-splitIdx, newP+1)

	idx := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{Skip: skip, Left: left, Right: right, Base: noChild})
	return idx
}

// skipcompute scans bits starting at position p and returns the
// absolute position of the first bit at which a and b differ. Callers
// guarantee a != b, so such a position always exists.
func skipcompute(p int, a, b xid.XID) int {
	for pos := p; pos < xid.Bits; pos++ {
		if a.Bit(pos) != b.Bit(pos) {
			return pos
		}
	}
	panic("patricia: skipcompute called on identical keys")
}

// Lookup walks the trie to a leaf, then confirms against the base entry
// and, on mismatch, the pre chain of shorter matching prefixes. It
// returns 0 if no prefix in the FIB matches key.
func (t *Trie) Lookup(key xid.XID) uint32 {
	pos := 0
	cur := t.Root
	for {
		node := t.Nodes[cur]
		if node.IsLeaf() {
			return Confirm(t.Bases, t.Prefixes, t.Nexthops, node.Base, key)
		}
		pos += node.Skip
		if key.Bit(pos) == 0 {
			cur = node.Left
		} else {
			cur = node.Right
		}
		pos++
	}
}

// Confirm implements the leaf/pre-chain confirmation shared by the
// Patricia and LC-trie lookup paths: compare key against the base
// entry's own prefix, then walk the pre chain of strictly decreasing
// length until a match is found or the chain is exhausted.
//
// A prefix-vector entry does not store its own bit pattern (see the
// data model): by construction every entry reachable from baseIdx's pre
// chain is a proper prefix of bases[baseIdx].Str, so that entry's bits
// are recoverable as bases[baseIdx].Str masked to the entry's own
// length. Comparing the query against that masked value is therefore
// equivalent to comparing against the original (unstored) prefix.
//
// The chain is built in decreasing-length order (see partition), so the
// first match encountered is necessarily the longest.
func Confirm(bases []BaseEntry, prefixes []PrefixEntry, nexthops []uint32, baseIdx int32, key xid.XID) uint32 {
	b := bases[baseIdx]
	if xid.Mask(key, b.Len) == b.Str {
		return nexthops[b.NexthopIdx]
	}

	pre := b.Pre
	for pre != noChild {
		p := prefixes[pre]
		if xid.Mask(key, p.Len) == xid.Mask(b.Str, p.Len) {
			return nexthops[p.NexthopIdx]
		}
		pre = p.Pre
	}
	return 0
}
