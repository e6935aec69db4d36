// Package lctrie implements the level- and path-compressed trie (C7): a
// post-pass that converts a built Patricia trie (internal/patricia) into
// a word-packed array for cache-efficient descent. Each internal node's
// 1-bit binary decision is, where possible, collapsed with several of
// its descendants' decisions into a single wide branch, so that a
// lookup touches far fewer cache lines than walking the original
// Patricia trie bit by bit.
//
// The compressor never changes the set of routes or their nexthops: it
// only changes how the same longest-prefix-match function is addressed.
// Build reuses the Patricia trie's base/prefix/nexthop vectors directly
// and leans on patricia.Confirm for the leaf/pre-chain confirmation
// step, exactly as the Patricia engine does.
package lctrie

import (
	"fmt"

	"github.com/ngarch/xfib/internal/patricia"
	"github.com/ngarch/xfib/internal/xid"
)

// Trie is a built LC-trie ready for lookups.
type Trie struct {
	words    []uint64
	bases    []patricia.BaseEntry
	prefixes []patricia.PrefixEntry
	nexthops []uint32
}

// MaxBranch bounds the branch field of a packed node (the data model's
// branch ∈ [0,6]), so a node's child block is at most 2^MaxBranch = 64
// wide and always addressable by the low byte extractBits reads.
// Without this cap a skip-free perfect subtree of height >= 9 would
// raise adjustedBranch past 8, truncating extractBits's single-byte
// index and landing on the wrong child.
const MaxBranch = 6

// pack combines a node's branch factor, skip count, and child-or-base
// index into a single 64-bit word: {branch:8, skip:8, child_or_base:32}.
func pack(branch, skip int, childOrBase int32) uint64 {
	return uint64(uint8(branch))<<56 | uint64(uint8(skip))<<48 | uint64(uint32(childOrBase))
}

func unpackBranch(w uint64) int  { return int(w >> 56) }
func unpackSkip(w uint64) int    { return int((w >> 48) & 0xff) }
func unpackChild(w uint64) int32 { return int32(uint32(w & 0xffffffff)) }

// Build compresses a Patricia trie into an LC-trie over the same FIB.
func Build(t *patricia.Trie) (*Trie, error) {
	if t == nil || len(t.Nodes) == 0 {
		return nil, fmt.Errorf("lctrie: cannot build over an empty Patricia trie")
	}

	b := &builder{src: t}
	b.rawBranch = make([]int, len(t.Nodes))
	b.computed = make([]bool, len(t.Nodes))
	b.computeRawBranch(t.Root)

	out := &Trie{
		bases:    t.Bases,
		prefixes: t.Prefixes,
		nexthops: t.Nexthops,
	}
	b.out = out
	b.layout()
	return out, nil
}

type builder struct {
	src       *patricia.Trie
	rawBranch []int
	computed  []bool
	out       *Trie
}

// computeRawBranch implements LC-trie pass 1: branch(leaf) = 0;
// branch(internal) = 1 + min(branch(left), branch(right)), the depth of
// the largest complete binary subtree rooted at each node.
func (b *builder) computeRawBranch(idx int32) int {
	if b.computed[idx] {
		return b.rawBranch[idx]
	}
	n := b.src.Nodes[idx]
	var r int
	if n.IsLeaf() {
		r = 0
	} else {
		l := b.computeRawBranch(n.Left)
		rr := b.computeRawBranch(n.Right)
		r = 1 + min(l, rr)
	}
	b.rawBranch[idx] = r
	b.computed[idx] = true
	return r
}

// adjustedBranch implements LC-trie pass 2. A node's branch b, as
// computed by computeRawBranch, is only safe to act on if every node
// that level compression would discard (i.e. every internal node
// strictly between this node and the depth-b frontier) has Skip == 0:
// those nodes' skip bits are not represented anywhere in the collapsed
// node's packed word, so nonzero skip there would silently lose
// information the Patricia trie was relying on. Frontier nodes at
// depth b are kept (not discarded), and their own Skip survives in
// their own packed word, so they are exempt from this check; a branch
// of 1 discards nothing and is always safe.
func (b *builder) adjustedBranch(idx int32) int {
	n := b.src.Nodes[idx]
	if n.IsLeaf() {
		return 0
	}
	branch := min(b.rawBranch[idx], MaxBranch)
	if branch >= 2 {
		if !b.skipClearBeforeDepth(n.Left, 1, branch) || !b.skipClearBeforeDepth(n.Right, 1, branch) {
			branch = 1
		}
	}
	return branch
}

// skipClearBeforeDepth reports whether every internal node on the path
// from depthFromN up to (but not including) depth target has Skip == 0.
// Hitting a leaf before reaching the target depth is not a violation
// here: it is the level-compression edge case handled separately by
// frontier (the leaf gets replicated across the missing depth instead
// of losing information).
func (b *builder) skipClearBeforeDepth(idx int32, depthFromN, target int) bool {
	if depthFromN == target {
		return true
	}
	n := b.src.Nodes[idx]
	if n.IsLeaf() {
		return true
	}
	if n.Skip != 0 {
		return false
	}
	return b.skipClearBeforeDepth(n.Left, depthFromN+1, target) &&
		b.skipClearBeforeDepth(n.Right, depthFromN+1, target)
}

// frontier collects the 2^depth descendants of idx at exactly depth
// levels below it, in left-to-right order. If a leaf is reached before
// depth is exhausted, it is replicated across every remaining slot: the
// level-compression edge case from the source (4.7), where a leaf's own
// prefix ends before the compression-induced branch width does.
func (b *builder) frontier(idx int32, depth int) []int32 {
	if depth == 0 {
		return []int32{idx}
	}
	n := b.src.Nodes[idx]
	if n.IsLeaf() {
		reps := make([]int32, 1<<uint(depth))
		for i := range reps {
			reps[i] = idx
		}
		return reps
	}
	left := b.frontier(n.Left, depth-1)
	right := b.frontier(n.Right, depth-1)
	return append(left, right...)
}

// layout performs LC-trie passes 3 and 4 together: it lays out the
// collapsed tree breadth-first directly into the packed word array,
// rather than materializing an intermediate tree and flattening it
// afterward, so that each node's child block is written at a
// contiguous, already-known offset.
func (b *builder) layout() {
	type queued struct{ srcIdx int32 }

	queue := []queued{{b.src.Root}}
	words := make([]uint64, 1)

	for i := 0; i < len(queue); i++ {
		srcIdx := queue[i].srcIdx
		n := b.src.Nodes[srcIdx]

		if n.IsLeaf() {
			words[i] = pack(0, n.Skip, n.Base)
			continue
		}

		branch := b.adjustedBranch(srcIdx)
		kids := append(b.frontier(n.Left, branch-1), b.frontier(n.Right, branch-1)...)

		childStart := len(words)
		for range kids {
			words = append(words, 0)
		}
		for _, k := range kids {
			queue = append(queue, queued{k})
		}
		words[i] = pack(branch, n.Skip, int32(childStart))
	}

	b.out.words = words
}

// extractBits returns the `length` bits of key starting at pos as a
// small non-negative integer. LC-trie branch widths are bounded to
// [0,MaxBranch] by adjustedBranch, so the extracted value always fits
// in a single byte; Extract right-aligns it there.
func extractBits(pos, length int, key xid.XID) int {
	e := xid.Extract(pos, length, key)
	return int(e[xid.Bytes-1])
}

// Lookup walks the packed word array, extracting `branch` key bits at
// a time to index directly into each node's child block, then confirms
// against the base/pre-chain exactly as the Patricia engine does.
func (t *Trie) Lookup(key xid.XID) uint32 {
	w := t.words[0]
	pos := unpackSkip(w)
	branch := unpackBranch(w)
	adr := unpackChild(w)

	for branch != 0 {
		idx := adr + int32(extractBits(pos, branch, key))
		w = t.words[idx]
		pos += branch + unpackSkip(w)
		branch = unpackBranch(w)
		adr = unpackChild(w)
	}

	return patricia.Confirm(t.bases, t.prefixes, t.nexthops, adr, key)
}
