package murmur

import "testing"

func TestSumDeterministic(t *testing.T) {
	data := []byte("the quick brown fox")
	a := Sum(data)
	b := Sum(data)
	if a != b {
		t.Fatalf("Sum must be deterministic for identical input, got %v and %v", a, b)
	}
}

func TestSumDiffersOnInput(t *testing.T) {
	a := Sum([]byte("alpha"))
	b := Sum([]byte("beta"))
	if a == b {
		t.Fatalf("distinct inputs unexpectedly hashed to the same digest")
	}
}

func TestMapKey64MatchesWords(t *testing.T) {
	h := Sum([]byte("xid-payload"))
	want := uint64(h.H2)<<32 | uint64(h.H3)
	if got := h.MapKey64(); got != want {
		t.Fatalf("MapKey64() = %x, want %x", got, want)
	}
}

func TestBloomWords(t *testing.T) {
	h := Sum([]byte("another-payload"))
	h0, h1 := h.BloomWords()
	if h0 != h.H0 || h1 != h.H1 {
		t.Fatalf("BloomWords() = (%x,%x), want (%x,%x)", h0, h1, h.H0, h.H1)
	}
}
