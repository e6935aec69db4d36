package cbloom

import (
	"testing"

	"github.com/ngarch/xfib/internal/murmur"
)

func TestAddCheckRoundTrip(t *testing.T) {
	f, err := New(1000, 0.01)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	members := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, m := range members {
		if err := f.Add(murmur.Sum(m)); err != nil {
			t.Fatalf("Add(%s): %v", m, err)
		}
	}

	for _, m := range members {
		if !f.Check(murmur.Sum(m)) {
			t.Fatalf("Check(%s) = false, want true (no false negatives)", m)
		}
	}
}

func TestAddThenRemoveClearsMembership(t *testing.T) {
	f, err := New(100, 0.05)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h := murmur.Sum([]byte("ephemeral"))
	if err := f.Add(h); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !f.Check(h) {
		t.Fatalf("expected membership right after Add")
	}
	if err := f.Remove(h); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if f.Check(h) {
		t.Fatalf("expected no membership after matching Remove")
	}
}

func TestRemoveUnderflow(t *testing.T) {
	f, _ := New(10, 0.05)
	h := murmur.Sum([]byte("never-added"))
	if err := f.Remove(h); err == nil {
		t.Fatalf("expected underflow error removing a key never added")
	}
}

func TestNewRejectsBadParams(t *testing.T) {
	if _, err := New(0, 0.05); err == nil {
		t.Fatalf("expected error for non-positive capacity")
	}
	if _, err := New(10, 0); err == nil {
		t.Fatalf("expected error for zero error rate")
	}
	if _, err := New(10, 1); err == nil {
		t.Fatalf("expected error for error rate >= 1")
	}
}

func TestCounterOverflowSaturates(t *testing.T) {
	// Adding the exact same (h0, h1) pair repeatedly always maps to the
	// same counters regardless of filter size, so the 16th add must
	// overflow.
	f, err := New(1, 0.5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var overflowed bool
	for i := 0; i < 20 && !overflowed; i++ {
		if err := f.AddWords(0, 0); err != nil {
			overflowed = true
		}
	}
	if !overflowed {
		t.Fatalf("expected counter overflow within 20 inserts on a minimal filter")
	}
	if v := f.get(f.slots(0, 0, nil)[0]); v != maxCounter {
		t.Fatalf("overflowed counter = %d, want it saturated at %d", v, maxCounter)
	}
}
