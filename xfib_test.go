package xfib

import (
	"strings"
	"testing"

	"github.com/ngarch/xfib/internal/xid"
)

func hex160(t *testing.T, short string) XID {
	t.Helper()
	s := short
	for len(s) < Bits/4 {
		s += "0"
	}
	x, err := xid.FromHex(s)
	if err != nil {
		t.Fatalf("hex160(%s): %v", short, err)
	}
	return x
}

func maskBits(t *testing.T, x XID, length int) XID {
	t.Helper()
	return xid.Mask(x, length)
}

// TestScenarioA is spec Scenario A: single entry exact match.
func TestScenarioA(t *testing.T) {
	entries := []Entry{
		{Prefix: hex160(t, "aa"), Len: 8, Nexthop: 42},
	}
	for _, ctor := range allEngines(t, entries) {
		if got := ctor.Lookup(hex160(t, "aa")); got != 42 {
			t.Fatalf("%s: Lookup(0xaa) = %d, want 42", ctor.name, got)
		}
		if got := ctor.Lookup(hex160(t, "ab")); got != 0 {
			t.Fatalf("%s: Lookup(0xab) = %d, want 0", ctor.name, got)
		}
	}
}

// TestScenarioB is spec Scenario B: longest-prefix vs shorter-prefix.
func TestScenarioB(t *testing.T) {
	p1 := maskBits(t, hex160(t, "80"), 1)
	p2 := maskBits(t, hex160(t, "c0"), 2)
	entries := []Entry{
		{Prefix: p1, Len: 1, Nexthop: 10},
		{Prefix: p2, Len: 2, Nexthop: 20},
	}
	for _, ctor := range allEngines(t, entries) {
		if got := ctor.Lookup(hex160(t, "e0")); got != 20 {
			t.Fatalf("%s: Lookup(0xe0) = %d, want 20", ctor.name, got)
		}
		if got := ctor.Lookup(hex160(t, "a0")); got != 10 {
			t.Fatalf("%s: Lookup(0xa0) = %d, want 10", ctor.name, got)
		}
		if got := ctor.Lookup(hex160(t, "40")); got != 0 {
			t.Fatalf("%s: Lookup(0x40) = %d, want 0", ctor.name, got)
		}
	}
}

// TestScenarioC is spec Scenario C: prefix chain through a base entry.
func TestScenarioC(t *testing.T) {
	zero20 := maskBits(t, hex160(t, "00"), 20)
	p := maskBits(t, hex160(t, "000002"), 40) // first 20 bits zero, as required
	entries := []Entry{
		{Prefix: zero20, Len: 20, Nexthop: 1},
		{Prefix: p, Len: 40, Nexthop: 2},
	}
	for _, ctor := range allEngines(t, entries) {
		if got := ctor.Lookup(p); got != 2 {
			t.Fatalf("%s: Lookup(P) = %d, want 2", ctor.name, got)
		}
		if got := ctor.Lookup(zero20); got != 1 {
			t.Fatalf("%s: Lookup(0x20 zeros) = %d, want 1", ctor.name, got)
		}
	}
}

func TestLoadFIBText(t *testing.T) {
	text := strings.Join([]string{
		strings.Repeat("a", 40) + " 8 7",
		strings.Repeat("0", 40) + " 20 1",
		"",
	}, "\n")
	entries, err := LoadFIBText(strings.NewReader(text))
	if err != nil {
		t.Fatalf("LoadFIBText: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Len != 8 || entries[0].Nexthop != 7 {
		t.Fatalf("entries[0] = %+v", entries[0])
	}
}

func TestLoadFIBTextRejectsMalformedLine(t *testing.T) {
	if _, err := LoadFIBText(strings.NewReader("not enough fields\n")); err == nil {
		t.Fatalf("expected error for malformed line")
	}
}

type namedEngine struct {
	name string
	Engine
}

func allEngines(t *testing.T, entries []Entry) []namedEngine {
	t.Helper()
	pat, err := NewPatriciaEngine(entries)
	if err != nil {
		t.Fatalf("NewPatriciaEngine: %v", err)
	}
	lc, err := NewLCTrieEngine(entries)
	if err != nil {
		t.Fatalf("NewLCTrieEngine: %v", err)
	}
	engines := []namedEngine{
		{"patricia", pat},
		{"lctrie", lc},
	}
	bloom, err := NewBloomEngine(entries, DefaultErrorRate)
	for _, e := range entries {
		// The Bloom engine only buckets lengths in [MinLen, MaxLen] and
		// rejects a FIB with any other length at build time.
		if e.Len < MinLen || e.Len > MaxLen {
			if err == nil {
				t.Fatalf("NewBloomEngine: expected an error for length %d outside [%d,%d]", e.Len, MinLen, MaxLen)
			}
			return engines
		}
	}
	if err != nil {
		t.Fatalf("NewBloomEngine: %v", err)
	}
	return append(engines, namedEngine{"bloomfib", bloom})
}
