package fibgen

import (
	"testing"

	"github.com/ngarch/xfib/internal/engine"
)

func testConfig(tableExp int) Config {
	return Config{
		TableExp:    tableExp,
		NumNexthops: 64,
		LenSeed:     [2]uint64{1, 2},
		PrefixSeed:  [2]uint64{3, 4},
		NexthopSeed: [2]uint64{5, 6},
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(testConfig(8))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(testConfig(8))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("entry %d differs between identical-seed runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerateSizeAndValidity(t *testing.T) {
	entries, err := Generate(testConfig(6))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(entries) != 1<<6 {
		t.Fatalf("len = %d, want %d", len(entries), 1<<6)
	}
	if err := engine.ValidateAll(entries); err != nil {
		t.Fatalf("generated FIB failed validation (duplicates or malformed entries): %v", err)
	}
}

func TestGenerateRejectsBadTableExp(t *testing.T) {
	cfg := testConfig(3)
	if _, err := Generate(cfg); err == nil {
		t.Fatalf("expected error for tablexp below range")
	}
	cfg = testConfig(21)
	if _, err := Generate(cfg); err == nil {
		t.Fatalf("expected error for tablexp above range")
	}
}
