// Command xfibbench is the benchmark harness (C9): for each FIB size
// 2^k, it forks one child process per engine, each of which builds that
// engine and measures nLookups Zipf-distributed lookups in isolation,
// then a single in-process pass builds all three engines over a shared
// FIB and asserts they agree on every entry.
//
// CLI argument parsing, reading textual FIB files, random-seed file
// loading, and formatted timing printouts are explicitly out of this
// specification's scope; this command exists to exercise the harness
// mechanics (process isolation, Zipf sampling, cross-engine validation)
// with fixed, hardcoded parameters rather than to be a polished tool.
package main

import (
	"fmt"
	"log"
	"math/rand"
	randv2 "math/rand/v2"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/ngarch/xfib/internal/bloomfib"
	"github.com/ngarch/xfib/internal/engine"
	"github.com/ngarch/xfib/internal/fibgen"
	"github.com/ngarch/xfib/internal/golden"
	"github.com/ngarch/xfib/internal/lctrie"
	"github.com/ngarch/xfib/internal/patricia"
	"github.com/ngarch/xfib/internal/xid"
)

// nLookups is the fixed number of lookups sampled per child run.
const nLookups = 1_000_000

const (
	childEnvFlag  = "XFIBBENCH_CHILD"
	childTableExp = "XFIBBENCH_TABLEEXP"
	childEngine   = "XFIBBENCH_ENGINE"
)

var engineNames = []string{"patricia", "lctrie", "bloomfib"}

func main() {
	log.SetFlags(log.Lmicroseconds)

	if os.Getenv(childEnvFlag) == "1" {
		runChild()
		return
	}
	runParent()
}

// runParent drives one forked child per (table size, engine) pair, then
// runs the in-process cross-engine correctness pass.
func runParent() {
	for k := 4; k <= 20; k++ {
		for _, name := range engineNames {
			elapsed, n, err := runChildProcess(k, name)
			if err != nil {
				log.Fatalf("k=%d engine=%s: %v", k, name, err)
			}
			log.Printf("k=%-2d n=%-9d engine=%-8s lookups=%d elapsed=%v ns/op=%.1f",
				k, n, name, nLookups, elapsed, float64(elapsed.Nanoseconds())/float64(nLookups))
		}
	}

	if err := runCorrectnessPass(); err != nil {
		log.Fatalf("correctness pass: %v", err)
	}
	log.Printf("all engines agree with golden reference across all tested FIB sizes")
}

// runChildProcess forks a copy of this binary with the child env flags
// set, giving each measurement run a clean, unshared address space.
func runChildProcess(tableExp int, name string) (time.Duration, int, error) {
	cmd := exec.Command(os.Args[0])
	cmd.Env = append(os.Environ(),
		childEnvFlag+"=1",
		fmt.Sprintf("%s=%d", childTableExp, tableExp),
		childEngine+"="+name,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("child process: %w", err)
	}

	var nanos int64
	var n int
	if _, err := fmt.Sscanf(string(out), "%d %d", &nanos, &n); err != nil {
		return 0, 0, fmt.Errorf("parsing child output %q: %w", out, err)
	}
	return time.Duration(nanos), n, nil
}

// runChild builds a single engine over a freshly generated FIB and
// times nLookups Zipf-distributed lookups, printing "<elapsed_ns>
// <fib_size>" to stdout for the parent to parse.
func runChild() {
	tableExp, err := strconv.Atoi(os.Getenv(childTableExp))
	if err != nil {
		log.Fatalf("invalid %s: %v", childTableExp, err)
	}
	name := os.Getenv(childEngine)

	entries, err := fibgen.Generate(fibgen.Config{
		TableExp:    tableExp,
		NumNexthops: 4096,
		LenSeed:     [2]uint64{1, uint64(tableExp)},
		PrefixSeed:  [2]uint64{2, uint64(tableExp)},
		NexthopSeed: [2]uint64{3, uint64(tableExp)},
	})
	if err != nil {
		log.Fatalf("fibgen.Generate: %v", err)
	}

	eng, err := buildEngine(name, entries)
	if err != nil {
		log.Fatalf("buildEngine(%s): %v", name, err)
	}

	keys := sampleZipfKeys(entries, nLookups)

	start := time.Now()
	var sink uint32
	for _, k := range keys {
		sink ^= eng.Lookup(k)
	}
	elapsed := time.Since(start)
	_ = sink // prevent the lookup loop from being optimized away

	fmt.Printf("%d %d\n", elapsed.Nanoseconds(), len(entries))
}

func buildEngine(name string, entries []engine.Entry) (engine.Lookup, error) {
	switch name {
	case "patricia":
		return patricia.Build(entries)
	case "lctrie":
		pt, err := patricia.Build(entries)
		if err != nil {
			return nil, err
		}
		return lctrie.Build(pt)
	case "bloomfib":
		return bloomfib.Build(entries, engine.DefaultErrorRate)
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}

// sampleZipfKeys draws n indices into entries from a Zipf distribution
// (favoring low indices, modeling skewed real-world traffic) and
// returns the corresponding FIB prefixes as lookup keys. The Zipf
// generator lives only in the original math/rand package (rand/v2 has
// no equivalent), so it is seeded from a rand/v2 PCG stream rather than
// sharing one PRNG type throughout.
func sampleZipfKeys(entries []engine.Entry, n int) []xid.XID {
	seedSrc := randv2.New(randv2.NewPCG(99, uint64(len(entries))))
	r := rand.New(rand.NewSource(int64(seedSrc.Uint64())))
	z := rand.NewZipf(r, 1.5, 1, uint64(len(entries)-1))

	keys := make([]xid.XID, n)
	for i := range keys {
		keys[i] = entries[z.Uint64()].Prefix
	}
	return keys
}

// runCorrectnessPass builds all three engines plus the golden reference
// over a handful of FIB sizes and asserts every FIB entry resolves to
// the same nexthop everywhere, matching Testable Property 1.
func runCorrectnessPass() error {
	for k := 4; k <= 12; k++ {
		entries, err := fibgen.Generate(fibgen.Config{
			TableExp:    k,
			NumNexthops: 512,
			LenSeed:     [2]uint64{11, uint64(k)},
			PrefixSeed:  [2]uint64{22, uint64(k)},
			NexthopSeed: [2]uint64{33, uint64(k)},
		})
		if err != nil {
			return fmt.Errorf("k=%d: generate: %w", k, err)
		}

		gold := golden.Build(entries)

		pt, err := patricia.Build(entries)
		if err != nil {
			return fmt.Errorf("k=%d: patricia.Build: %w", k, err)
		}
		lc, err := lctrie.Build(pt)
		if err != nil {
			return fmt.Errorf("k=%d: lctrie.Build: %w", k, err)
		}
		bf, err := bloomfib.Build(entries, engine.DefaultErrorRate)
		if err != nil {
			return fmt.Errorf("k=%d: bloomfib.Build: %w", k, err)
		}

		engines := map[string]engine.Lookup{"patricia": pt, "lctrie": lc, "bloomfib": bf}
		for _, e := range entries {
			want := gold.Lookup(e.Prefix)
			for ename, eng := range engines {
				if got := eng.Lookup(e.Prefix); got != want {
					return fmt.Errorf("k=%d: %s.Lookup(%s/%d) = %d, golden = %d", k, ename, e.Prefix, e.Len, got, want)
				}
			}
		}
	}
	return nil
}
