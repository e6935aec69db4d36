package hashmap

import (
	"fmt"
	"testing"

	"github.com/ngarch/xfib/internal/murmur"
	"github.com/ngarch/xfib/internal/xid"
)

func key(n int) (xid.XID, uint64) {
	s := fmt.Sprintf("%040x", n)
	k, err := xid.FromHex(s)
	if err != nil {
		panic(err)
	}
	return k, murmur.Sum(k[:]).MapKey64()
}

func TestInsertGetDelete(t *testing.T) {
	m := New(16)

	for i := 0; i < 500; i++ {
		k, h := key(i)
		m.Insert(k, uint32(i+1), h)
	}

	for i := 0; i < 500; i++ {
		k, h := key(i)
		v, ok := m.Get(k, h)
		if !ok || v != uint32(i+1) {
			t.Fatalf("Get(%d) = (%d,%v), want (%d,true)", i, v, ok, i+1)
		}
	}

	k, h := key(250)
	if !m.Delete(k, h) {
		t.Fatalf("Delete of present key failed")
	}
	if _, ok := m.Get(k, h); ok {
		t.Fatalf("key 250 should be gone after Delete")
	}
	if m.Len() != 499 {
		t.Fatalf("Len() = %d, want 499", m.Len())
	}
}

func TestUpdateExisting(t *testing.T) {
	m := New(4)
	k, h := key(7)
	m.Insert(k, 1, h)
	m.Insert(k, 2, h)
	v, ok := m.Get(k, h)
	if !ok || v != 2 {
		t.Fatalf("Get after update = (%d,%v), want (2,true)", v, ok)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after update-not-insert", m.Len())
	}
}

func TestMissingKey(t *testing.T) {
	m := New(4)
	k, h := key(99)
	if _, ok := m.Get(k, h); ok {
		t.Fatalf("expected miss on empty map")
	}
	if m.Delete(k, h) {
		t.Fatalf("Delete on missing key should report false")
	}
}

func TestGrowPreservesEntries(t *testing.T) {
	m := New(2)
	const n = 2000
	for i := 0; i < n; i++ {
		k, h := key(i)
		m.Insert(k, uint32(i), h)
	}
	for i := 0; i < n; i++ {
		k, h := key(i)
		v, ok := m.Get(k, h)
		if !ok || v != uint32(i) {
			t.Fatalf("after growth, Get(%d) = (%d,%v), want (%d,true)", i, v, ok, i)
		}
	}
}

func TestDeletedKeyStaysGoneAcrossGrow(t *testing.T) {
	m := New(2)
	const n = 2000

	for i := 0; i < n; i++ {
		k, h := key(i)
		m.Insert(k, uint32(i), h)
	}

	deleted := make(map[int]bool, n/2)
	for i := 0; i < n; i += 2 {
		k, h := key(i)
		if !m.Delete(k, h) {
			t.Fatalf("Delete(%d) on present key failed", i)
		}
		deleted[i] = true
	}
	if m.Len() != n/2 {
		t.Fatalf("Len() = %d, want %d after deleting half the keys", m.Len(), n/2)
	}

	// Insert past the load factor threshold again, forcing at least one
	// more grow with tombstoned arena slots present.
	before := len(m.buckets)
	for i := n; i < 3*n; i++ {
		k, h := key(i)
		m.Insert(k, uint32(i), h)
	}
	if len(m.buckets) <= before {
		t.Fatalf("post-delete inserts did not grow the table past %d buckets", before)
	}

	for i := 0; i < n; i++ {
		k, h := key(i)
		v, ok := m.Get(k, h)
		if deleted[i] {
			if ok {
				t.Fatalf("key %d resurrected after grow: Get = (%d,true)", i, v)
			}
			continue
		}
		if !ok || v != uint32(i) {
			t.Fatalf("Get(%d) = (%d,%v), want (%d,true)", i, v, ok, i)
		}
	}
	if m.Len() != n/2+2*n {
		t.Fatalf("Len() = %d, want %d after post-delete inserts", m.Len(), n/2+2*n)
	}
}
