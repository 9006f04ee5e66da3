package cache

import (
	"os"
	"testing"
	"time"
)

// backdate rewrites an entry's modification time, which is what Get
// judges freshness by.
func backdate(t *testing.T, dc *DiskCache, source, key string, age time.Duration) {
	t.Helper()
	path := dc.entryPath(source, key)
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("backdate %q: %v", key, err)
	}
}

func TestDiskCache_ExpiredEntryMisses(t *testing.T) {
	dc := newTestCache(t)

	setEntry(t, dc, testSource, "list_serilog", "stale")
	backdate(t, dc, testSource, "list_serilog", 2*time.Hour)

	_, hit, err := dc.Get(testSource, "list_serilog", 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("two hour old entry should miss a 30m window")
	}
}

func TestDiskCache_FreshEntryHits(t *testing.T) {
	dc := newTestCache(t)

	setEntry(t, dc, testSource, "list_serilog", "fresh")
	backdate(t, dc, testSource, "list_serilog", 10*time.Minute)

	reader, hit, err := dc.Get(testSource, "list_serilog", 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("ten minute old entry should hit a 30m window")
	}
	reader.Close()
}

func TestDiskCache_ZeroMaxAgeNeverHits(t *testing.T) {
	dc := newTestCache(t)

	setEntry(t, dc, testSource, "list_serilog", "payload")

	_, hit, err := dc.Get(testSource, "list_serilog", 0)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("zero window means every entry is already expired")
	}
}

func TestDiskCache_ExpiryIsPerEntry(t *testing.T) {
	dc := newTestCache(t)

	setEntry(t, dc, testSource, "old", "stale")
	setEntry(t, dc, testSource, "new", "fresh")
	backdate(t, dc, testSource, "old", time.Hour)

	if _, hit, _ := dc.Get(testSource, "old", 30*time.Minute); hit {
		t.Error("backdated entry should miss")
	}
	reader, hit, _ := dc.Get(testSource, "new", 30*time.Minute)
	if !hit {
		t.Fatal("untouched entry should still hit")
	}
	reader.Close()
}
