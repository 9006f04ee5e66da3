package cache

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSource = "https://api.nuget.org/v3/registration5-gz-semver2/"

func newTestCache(t *testing.T) *DiskCache {
	t.Helper()
	dc, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	return dc
}

func setEntry(t *testing.T, dc *DiskCache, source, key, payload string) {
	t.Helper()
	if err := dc.Set(source, key, strings.NewReader(payload)); err != nil {
		t.Fatalf("Set(%q): %v", key, err)
	}
}

func getEntry(t *testing.T, dc *DiskCache, source, key string) (string, bool) {
	t.Helper()
	reader, hit, err := dc.Get(source, key, time.Hour)
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	if !hit {
		return "", false
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read entry %q: %v", key, err)
	}
	return string(data), true
}

func TestDiskCache_SetThenGet(t *testing.T) {
	dc := newTestCache(t)

	setEntry(t, dc, testSource, "list_serilog", `{"count":3}`)

	got, hit := getEntry(t, dc, testSource, "list_serilog")
	if !hit {
		t.Fatal("entry just written should hit")
	}
	if got != `{"count":3}` {
		t.Errorf("payload = %q, want the stored document", got)
	}
}

func TestDiskCache_MissingEntry(t *testing.T) {
	dc := newTestCache(t)

	if _, hit := getEntry(t, dc, testSource, "list_unknown"); hit {
		t.Error("empty cache should miss")
	}
}

func TestDiskCache_OverwriteReplacesPayload(t *testing.T) {
	dc := newTestCache(t)

	setEntry(t, dc, testSource, "list_serilog", "old")
	setEntry(t, dc, testSource, "list_serilog", "new")

	if got, _ := getEntry(t, dc, testSource, "list_serilog"); got != "new" {
		t.Errorf("payload after overwrite = %q, want %q", got, "new")
	}
}

func TestDiskCache_SourcesAreSeparate(t *testing.T) {
	dc := newTestCache(t)
	other := "https://feed.example/v3/registration/"

	setEntry(t, dc, testSource, "list_serilog", "from nuget.org")
	setEntry(t, dc, other, "list_serilog", "from private feed")

	if got, _ := getEntry(t, dc, testSource, "list_serilog"); got != "from nuget.org" {
		t.Errorf("nuget.org entry = %q", got)
	}
	if got, _ := getEntry(t, dc, other, "list_serilog"); got != "from private feed" {
		t.Errorf("private feed entry = %q", got)
	}
}

func TestDiskCache_AwkwardKeysRoundTrip(t *testing.T) {
	dc := newTestCache(t)

	keys := []string{
		"list_newtonsoft.json",
		"page/1..100",
		"a:b?c*d",
	}
	for _, key := range keys {
		setEntry(t, dc, testSource, key, "payload for "+key)
	}
	for _, key := range keys {
		got, hit := getEntry(t, dc, testSource, key)
		if !hit || got != "payload for "+key {
			t.Errorf("key %q: hit=%v payload=%q", key, hit, got)
		}
	}
}

func TestDiskCache_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "http-cache")

	if _, err := NewDiskCache(root); err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist: %v", err)
	}
}

func TestDiskCache_SetLeavesNoTempFiles(t *testing.T) {
	dc := newTestCache(t)

	setEntry(t, dc, testSource, "list_serilog", "payload")

	dir := filepath.Dir(dc.entryPath(testSource, "list_serilog"))
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), "-new.") {
			t.Errorf("leftover temp file %q", e.Name())
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a/b", "a_b"},
		{"a//b", "a_b"},
		{"a\x00b", "a_b"},
		{"//", "_"},
	}
	for _, tt := range tests {
		if got := sanitizeFileName(tt.in); got != tt.want {
			t.Errorf("sanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHashURL(t *testing.T) {
	got := hashURL(testSource)

	if again := hashURL(testSource); again != got {
		t.Error("hash should be deterministic")
	}
	prefix, tail, ok := strings.Cut(got, "$")
	if !ok {
		t.Fatalf("hash %q should carry a readable tail", got)
	}
	if len(prefix) != 2*hashLength {
		t.Errorf("hash prefix length = %d, want %d hex chars", len(prefix), 2*hashLength)
	}
	if !strings.HasSuffix(testSource, tail) {
		t.Errorf("tail %q should be the URL's last characters", tail)
	}

	if hashURL("https://feed.example/") == got {
		t.Error("different URLs should hash differently")
	}
}
