package cache

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func roundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	k1 := SegmentKey("US", "English", "32191", []string{"keystatistics"})
	k2 := SegmentKey("US", "English", "42344", []string{"keystatistics"})
	v1 := []byte(`{"Sections":[{"RequestedSection":"keystatistics"}]}`)
	v2 := []byte(`{"Sections":[]}`)

	if _, ok := s.Get(ctx, k1); ok {
		t.Fatalf("expected miss before put")
	}
	if err := s.Put(ctx, k1, v1); err != nil {
		t.Fatalf("put k1: %v", err)
	}
	if err := s.Put(ctx, k2, v2); err != nil {
		t.Fatalf("put k2: %v", err)
	}
	got, ok := s.Get(ctx, k1)
	if !ok || string(got) != string(v1) {
		t.Fatalf("k1: expected %s, got %s (hit=%v)", v1, got, ok)
	}
	got, ok = s.Get(ctx, k2)
	if !ok || string(got) != string(v2) {
		t.Fatalf("k2: expected %s, got %s (hit=%v)", v2, got, ok)
	}

	// overwrite keeps the latest value
	v3 := []byte(`{"Sections":[{"RequestedSection":"keyratios"}]}`)
	if err := s.Put(ctx, k1, v3); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, _ := s.Get(ctx, k1); string(got) != string(v3) {
		t.Fatalf("expected overwritten value, got %s", got)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(WithDir(t.TempDir()))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	roundTrip(t, s)
}

func TestFileStoreCorruptEntryIsMiss(t *testing.T) {
	s, err := NewFileStore(WithDir(t.TempDir()))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	key := ReportListKey("US", "English")
	if err := os.WriteFile(s.Path(key), []byte(`{"truncated": `), 0o644); err != nil {
		t.Fatalf("write corrupt entry: %v", err)
	}
	if _, ok := s.Get(context.Background(), key); ok {
		t.Fatalf("expected corrupt entry to read as a miss")
	}
}

func TestFileStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	if _, err := NewFileStore(WithDir(dir)); err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		t.Fatalf("expected cache dir to exist")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	roundTrip(t, NewMemoryStore())
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(WithSQLitePath(filepath.Join(t.TempDir(), "cache.db")))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	defer s.Close()
	roundTrip(t, s)
}

func TestSQLiteStoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache", "segpull.db")
	s, err := NewSQLiteStore(WithSQLitePath(path))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	defer s.Close()
	roundTrip(t, s)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}

func TestSQLiteStoreDefaultPath(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	s, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("new sqlite store with default path: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(filepath.Join("cache", "segpull.db")); err != nil {
		t.Fatalf("expected default database file: %v", err)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(WithRedisAddr(mr.Addr()), WithRedisPrefix("test"))
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	defer s.Close()
	roundTrip(t, s)

	if err := mr.Set("test:broken", "not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok := s.Get(context.Background(), "broken"); ok {
		t.Fatalf("expected malformed redis entry to read as a miss")
	}
}

func TestSegmentKeyCanonicalSections(t *testing.T) {
	a := SegmentKey("US", "English", "32191", []string{"keystatistics", "CurrentYearOverview"})
	b := SegmentKey("US", "English", "32191", []string{"currentyearoverview", "keystatistics", "keystatistics"})
	if a != b {
		t.Fatalf("expected order/case independent keys, got %q vs %q", a, b)
	}
}

func TestSegmentKeyNoCollisions(t *testing.T) {
	keys := []string{
		SegmentKey("US", "English", "1", []string{"a_b"}),
		SegmentKey("US", "English", "1", []string{"a", "b"}),
		SegmentKey("US", "English", "1_a", []string{"b"}),
		SegmentKey("US", "English", "1|a", []string{"b"}),
		SegmentKey("US", "Spanish", "1", []string{"a", "b"}),
		SegmentKey("CA", "English", "1", []string{"a", "b"}),
		SegmentKey("US", "English", "1", []string{"a,b"}),
		ReportListKey("US", "English"),
	}
	seen := make(map[string]string)
	for _, k := range keys {
		name := FileName(k)
		if prev, ok := seen[name]; ok {
			t.Fatalf("file name collision between %q and %q", prev, k)
		}
		seen[name] = k
	}
}

func TestFileNameEscaping(t *testing.T) {
	got := FileName("segment|US|a/b c%")
	want := "segment%7CUS%7Ca%2Fb%20c%25.json"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestFileNameLongKey(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	a := FileName(string(long))
	long[499] = 'y'
	b := FileName(string(long))
	if len(a) > maxFileNameLen+len(".json") || a == b {
		t.Fatalf("expected short distinct names, got %d bytes, equal=%v", len(a), a == b)
	}
}

func TestFileNameHashedNamesDoNotCollide(t *testing.T) {
	long := SegmentKey("US", "English", strings.Repeat("9", 300), []string{"keystatistics"})
	hashed := FileName(long)
	if !strings.Contains(hashed, hashedNameMark) {
		t.Fatalf("expected hashed name, got %s", hashed)
	}

	// a key that spells out the hashed name of another key
	crafted, err := url.PathUnescape(strings.TrimSuffix(hashed, ".json"))
	if err != nil {
		t.Fatalf("unescape: %v", err)
	}
	if crafted == long {
		t.Fatal("crafted key should differ from the long key")
	}
	if FileName(crafted) == hashed {
		t.Fatalf("distinct keys share file name %s", hashed)
	}

	s, err := NewFileStore(WithDir(t.TempDir()))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()
	if err := s.Put(ctx, long, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put long: %v", err)
	}
	if err := s.Put(ctx, crafted, []byte(`{"b":2}`)); err != nil {
		t.Fatalf("put crafted: %v", err)
	}
	if got, ok := s.Get(ctx, long); !ok || string(got) != `{"a":1}` {
		t.Fatalf("entry for long key overwritten: %s", got)
	}
}

func TestFileNameShortNamesNeverCarryMark(t *testing.T) {
	for _, k := range []string{"a~b", strings.Repeat("~", 50), strings.Repeat("x", maxFileNameLen)} {
		if name := FileName(k); strings.Contains(name, hashedNameMark) {
			t.Fatalf("key %q should not be hashed, got %s", k, name)
		}
	}
}
