package embedding

import (
	"path/filepath"
	"testing"
)

func TestCacheSetGetRoundTrip(t *testing.T) {
	c, err := NewCache(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	key := Key("model-a", "hello world")
	want := []float32{0.1, -0.2, 0.3}
	if err := c.Set(key, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("vector mismatch at %d: got %v want %v", i, got, want)
		}
	}
}

func TestCachePromotesDiskHitToMemory(t *testing.T) {
	dir := t.TempDir()
	c1, _ := NewCache(dir, 10)
	key := Key("model-a", "persisted text")
	_ = c1.Set(key, []float32{1, 2, 3})

	// Fresh Cache instance over the same directory: memory tier is empty,
	// the vector should still be found on disk.
	c2, _ := NewCache(dir, 10)
	got, ok := c2.Get(key)
	if !ok || len(got) != 3 {
		t.Fatalf("expected disk hit, got ok=%v got=%v", ok, got)
	}
	if c2.Stats().MemoryEntries != 1 {
		t.Fatalf("expected disk hit promoted to memory tier")
	}
}

func TestCacheEvictsOldestWhenFull(t *testing.T) {
	c, _ := NewCache(t.TempDir(), 2)
	_ = c.Set(Key("m", "a"), []float32{1})
	_ = c.Set(Key("m", "b"), []float32{2})
	_ = c.Set(Key("m", "c"), []float32{3})
	if c.Stats().MemoryEntries != 2 {
		t.Fatalf("expected memory tier capped at 2, got %d", c.Stats().MemoryEntries)
	}
}

func TestCacheClearRemovesDiskEntries(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewCache(dir, 10)
	_ = c.Set(Key("m", "x"), []float32{1, 2})
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats := c.Stats()
	if stats.MemoryEntries != 0 || stats.DiskEntries != 0 {
		t.Fatalf("expected empty cache after Clear, got %+v", stats)
	}
	if _, ok := c.Get(Key("m", "x")); ok {
		t.Fatal("expected miss after Clear")
	}
	_ = filepath.Join(dir) // dir still exists, just emptied
}
