package embedding

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
)

// countingProvider wraps the deterministic provider to count real calls,
// so tests can assert the cache and singleflight coalescing actually avoid
// redundant provider work (testable property 3).
type countingProvider struct {
	Provider
	calls int64
}

func (c *countingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt64(&c.calls, 1)
	return c.Provider.EmbedBatch(ctx, texts)
}

func TestServiceEmbedBatchCachesSecondCall(t *testing.T) {
	cp := &countingProvider{Provider: NewDeterministicProvider(16, 0)}
	cache, _ := NewCache(t.TempDir(), 100)
	svc := NewService(cp, cache)

	if _, err := svc.EmbedBatch(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := svc.EmbedBatch(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if atomic.LoadInt64(&cp.calls) != 1 {
		t.Fatalf("expected exactly 1 provider call total: the first call's whole uncached batch, and the second call served entirely from cache, got %d", cp.calls)
	}
}

func TestServiceEmbedBatchIssuesSingleProviderCallForUncachedPartition(t *testing.T) {
	cp := &countingProvider{Provider: NewDeterministicProvider(16, 0)}
	cache, _ := NewCache(t.TempDir(), 100)
	svc := NewService(cp, cache)

	out, err := svc.EmbedBatch(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 vectors, got %d", len(out))
	}
	if atomic.LoadInt64(&cp.calls) != 1 {
		t.Fatalf("expected exactly 1 provider call covering the whole uncached partition, got %d", cp.calls)
	}
}

func TestServiceEmbedBatchDegradesToMemoryOnDiskCacheFailure(t *testing.T) {
	cp := &countingProvider{Provider: NewDeterministicProvider(8, 0)}
	cache, err := NewCache(t.TempDir(), 100)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	// Replace the disk directory with a plain file so every Set's disk half
	// fails (os.CreateTemp against a non-directory) while the memory tier,
	// which is populated first, still succeeds.
	blocked := cache.dir + "-blocked"
	if err := os.WriteFile(blocked, []byte("not a directory"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cache.dir = blocked

	svc := NewService(cp, cache)
	out, err := svc.EmbedBatch(context.Background(), []string{"x"})
	if err != nil {
		t.Fatalf("expected disk cache failure to degrade to memory-only, not abort the batch: %v", err)
	}
	if len(out) != 1 || out[0] == nil {
		t.Fatal("expected a vector despite the disk cache failure")
	}
	if stats := svc.Stats(); stats.MemoryEntries == 0 {
		t.Fatal("expected the memory tier to still hold the entry")
	}
}

func TestServiceCoalescesConcurrentDuplicateRequests(t *testing.T) {
	cp := &countingProvider{Provider: NewDeterministicProvider(16, 0)}
	cache, _ := NewCache(t.TempDir(), 100)
	svc := NewService(cp, cache)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Embed(context.Background(), "same text")
		}()
	}
	wg.Wait()

	if atomic.LoadInt64(&cp.calls) != 1 {
		t.Fatalf("expected concurrent identical requests coalesced into 1 provider call, got %d", cp.calls)
	}
}

func TestServiceStatsAndClearCache(t *testing.T) {
	cache, _ := NewCache(t.TempDir(), 100)
	svc := NewService(NewDeterministicProvider(8, 0), cache)

	_, _ = svc.EmbedBatch(context.Background(), []string{"x", "y"})
	_, _ = svc.EmbedBatch(context.Background(), []string{"x"})

	stats := svc.Stats()
	if stats.Hits == 0 {
		t.Fatalf("expected at least one cache hit, got %+v", stats)
	}
	if err := svc.ClearCache(); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}
	if svc.Stats().MemoryEntries != 0 {
		t.Fatal("expected empty cache after ClearCache")
	}
}
