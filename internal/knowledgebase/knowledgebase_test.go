package knowledgebase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"vellum/internal/chunker"
	"vellum/internal/config"
	"vellum/internal/embedding"
	"vellum/internal/loader"
	"vellum/internal/objectstore"
	"vellum/internal/vectorstore"
)

func storeConfig() config.StoreConfig {
	return config.StoreConfig{CollectionName: "test_kb"}
}

func newTestService(t *testing.T) (*Service, vectorstore.Store) {
	t.Helper()
	cache, err := embedding.NewCache(t.TempDir(), 100)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	provider := embedding.NewDeterministicProvider(16, 0)
	embedSvc := embedding.NewService(provider, cache)
	store, err := vectorstore.NewStore(context.Background(), storeConfig(), provider.Name(), "deterministic", 16)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	svc := New(embedSvc, store, chunker.DefaultConfig(), loader.DefaultOptions())
	return svc, store
}

func TestLearnTextProducesChunksWithDenseIndices(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	summary, err := svc.LearnText(ctx, "The quick brown fox jumps over the lazy dog. "+
		"It did this again and again until the sun set over the hills.", "fox-story")
	if err != nil {
		t.Fatalf("LearnText: %v", err)
	}
	if summary.ChunkCount == 0 {
		t.Fatal("expected at least one chunk")
	}
	if summary.ProcessingMethod != loader.MethodManualText {
		t.Fatalf("expected manual_text method, got %q", summary.ProcessingMethod)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != summary.ChunkCount {
		t.Fatalf("expected %d stored chunks, got %d", summary.ChunkCount, count)
	}
}

func TestLearnTextDefaultsSourceName(t *testing.T) {
	svc, _ := newTestService(t)
	summary, err := svc.LearnText(context.Background(), "hello world", "")
	if err != nil {
		t.Fatalf("LearnText: %v", err)
	}
	if summary.Source != "manual_text" {
		t.Fatalf("expected default source name, got %q", summary.Source)
	}
	if summary.FileType != "manual_input" {
		t.Fatalf("expected manual_input file_type, got %q", summary.FileType)
	}
}

func TestLearnTextEmptyInputFails(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.LearnText(context.Background(), "   \n\n  ", "empty")
	if err == nil {
		t.Fatal("expected an error for an empty document")
	}
}

func TestLearnDocumentWritesConvertedCopyToObjectStore(t *testing.T) {
	cache, err := embedding.NewCache(t.TempDir(), 100)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	provider := embedding.NewDeterministicProvider(16, 0)
	embedSvc := embedding.NewService(provider, cache)
	store, err := vectorstore.NewStore(context.Background(), storeConfig(), provider.Name(), "deterministic", 16)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	objStore := objectstore.NewMemoryStore()
	svc := New(embedSvc, store, chunker.DefaultConfig(), loader.DefaultOptions(), WithObjectStore(objStore))

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("Alpine tundra receives very little precipitation most years."), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx := context.Background()
	if _, err := svc.LearnDocument(ctx, path); err != nil {
		t.Fatalf("LearnDocument: %v", err)
	}

	result, err := objStore.List(ctx, objectstore.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(result.Objects) != 1 {
		t.Fatalf("expected exactly one converted copy, got %d", len(result.Objects))
	}
}
