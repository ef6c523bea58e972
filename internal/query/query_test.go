package query

import (
	"context"
	"testing"

	"vellum/internal/config"
	"vellum/internal/embedding"
	"vellum/internal/vectorstore"
)

type fakeGenerator struct {
	response string
	calls    int
}

func (f *fakeGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.response, nil
}

func newTestStore(t *testing.T, dim int) vectorstore.Store {
	t.Helper()
	ctx := context.Background()
	store, err := vectorstore.NewStore(ctx, config.StoreConfig{CollectionName: "test_kb"}, "deterministic", "deterministic", dim)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestAskWithNoMatchesReturnsCannedAnswerWithoutCallingGenerator(t *testing.T) {
	dim := 16
	provider := embedding.NewDeterministicProvider(dim, 0)
	cache, err := embedding.NewCache(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	embedSvc := embedding.NewService(provider, cache)
	store := newTestStore(t, dim)
	gen := &fakeGenerator{response: "should not be called"}

	svc := New(embedSvc, store, gen, DefaultConfig())
	answer, err := svc.Ask(context.Background(), "what is the capital of nowhere?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Text != noInformationAnswer {
		t.Fatalf("expected canned no-information answer, got %q", answer.Text)
	}
	if answer.Confidence != ConfidenceNone {
		t.Fatalf("expected ConfidenceNone, got %q", answer.Confidence)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be called when retrieval is empty, called %d times", gen.calls)
	}
}

func TestAskWithMatchesInvokesGeneratorAndCollapsesSources(t *testing.T) {
	dim := 16
	ctx := context.Background()
	provider := embedding.NewDeterministicProvider(dim, 0)
	cache, err := embedding.NewCache(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	embedSvc := embedding.NewService(provider, cache)
	store := newTestStore(t, dim)

	vec, err := embedSvc.Embed(ctx, "paris is the capital of france")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	err = store.Upsert(ctx, []vectorstore.Record{
		{ID: "a", Text: "Paris is the capital of France.", Vector: vec, Metadata: map[string]any{"source": "geo.txt", "chunk_index": 0, "chunk_total": 1}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	gen := &fakeGenerator{response: "Paris is the capital of France."}
	svc := New(embedSvc, store, gen, DefaultConfig())

	answer, err := svc.Ask(ctx, "paris is the capital of france")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected exactly one generator call, got %d", gen.calls)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].Source != "geo.txt" {
		t.Fatalf("expected one collapsed source from geo.txt, got %+v", answer.Sources)
	}
	if answer.Confidence != ConfidenceLimited {
		t.Fatalf("expected ConfidenceLimited for one source, got %q", answer.Confidence)
	}
}
