package vectorstore

import (
	"context"
	"testing"
)

func TestMemoryStoreUpsertAndSearch(t *testing.T) {
	s := newMemoryStore("test", 3)
	ctx := context.Background()

	err := s.Upsert(ctx, []Record{
		{ID: "a", Text: "alpha", Vector: []float32{1, 0, 0}, Metadata: map[string]any{"file_type": "txt"}},
		{ID: "b", Text: "beta", Vector: []float32{0, 1, 0}, Metadata: map[string]any{"file_type": "pdf"}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	matches, err := s.Search(ctx, []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != "a" {
		t.Fatalf("expected 'a' as closest match, got %+v", matches)
	}
	if matches[0].Distance > matches[1].Distance {
		t.Fatal("expected ascending distance order")
	}
}

func TestMemoryStoreSearchFiltersByMetadata(t *testing.T) {
	s := newMemoryStore("test", 3)
	ctx := context.Background()
	_ = s.Upsert(ctx, []Record{
		{ID: "a", Vector: []float32{1, 0, 0}, Metadata: map[string]any{"file_type": "txt"}},
		{ID: "b", Vector: []float32{1, 0, 0}, Metadata: map[string]any{"file_type": "pdf"}},
	})
	matches, err := s.Search(ctx, []float32{1, 0, 0}, 10, Filter{"file_type": "pdf"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "b" {
		t.Fatalf("expected only 'b' to match filter, got %+v", matches)
	}
}

func TestMemoryStoreSearchWithThresholdDiscardsFarMatches(t *testing.T) {
	s := newMemoryStore("test", 2)
	ctx := context.Background()
	_ = s.Upsert(ctx, []Record{
		{ID: "near", Vector: []float32{1, 0}},
		{ID: "far", Vector: []float32{0, 1}},
	})
	matches, err := s.SearchWithThreshold(ctx, []float32{1, 0}, 10, 0.5, nil)
	if err != nil {
		t.Fatalf("SearchWithThreshold: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "near" {
		t.Fatalf("expected only 'near' within threshold, got %+v", matches)
	}
}

func TestMemoryStoreUnmatchedFilterReturnsEmptyNotError(t *testing.T) {
	s := newMemoryStore("test", 2)
	ctx := context.Background()
	_ = s.Upsert(ctx, []Record{{ID: "a", Vector: []float32{1, 0}, Metadata: map[string]any{"file_type": "txt"}}})
	matches, err := s.Search(ctx, []float32{1, 0}, 10, Filter{"file_type": "nonexistent"})
	if err != nil {
		t.Fatalf("expected no error for unmatched filter, got %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected empty result, got %+v", matches)
	}
}

func TestCollectionNameSuffixRule(t *testing.T) {
	name := CollectionName("knowledge_base", "local", "nomic-embed-text")
	if name != "knowledge_base-local_nomic-embed-text" {
		t.Fatalf("unexpected collection name: %q", name)
	}
}

func TestResolveProfileAuto(t *testing.T) {
	cases := []struct {
		count int
		want  Profile
	}{
		{500, ProfileSmall},
		{5000, ProfileMedium},
		{100000, ProfileLarge},
	}
	for _, c := range cases {
		if got := ResolveProfile(ProfileAuto, c.count); got != c.want {
			t.Fatalf("count=%d: got %q want %q", c.count, got, c.want)
		}
	}
}
