package vectorstore

import "testing"

func TestFilterEquality(t *testing.T) {
	f := Filter{"file_type": "pdf"}
	if !f.Match(map[string]any{"file_type": "pdf"}) {
		t.Fatal("expected match")
	}
	if f.Match(map[string]any{"file_type": "txt"}) {
		t.Fatal("expected no match")
	}
}

func TestFilterRange(t *testing.T) {
	f := Filter{"page": map[string]any{"$gte": 2.0}}
	if !f.Match(map[string]any{"page": 5.0}) {
		t.Fatal("expected match for page >= 2")
	}
	if f.Match(map[string]any{"page": 1.0}) {
		t.Fatal("expected no match for page < 2")
	}
}

func TestFilterContains(t *testing.T) {
	f := Filter{"source": map[string]any{"$contains": "report"}}
	if !f.Match(map[string]any{"source": "quarterly_report.pdf"}) {
		t.Fatal("expected substring match")
	}
}

func TestFilterAndConjunction(t *testing.T) {
	f := Filter{"$and": []any{
		Filter{"file_type": "pdf"},
		Filter{"page": map[string]any{"$gte": 1.0}},
	}}
	if !f.Match(map[string]any{"file_type": "pdf", "page": 3.0}) {
		t.Fatal("expected conjunction match")
	}
	if f.Match(map[string]any{"file_type": "txt", "page": 3.0}) {
		t.Fatal("expected conjunction mismatch")
	}
}

func TestEmptyFilterMatchesEverything(t *testing.T) {
	var f Filter
	if !f.Match(map[string]any{"anything": "goes"}) {
		t.Fatal("nil filter should match everything")
	}
}
