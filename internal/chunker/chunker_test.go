package chunker

import (
	"strings"
	"testing"

	"vellum/internal/loader"
)

func TestChunkElementsShortTextSingleChunk(t *testing.T) {
	elements := []loader.Element{{Kind: loader.NarrativeText, Text: "a short document"}}
	chunks := ChunkElements(elements, DefaultConfig())
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 0 || chunks[0].Total != 1 {
		t.Fatalf("expected index=0 total=1, got %+v", chunks[0])
	}
}

func TestChunkElementsOversizedTableNeverSplit(t *testing.T) {
	bigTable := strings.Repeat("cell | cell | cell\n", 200)
	elements := []loader.Element{{Kind: loader.Table, Text: bigTable}}
	cfg := Config{ChunkSize: 100, ChunkOverlap: 10, SeparatorPriority: DefaultConfig().SeparatorPriority}
	chunks := ChunkElements(elements, cfg)
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one oversized chunk, got %d", len(chunks))
	}
	if !chunks[0].Oversized {
		t.Fatalf("expected chunk flagged oversized")
	}
	if chunks[0].Text != strings.TrimSpace(bigTable) {
		t.Fatalf("table text was altered")
	}
}

func TestChunkElementsDenseIndexing(t *testing.T) {
	var elements []loader.Element
	for i := 0; i < 20; i++ {
		elements = append(elements, loader.Element{Kind: loader.NarrativeText, Text: strings.Repeat("word ", 50)})
	}
	cfg := Config{ChunkSize: 200, ChunkOverlap: 40, SeparatorPriority: DefaultConfig().SeparatorPriority}
	chunks := ChunkElements(elements, cfg)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk_index not dense at %d: got %d", i, c.Index)
		}
		if c.Total != len(chunks) {
			t.Fatalf("chunk_total mismatch: got %d want %d", c.Total, len(chunks))
		}
	}
}

func TestChunkElementsDiscardsEmpty(t *testing.T) {
	elements := []loader.Element{
		{Kind: loader.NarrativeText, Text: "   "},
		{Kind: loader.NarrativeText, Text: "real content"},
	}
	chunks := ChunkElements(elements, DefaultConfig())
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			t.Fatal("found empty chunk")
		}
	}
}
