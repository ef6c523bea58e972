package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
)

func cleanupCheckpoint(t *testing.T, collection string) {
	t.Cleanup(func() {
		_ = os.Remove(checkpointPath(collection))
	})
}

// TestRunIncrementalReindexResumesAfterInjectedFailure covers S6: a batch
// failure partway through a large reindex must be resumable from the last
// checkpoint rather than restarting from offset 0.
func TestRunIncrementalReindexResumesAfterInjectedFailure(t *testing.T) {
	collection := "resume-test"
	cleanupCheckpoint(t, collection)
	ctx := context.Background()
	total := 6000

	var seenOffsets []int
	failOnce := true
	_, err := runIncrementalReindex(ctx, collection, total, ProfileLarge, func(_ context.Context, offset, batchSize int) (int, error) {
		seenOffsets = append(seenOffsets, offset)
		if failOnce && offset == incrementalBatchSize {
			failOnce = false
			return 0, errors.New("injected batch failure")
		}
		return batchSize, nil
	})
	if err == nil {
		t.Fatal("expected the injected failure to surface")
	}

	st, ok := loadCheckpoint(collection)
	if !ok {
		t.Fatal("expected a checkpoint to be saved after the failed batch")
	}
	if st.Offset != incrementalBatchSize {
		t.Fatalf("expected checkpoint offset %d, got %d", incrementalBatchSize, st.Offset)
	}
	if st.Total != total {
		t.Fatalf("expected checkpoint total %d, got %d", total, st.Total)
	}

	seenOffsets = nil
	report, err := runIncrementalReindex(ctx, collection, total, ProfileLarge, func(_ context.Context, offset, batchSize int) (int, error) {
		seenOffsets = append(seenOffsets, offset)
		return batchSize, nil
	})
	if err != nil {
		t.Fatalf("resumed reindex failed: %v", err)
	}
	if !report.Resumed {
		t.Fatal("expected the second run to report Resumed=true")
	}
	if report.Processed != total {
		t.Fatalf("expected Processed=%d, got %d", total, report.Processed)
	}
	if seenOffsets[0] != incrementalBatchSize {
		t.Fatalf("expected resume to start at offset %d, got %d", incrementalBatchSize, seenOffsets[0])
	}

	if _, ok := loadCheckpoint(collection); ok {
		t.Fatal("expected checkpoint to be cleared after a successful run")
	}
}

// TestRunIncrementalReindexReportsProgress covers spec §4.8's reindex
// progress requirement: WithReindexProgress must fire once per batch with
// monotonically advancing Processed/BatchID.
func TestRunIncrementalReindexReportsProgress(t *testing.T) {
	collection := "progress-test"
	cleanupCheckpoint(t, collection)
	ctx := context.Background()
	total := incrementalBatchSize * 3

	var reports []ReindexProgress
	_, err := runIncrementalReindex(ctx, collection, total, ProfileLarge, func(_ context.Context, _, batchSize int) (int, error) {
		return batchSize, nil
	}, WithReindexProgress(func(p ReindexProgress) {
		reports = append(reports, p)
	}))
	if err != nil {
		t.Fatalf("runIncrementalReindex: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 progress reports, got %d", len(reports))
	}
	for i, r := range reports {
		if r.BatchID != i+1 {
			t.Fatalf("report %d: expected BatchID %d, got %d", i, i+1, r.BatchID)
		}
		if r.Total != total {
			t.Fatalf("report %d: expected Total %d, got %d", i, total, r.Total)
		}
	}
	if reports[len(reports)-1].Processed != total {
		t.Fatalf("expected final report Processed=%d, got %d", total, reports[len(reports)-1].Processed)
	}
}

// TestMemoryStoreReindexPreservesRecords covers invariant 8: reindex must
// not mutate or drop ids, vectors, or metadata, even on the incremental
// path a large collection takes.
func TestMemoryStoreReindexPreservesRecords(t *testing.T) {
	collection := "preserve-test"
	cleanupCheckpoint(t, collection)
	s := newMemoryStore(collection, 3)
	ctx := context.Background()

	count := LargeCollectionThreshold + 1
	batch := make([]Record, 0, count)
	for i := 0; i < count; i++ {
		batch = append(batch, Record{
			ID:       fmt.Sprintf("rec-%d", i),
			Vector:   []float32{float32(i), 1, 0},
			Metadata: map[string]any{"file_type": "txt", "seq": i},
		})
	}
	if err := s.Upsert(ctx, batch); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	before := make(map[string]Record, count)
	for id, r := range s.records {
		before[id] = r
	}

	report, err := s.Reindex(ctx, ProfileAuto)
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if !report.Incremental {
		t.Fatal("expected a collection above LargeCollectionThreshold to take the incremental path")
	}
	if report.Processed != count {
		t.Fatalf("expected Processed=%d, got %d", count, report.Processed)
	}

	if len(s.records) != count {
		t.Fatalf("expected %d records after reindex, got %d", count, len(s.records))
	}
	for id, want := range before {
		got, ok := s.records[id]
		if !ok {
			t.Fatalf("record %q missing after reindex", id)
		}
		if len(got.Vector) != len(want.Vector) || got.Vector[0] != want.Vector[0] {
			t.Fatalf("record %q vector changed: got %v, want %v", id, got.Vector, want.Vector)
		}
		if got.Metadata["seq"] != want.Metadata["seq"] {
			t.Fatalf("record %q metadata changed: got %v, want %v", id, got.Metadata, want.Metadata)
		}
	}
}
