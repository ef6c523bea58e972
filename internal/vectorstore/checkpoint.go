package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// checkpointState is persisted under reindex_checkpoints/ (spec §6) so a
// reindex interrupted partway through a large collection resumes instead of
// restarting. The directory is transient: safe to delete once a reindex
// completes successfully.
type checkpointState struct {
	Collection string `json:"collection"`
	Offset     int    `json:"offset"`
	Total      int    `json:"total"`
}

const incrementalBatchSize = 2000
const checkpointEvery = 5000
const defaultMemoryCapMiB = 2048

// ReindexProgress reports where an in-flight reindex stands; callers
// subscribe via WithReindexProgress to drive a progress bar or periodic log
// line instead of waiting for the final ReindexReport.
type ReindexProgress struct {
	Collection string
	BatchID    int
	Processed  int
	Total      int
}

// ReindexOption configures a single Reindex call.
type ReindexOption func(*reindexOptions)

type reindexOptions struct {
	onProgress   func(ReindexProgress)
	memoryCapMiB int
}

// WithReindexProgress subscribes fn to a ReindexProgress report after every
// incremental batch. fn is never called for small collections reindexed in
// a single immediate pass (spec §4.5 only requires progress for the
// batched, checkpointed path).
func WithReindexProgress(fn func(ReindexProgress)) ReindexOption {
	return func(o *reindexOptions) { o.onProgress = fn }
}

// WithMemoryCapMiB overrides the resident-memory soft cap (default 2048,
// config.StoreConfig.MemoryCapMiB) that governs the pause/flush policy
// during incremental reindex.
func WithMemoryCapMiB(capMiB int) ReindexOption {
	return func(o *reindexOptions) { o.memoryCapMiB = capMiB }
}

func resolveReindexOptions(opts []ReindexOption) reindexOptions {
	o := reindexOptions{memoryCapMiB: defaultMemoryCapMiB}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// checkMemoryCap compares resident heap allocation against capMiB and, when
// exceeded, forces a GC cycle and returns the freed bytes to the OS before
// the next batch runs (spec §4.5's "monitor resident memory ... and
// pause/flush when exceeded").
func checkMemoryCap(collection string, capMiB int) {
	if capMiB <= 0 {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	capBytes := uint64(capMiB) * 1024 * 1024
	if ms.Alloc < capBytes {
		return
	}
	log.Warn().
		Str("collection", collection).
		Uint64("alloc_mib", ms.Alloc/1024/1024).
		Int("cap_mib", capMiB).
		Msg("reindex memory soft cap exceeded, flushing")
	runtime.GC()
	debug.FreeOSMemory()
}

func checkpointPath(collection string) string {
	dir := "reindex_checkpoints"
	return filepath.Join(dir, collection+".json")
}

func loadCheckpoint(collection string) (checkpointState, bool) {
	data, err := os.ReadFile(checkpointPath(collection))
	if err != nil {
		return checkpointState{}, false
	}
	var st checkpointState
	if err := json.Unmarshal(data, &st); err != nil {
		return checkpointState{}, false
	}
	return st, true
}

func saveCheckpoint(st checkpointState) error {
	path := checkpointPath(st.Collection)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating checkpoint dir: %w", err)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ckpt-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func clearCheckpoint(collection string) {
	_ = os.Remove(checkpointPath(collection))
}

// runIncrementalReindex drives the large-collection policy from spec §4.5:
// batches of ~2,000, a checkpoint write every ~5,000 processed, a resident-
// memory soft cap pause/flush between batches, and resume from the last
// checkpoint on restart. process is called once per batch and returns how
// many records it actually advanced.
func runIncrementalReindex(ctx context.Context, collection string, total int, profile Profile, process func(ctx context.Context, offset, batchSize int) (int, error), opts ...ReindexOption) (ReindexReport, error) {
	o := resolveReindexOptions(opts)
	start := 0
	resumed := false
	if st, ok := loadCheckpoint(collection); ok && st.Total == total {
		start = st.Offset
		resumed = true
	}

	processed := start
	sinceCheckpoint := 0
	batchID := start / incrementalBatchSize
	for processed < total {
		batch := incrementalBatchSize
		if processed+batch > total {
			batch = total - processed
		}
		checkMemoryCap(collection, o.memoryCapMiB)
		advanced, err := process(ctx, processed, batch)
		if err != nil {
			_ = saveCheckpoint(checkpointState{Collection: collection, Offset: processed, Total: total})
			return ReindexReport{}, fmt.Errorf("reindex batch at offset %d: %w", processed, err)
		}
		processed += advanced
		batchID++
		sinceCheckpoint += advanced
		if o.onProgress != nil {
			o.onProgress(ReindexProgress{Collection: collection, BatchID: batchID, Processed: processed, Total: total})
		}
		if sinceCheckpoint >= checkpointEvery {
			if err := saveCheckpoint(checkpointState{Collection: collection, Offset: processed, Total: total}); err != nil {
				return ReindexReport{}, err
			}
			sinceCheckpoint = 0
		}
		if ctx.Err() != nil {
			_ = saveCheckpoint(checkpointState{Collection: collection, Offset: processed, Total: total})
			return ReindexReport{}, ctx.Err()
		}
	}
	clearCheckpoint(collection)
	return ReindexReport{Collection: collection, Profile: profile, Incremental: true, Processed: processed, Resumed: resumed}, nil
}
