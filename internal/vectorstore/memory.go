package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// memoryStore is a brute-force, in-process Store. It never persists, so it
// is used for tests and for small personal knowledge bases that fit
// comfortably in RAM.
type memoryStore struct {
	mu         sync.RWMutex
	collection string
	dimension  int
	records    map[string]Record
}

func newMemoryStore(collection string, dimension int) *memoryStore {
	return &memoryStore{collection: collection, dimension: dimension, records: make(map[string]Record)}
}

func (m *memoryStore) Upsert(_ context.Context, batch []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range batch {
		cp := make([]float32, len(r.Vector))
		copy(cp, r.Vector)
		r.Vector = cp
		r.Metadata = copyMetadata(r.Metadata)
		m.records[r.ID] = r
	}
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memoryStore) Search(_ context.Context, query []float32, k int, filter Filter) ([]Match, error) {
	if k <= 0 {
		k = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	qnorm := vecNorm(query)
	matches := make([]Match, 0, len(m.records))
	for _, r := range m.records {
		if !filter.Match(r.Metadata) {
			continue
		}
		dist := cosineDistance(query, r.Vector, qnorm)
		matches = append(matches, Match{Record: r, Distance: dist})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (m *memoryStore) SearchWithThreshold(ctx context.Context, query []float32, k int, maxDistance float64, filter Filter) ([]Match, error) {
	matches, err := m.Search(ctx, query, k, filter)
	if err != nil {
		return nil, err
	}
	out := matches[:0:0]
	for _, mt := range matches {
		if mt.Distance <= maxDistance {
			out = append(out, mt)
		}
	}
	return out, nil
}

func (m *memoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *memoryStore) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Stats{
		Total:              len(m.records),
		Dimension:          m.dimension,
		ByFileType:         map[string]int{},
		ByProcessingMethod: map[string]int{},
	}
	var titleSum, tableSum int
	for _, r := range m.records {
		if ft, ok := r.Metadata["file_type"].(string); ok {
			s.ByFileType[ft]++
		}
		if pm, ok := r.Metadata["processing_method"].(string); ok {
			s.ByProcessingMethod[pm]++
		}
		if n, ok := toFloat(r.Metadata["structural_info_titles_count"]); ok {
			titleSum += int(n)
			s.TitlesTotal += int(n)
		}
		if n, ok := toFloat(r.Metadata["structural_info_tables_count"]); ok {
			tableSum += int(n)
			s.TablesTotal += int(n)
		}
	}
	if s.Total > 0 {
		s.TitlesAverage = float64(titleSum) / float64(s.Total)
		s.TablesAverage = float64(tableSum) / float64(s.Total)
	}
	return s, nil
}

// Optimize is a no-op for the in-memory backend: there is no on-disk index
// to reorganize. Large collections still report the incremental path taken
// so callers can distinguish "nothing to do" from "ran".
func (m *memoryStore) Optimize(ctx context.Context) (OptimizeReport, error) {
	count, _ := m.Count(ctx)
	return OptimizeReport{Collection: m.collection, Incremental: count >= LargeCollectionThreshold}, nil
}

func (m *memoryStore) Reindex(ctx context.Context, profile Profile, opts ...ReindexOption) (ReindexReport, error) {
	count, _ := m.Count(ctx)
	resolved := ResolveProfile(profile, count)
	if count < LargeCollectionThreshold {
		return ReindexReport{Collection: m.collection, Profile: resolved, Processed: count}, nil
	}
	// The in-memory index is rebuilt by brute-force scan on every Search
	// call, so there is nothing to physically rebuild; the incremental path
	// still runs (and checkpoints) so a reindex against a large in-memory
	// collection exercises the same resumable contract callers depend on
	// against the durable backends.
	return runIncrementalReindex(ctx, m.collection, count, resolved, func(_ context.Context, _, batchSize int) (int, error) {
		return batchSize, nil
	}, opts...)
}

func (m *memoryStore) Close() error { return nil }

func copyMetadata(md map[string]any) map[string]any {
	out := make(map[string]any, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}

func vecNorm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func dotProduct(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var s float64
	for i := 0; i < n; i++ {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// cosineDistance returns 1 - cosine_similarity, in [0, 2] as spec §4.5
// requires; degenerate (zero-norm) vectors are maximally distant.
func cosineDistance(a, b []float32, anorm float64) float64 {
	if anorm == 0 {
		anorm = vecNorm(a)
	}
	bnorm := vecNorm(b)
	if anorm == 0 || bnorm == 0 {
		return 2
	}
	return 1 - dotProduct(a, b)/(anorm*bnorm)
}
