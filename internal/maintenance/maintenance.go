// Package maintenance implements Maintenance Ops (C8): idempotent
// housekeeping over the Embedding Service's cache, the Vector Store, and the
// converted_docs/ ObjectStore, grounded on the same Service/Option shape
// used by internal/knowledgebase and internal/query so every component in
// this system is constructed uniformly.
package maintenance

import (
	"context"

	"vellum/internal/embedding"
	"vellum/internal/objectstore"
	"vellum/internal/vectorstore"
)

// CacheStats mirrors the cache_stats operation (spec §4.4/§4.8).
type CacheStats = embedding.CacheStats

// StoreStats mirrors the store_stats operation (spec §4.5/§4.8).
type StoreStats = vectorstore.Stats

// Service exposes the maintenance operations over an Embedding Service, a
// Vector Store, and an optional ObjectStore. It never constructs its own
// collaborators: all are owned elsewhere (the Façade and Orchestrator), and
// maintenance only observes or triggers housekeeping on them.
type Service struct {
	embed        *embedding.Service
	store        vectorstore.Store
	objStore     objectstore.ObjectStore
	memoryCapMiB int
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithObjectStore wires the converted_docs/ ObjectStore so ClearCache can
// also purge stale converted copies, not just the embedding cache.
func WithObjectStore(store objectstore.ObjectStore) Option {
	return func(s *Service) { s.objStore = store }
}

// WithMemoryCapMiB sets the resident-memory soft cap (config.StoreConfig.
// MemoryCapMiB) ReindexStore enforces during incremental reindex batches.
func WithMemoryCapMiB(capMiB int) Option {
	return func(s *Service) { s.memoryCapMiB = capMiB }
}

// New wires a Service, applying any Options.
func New(embed *embedding.Service, store vectorstore.Store, opts ...Option) *Service {
	s := &Service{embed: embed, store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheStats reports the embedding cache's hit/miss and population state.
func (s *Service) CacheStats() CacheStats {
	return s.embed.Stats()
}

// ClearCache empties both embedding cache tiers and, when an ObjectStore is
// configured, every converted_docs/ object it holds, so a full cache clear
// leaves no stale derived artifacts behind. The ObjectStore passed in via
// WithObjectStore is expected to be rooted at the converted_docs/ directory
// itself (the same instance knowledgebase.WithObjectStore received), so no
// key prefix filtering is needed here.
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.embed.ClearCache(); err != nil {
		return err
	}
	if s.objStore == nil {
		return nil
	}
	result, err := s.objStore.List(ctx, objectstore.ListOptions{})
	if err != nil {
		return err
	}
	for _, obj := range result.Objects {
		if err := s.objStore.Delete(ctx, obj.Key); err != nil {
			return err
		}
	}
	return nil
}

// StoreStats reports the vector store's population and breakdown.
func (s *Service) StoreStats(ctx context.Context) (StoreStats, error) {
	return s.store.Stats(ctx)
}

// OptimizeStore reorganizes on-disk indices without disrupting availability.
func (s *Service) OptimizeStore(ctx context.Context) (vectorstore.OptimizeReport, error) {
	return s.store.Optimize(ctx)
}

// ReindexStore rebuilds indices tuned to the requested profile, dispatching
// to the checkpointed incremental path automatically for large collections.
// onProgress, when non-nil, receives a ReindexProgress report after every
// incremental batch (spec §4.8's reindex progress requirement); it is never
// called for small collections reindexed in one immediate pass.
func (s *Service) ReindexStore(ctx context.Context, profile vectorstore.Profile, onProgress func(vectorstore.ReindexProgress)) (vectorstore.ReindexReport, error) {
	opts := []vectorstore.ReindexOption{vectorstore.WithMemoryCapMiB(s.memoryCapMiB)}
	if onProgress != nil {
		opts = append(opts, vectorstore.WithReindexProgress(onProgress))
	}
	return s.store.Reindex(ctx, profile, opts...)
}
