// Package vectorstore implements the Vector Store layer (spec §4.5): a
// durable collection of (id, text, embedding, metadata) supporting
// metadata-filtered nearest-neighbor search, backed by an in-memory index,
// Qdrant, or Postgres/pgvector depending on configuration.
package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"vellum/internal/config"
)

// Record is one stored chunk: its text, embedding, and provenance metadata.
type Record struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]any
}

// Match is a single nearest-neighbor hit.
type Match struct {
	Record
	Distance float64 // cosine-derived distance in [0, 2]; ascending = closer
}

// Stats answers the store_stats/kb_stats operations (spec §4.5).
type Stats struct {
	Total             int
	Dimension         int
	ByFileType        map[string]int
	ByProcessingMethod map[string]int
	TitlesTotal       int
	TablesTotal       int
	TitlesAverage     float64
	TablesAverage     float64
}

// Profile selects the neighbor-graph fan-out / search-beam tuning a reindex
// applies. "auto" maps collection size to a profile per spec §4.5.
type Profile string

const (
	ProfileSmall  Profile = "small"
	ProfileMedium Profile = "medium"
	ProfileLarge  Profile = "large"
	ProfileAuto   Profile = "auto"
)

// ResolveProfile maps a collection size to a concrete profile when the
// caller asked for "auto".
func ResolveProfile(profile Profile, count int) Profile {
	if profile != ProfileAuto && profile != "" {
		return profile
	}
	switch {
	case count < 1000:
		return ProfileSmall
	case count < 50000:
		return ProfileMedium
	default:
		return ProfileLarge
	}
}

// LargeCollectionThreshold is the count (inclusive) at which a collection is
// "large" and optimize/reindex dispatch to the incremental, checkpointed path.
const LargeCollectionThreshold = 10000

// OptimizeReport and ReindexReport are the serializable results of the
// optimize_store / reindex_store operations (spec §6).
type OptimizeReport struct {
	Collection string
	Incremental bool
	BatchesRun  int
}

type ReindexReport struct {
	Collection  string
	Profile     Profile
	Incremental bool
	Processed   int
	Resumed     bool
}

// Store is the Vector Store's public contract (spec §4.5).
type Store interface {
	Upsert(ctx context.Context, batch []Record) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, queryVector []float32, k int, filter Filter) ([]Match, error)
	SearchWithThreshold(ctx context.Context, queryVector []float32, k int, maxDistance float64, filter Filter) ([]Match, error)
	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Optimize(ctx context.Context) (OptimizeReport, error)
	Reindex(ctx context.Context, profile Profile, opts ...ReindexOption) (ReindexReport, error)
	Close() error
}

// CollectionName implements the naming invariant in spec §4.5: switching
// embedding provider or model can never silently mix incompatible vectors.
func CollectionName(base, providerID, modelID string) string {
	return fmt.Sprintf("%s-%s_%s", base, sanitize(providerID), sanitize(modelID))
}

func sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, s)
	return s
}

// Backend selects the persistence engine (spec §11 domain stack).
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendQdrant   Backend = "qdrant"
	BackendPostgres Backend = "postgres"
)

// NewStore constructs a Store from configuration. cfg.Store.Path doubles as
// the Qdrant/Postgres DSN; an empty or "memory://" path selects the
// in-memory backend, used in tests and for small local knowledge bases.
func NewStore(ctx context.Context, cfg config.StoreConfig, providerID, modelID string, dimension int) (Store, error) {
	collection := CollectionName(cfg.CollectionName, providerID, modelID)
	switch detectBackend(cfg.Path) {
	case BackendQdrant:
		return newQdrantStore(cfg.Path, collection, dimension)
	case BackendPostgres:
		return newPostgresStore(ctx, cfg.Path, collection, dimension)
	default:
		return newMemoryStore(collection, dimension), nil
	}
}

func detectBackend(dsn string) Backend {
	switch {
	case dsn == "" || strings.HasPrefix(dsn, "memory://"):
		return BackendMemory
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		return BackendPostgres
	case strings.HasPrefix(dsn, "qdrant://") || strings.HasPrefix(dsn, "http://") || strings.HasPrefix(dsn, "https://"):
		return BackendQdrant
	default:
		return BackendMemory
	}
}
