package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"vellum/internal/kberrors"
)

// Service is the embedding layer operations in spec §4.4 are defined
// against: a cached, coalesced front end over a Provider.
type Service struct {
	provider Provider
	cache    *Cache
	group    singleflight.Group
}

// NewService wires a Provider to a Cache. Concurrent EmbedBatch calls whose
// uncached texts form the same set are coalesced onto a single in-flight
// provider call via singleflight (see EmbedBatch).
func NewService(provider Provider, cache *Cache) *Service {
	return &Service{provider: provider, cache: cache}
}

// Embed returns the vector for a single text, consulting the cache first.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch returns one vector per input text, hitting the cache for as
// many as possible and issuing a single batched provider call for the rest
// (spec §4.4: "a single provider call" for the uncached partition).
// Concurrent calls whose uncached text sets are identical (the common case
// of N callers asking to embed the same single text) coalesce onto that one
// in-flight call via singleflight, keyed on a hash of the full missing-key
// set rather than per-text, since the provider call now covers the whole
// set at once.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	var missKeys []string

	for i, t := range texts {
		key := Key(s.provider.Name(), t)
		if v, ok := s.cache.Get(key); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
		missKeys = append(missKeys, key)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	v, err, _ := s.group.Do(coalesceKey(missKeys), func() (interface{}, error) {
		vecs, err := s.provider.EmbedBatch(ctx, missTexts)
		if err != nil {
			return nil, kberrors.New(kberrors.EmbeddingBackendError, "embedding.EmbedBatch", "provider call failed", err)
		}
		if len(vecs) != len(missTexts) {
			return nil, kberrors.New(kberrors.EmbeddingBackendError, "embedding.EmbedBatch", "malformed provider response", nil)
		}
		for i, key := range missKeys {
			if err := s.cache.Set(key, vecs[i]); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("embedding cache disk write failed, degrading to memory-only")
			}
		}
		return vecs, nil
	})
	if err != nil {
		return nil, err
	}
	vecs := v.([][]float32)
	for j, idx := range missIdx {
		out[idx] = vecs[j]
	}
	return out, nil
}

// coalesceKey derives a stable singleflight key from a set of cache keys so
// two EmbedBatch calls with the same uncached texts (in any order) share one
// in-flight provider call.
func coalesceKey(keys []string) string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	h := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return hex.EncodeToString(h[:])
}

// Stats implements the cache_stats operation.
func (s *Service) Stats() CacheStats {
	return s.cache.Stats()
}

// ClearCache implements the clear_cache operation. Unlike a single in-batch
// disk write, a full clear failure is actionable on its own and is reported
// as a CacheError rather than logged and swallowed.
func (s *Service) ClearCache() error {
	if err := s.cache.Clear(); err != nil {
		return kberrors.New(kberrors.CacheError, "embedding.ClearCache", "clearing disk cache", err)
	}
	return nil
}

// Ping checks provider reachability.
func (s *Service) Ping(ctx context.Context) error {
	return s.provider.Ping(ctx)
}

// Name reports the configured model name, used to derive vector store
// collection suffixes (spec §4.5).
func (s *Service) Name() string { return s.provider.Name() }

// Dimension reports the provider's embedding width.
func (s *Service) Dimension() int { return s.provider.Dimension() }
