package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"vellum/internal/config"
)

// Provider converts text into embedding vectors (spec §4.4).
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
	Dimension() int
	Ping(ctx context.Context) error
}

// httpProvider wraps EmbedText for the configured remote or local endpoint.
// Texts are sent one at a time: some local inference servers (llama.cpp
// among them) misbehave under batched embedding requests.
type httpProvider struct {
	cfg      config.EmbeddingConfig
	dim      int
	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration
}

// NewHTTPProvider constructs a Provider backed by the configured embedding
// endpoint. dim is the expected vector width (0 if unknown/variable).
func NewHTTPProvider(cfg config.EmbeddingConfig, dim int) Provider {
	return &httpProvider{cfg: cfg, dim: dim}
}

func (p *httpProvider) Name() string   { return p.cfg.Model }
func (p *httpProvider) Dimension() int { return p.dim }

func (p *httpProvider) Ping(ctx context.Context) error {
	return CheckReachability(ctx, p.cfg)
}

func (p *httpProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := p.rateLimitedCall(ctx, t)
		if err != nil {
			return out, err
		}
		out = append(out, v...)
	}
	return out, nil
}

func (p *httpProvider) rateLimitedCall(ctx context.Context, text string) ([][]float32, error) {
	p.mu.Lock()
	if !p.lastCall.IsZero() {
		if elapsed := time.Since(p.lastCall); elapsed < p.minDelay {
			time.Sleep(p.minDelay - elapsed)
		}
	}
	p.lastCall = time.Now()
	p.mu.Unlock()
	return EmbedText(ctx, p.cfg, []string{text})
}

// deterministicProvider hashes byte 3-grams into a fixed-size vector. It
// never calls a network endpoint, which makes it the fixture used to
// exercise caching, coalescing, and store-round-trip behavior in tests
// (testable property 3) without a live embedding backend.
type deterministicProvider struct {
	dim  int
	seed uint64
}

// NewDeterministicProvider constructs a Provider with no external
// dependencies, suitable for tests and offline development.
func NewDeterministicProvider(dim int, seed uint64) Provider {
	if dim <= 0 {
		dim = 64
	}
	return &deterministicProvider{dim: dim, seed: seed}
}

func (d *deterministicProvider) Name() string                 { return "deterministic" }
func (d *deterministicProvider) Dimension() int               { return d.dim }
func (d *deterministicProvider) Ping(_ context.Context) error { return nil }

func (d *deterministicProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = d.embedOne(t)
	}
	return out, nil
}

func (d *deterministicProvider) embedOne(s string) []float32 {
	v := make([]float32, d.dim)
	b := []byte(s)
	if len(b) == 0 {
		return v
	}
	if len(b) < 3 {
		hashInto(d.seed, b, v)
	} else {
		for i := 0; i <= len(b)-3; i++ {
			hashInto(d.seed, b[i:i+3], v)
		}
	}
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum > 0 {
		inv := float32(1.0 / math.Sqrt(sum))
		for i := range v {
			v[i] *= inv
		}
	}
	return v
}

func hashInto(seed uint64, gram []byte, v []float32) {
	h := fnv.New64a()
	if seed != 0 {
		var tmp [8]byte
		for i := 0; i < 8; i++ {
			tmp[i] = byte(seed >> (8 * i))
		}
		_, _ = h.Write(tmp[:])
	}
	_, _ = h.Write(gram)
	hv := h.Sum64()
	idx := int(hv % uint64(len(v)))
	w := float32(int32(hv>>32)) / float32(1<<31)
	v[idx] += w
}

// NewProvider picks a Provider per cfg.Provider (spec §6's EMBEDDING_PROVIDER).
func NewProvider(cfg config.EmbeddingConfig, dim int) Provider {
	if cfg.Provider == config.ModelLocal && cfg.BaseURL == "" {
		return NewDeterministicProvider(dim, 0)
	}
	return NewHTTPProvider(cfg, dim)
}
