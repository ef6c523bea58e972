// Package config loads runtime configuration from environment variables
// (optionally via a .env file) with a YAML override layer, following the
// teacher's godotenv-then-yaml precedence: env wins, YAML only fills gaps,
// and remaining gaps take hardcoded defaults.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ModelKind selects which LLM or embedding backend a component talks to.
type ModelKind string

const (
	ModelLocal  ModelKind = "local"
	ModelRemote ModelKind = "remote"
)

// GenerationConfig configures the answer-generation LLM (spec §4.6/C7).
type GenerationConfig struct {
	Type        ModelKind
	LocalModel  string
	LocalTemp   float64
	RemoteKey   string
	RemoteBase  string
	RemoteModel string
	RemoteTemp  float64
}

// EmbeddingConfig configures the embedding provider HTTP client (spec §4.4/C4).
type EmbeddingConfig struct {
	Provider  ModelKind
	BaseURL   string
	Path      string
	Model     string
	APIKey    string
	APIHeader string
	Headers   map[string]string
	Timeout   int // seconds
}

// StoreConfig configures the vector store backend (spec §4.5/C5).
type StoreConfig struct {
	Path                 string // VECTOR_DB_PATH; DSN for postgres, directory for qdrant-embedded/memory
	CollectionName       string // base name, suffixed per §4.5 by provider+model
	LargeThreshold       int
	IncrementalBatchSize int
	CheckpointEvery      int
	MemoryCapMiB         int // soft cap on resident memory during incremental reindex/optimize
}

// CacheConfig configures the two-tier embedding cache (spec §4.4).
type CacheConfig struct {
	Dir             string
	MemoryCapacity  int
	ConvertedDocDir string
}

// RetrievalConfig configures query-time vector search (spec §4.6/C7).
type RetrievalConfig struct {
	K           int
	FetchK      int
	MaxDistance float64
}

// ChunkingConfig configures the semantic chunker (spec §4.3/C3).
type ChunkingConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// Config is the fully resolved runtime configuration.
type Config struct {
	Generation GenerationConfig
	Embedding  EmbeddingConfig
	Store      StoreConfig
	Cache      CacheConfig
	Retrieval  RetrievalConfig
	Chunking   ChunkingConfig

	LogLevel string
	LogPath  string

	ObjectStore   ObjectStoreConfig
	Observability ObsConfig
}

// yamlOverrides mirrors the subset of Config that may be supplied by an
// optional config.yaml, consulted only for fields env left empty.
type yamlOverrides struct {
	Generation struct {
		Type        string  `yaml:"type"`
		LocalModel  string  `yaml:"local_model"`
		LocalTemp   float64 `yaml:"local_temperature"`
		RemoteKey   string  `yaml:"remote_api_key"`
		RemoteBase  string  `yaml:"remote_api_base"`
		RemoteModel string  `yaml:"remote_model"`
		RemoteTemp  float64 `yaml:"remote_temperature"`
	} `yaml:"generation"`
	Embedding struct {
		Provider  string            `yaml:"provider"`
		BaseURL   string            `yaml:"base_url"`
		Path      string            `yaml:"path"`
		Model     string            `yaml:"model"`
		APIKey    string            `yaml:"api_key"`
		APIHeader string            `yaml:"api_header"`
		Headers   map[string]string `yaml:"headers"`
		Timeout   int               `yaml:"timeout_seconds"`
	} `yaml:"embedding"`
	Store struct {
		Path                 string `yaml:"path"`
		CollectionName       string `yaml:"collection_name"`
		LargeThreshold       int    `yaml:"large_db_threshold"`
		IncrementalBatchSize int    `yaml:"incremental_batch_size"`
		CheckpointEvery      int    `yaml:"checkpoint_every"`
		MemoryCapMiB         int    `yaml:"memory_cap_mib"`
	} `yaml:"store"`
	Cache struct {
		Dir             string `yaml:"dir"`
		MemoryCapacity  int    `yaml:"memory_capacity"`
		ConvertedDocDir string `yaml:"converted_docs_dir"`
	} `yaml:"cache"`
	Retrieval struct {
		K           int     `yaml:"k"`
		FetchK      int     `yaml:"fetch_k"`
		MaxDistance float64 `yaml:"max_distance"`
	} `yaml:"retrieval"`
	Chunking struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"chunking"`
}

// Load reads configuration from the environment (with an optional .env
// overlay) and fills any remaining gaps from config.yaml, then applies
// hardcoded defaults for whatever is still unset.
func Load() (Config, error) {
	_ = godotenv.Overload()

	var cfg Config
	cfg.Generation.Type = ModelKind(strings.ToLower(strings.TrimSpace(os.Getenv("MODEL_TYPE"))))
	cfg.Generation.LocalModel = strings.TrimSpace(os.Getenv("LOCAL_MODEL"))
	cfg.Generation.LocalTemp = floatFromEnv("LOCAL_TEMPERATURE", 0)
	cfg.Generation.RemoteKey = strings.TrimSpace(os.Getenv("REMOTE_API_KEY"))
	cfg.Generation.RemoteBase = strings.TrimSpace(os.Getenv("REMOTE_API_BASE"))
	cfg.Generation.RemoteModel = strings.TrimSpace(os.Getenv("REMOTE_MODEL"))
	cfg.Generation.RemoteTemp = floatFromEnv("REMOTE_TEMPERATURE", 0)

	cfg.Embedding.Provider = ModelKind(strings.ToLower(strings.TrimSpace(os.Getenv("EMBEDDING_PROVIDER"))))
	cfg.Embedding.Model = strings.TrimSpace(os.Getenv("EMBEDDING_MODEL"))
	cfg.Embedding.BaseURL = strings.TrimSpace(os.Getenv("EMBED_BASE_URL"))
	cfg.Embedding.Path = strings.TrimSpace(os.Getenv("EMBED_PATH"))
	cfg.Embedding.APIKey = strings.TrimSpace(os.Getenv("EMBED_API_KEY"))
	cfg.Embedding.APIHeader = strings.TrimSpace(os.Getenv("EMBED_API_HEADER"))
	cfg.Embedding.Timeout = intFromEnv("EMBED_TIMEOUT_SECONDS", 0)
	if raw := strings.TrimSpace(os.Getenv("EMBED_HEADERS_JSON")); raw != "" {
		if m, err := parseHeadersJSON(raw); err == nil {
			cfg.Embedding.Headers = m
		}
	}

	cfg.Store.Path = strings.TrimSpace(os.Getenv("VECTOR_DB_PATH"))
	cfg.Store.CollectionName = strings.TrimSpace(os.Getenv("COLLECTION_NAME"))
	cfg.Store.LargeThreshold = intFromEnv("LARGE_DB_THRESHOLD", 0)
	cfg.Store.IncrementalBatchSize = intFromEnv("INCREMENTAL_BATCH_SIZE", 0)
	cfg.Store.CheckpointEvery = intFromEnv("CHECKPOINT_EVERY", 0)
	cfg.Store.MemoryCapMiB = intFromEnv("MEMORY_CAP_MIB", 0)

	cfg.Cache.Dir = strings.TrimSpace(os.Getenv("CACHE_DIR"))
	cfg.Cache.MemoryCapacity = intFromEnv("MEMORY_CACHE_CAPACITY", 0)
	cfg.Cache.ConvertedDocDir = strings.TrimSpace(os.Getenv("CONVERTED_DOCS_DIR"))

	cfg.Retrieval.K = intFromEnv("RETRIEVAL_K", 0)
	cfg.Retrieval.FetchK = intFromEnv("RETRIEVAL_FETCH_K", 0)
	cfg.Retrieval.MaxDistance = floatFromEnv("RETRIEVAL_MAX_DISTANCE", 0)

	cfg.Chunking.ChunkSize = intFromEnv("CHUNK_SIZE", 0)
	cfg.Chunking.ChunkOverlap = intFromEnv("CHUNK_OVERLAP", 0)

	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	cfg.LogPath = strings.TrimSpace(os.Getenv("LOG_PATH"))

	cfg.ObjectStore = loadObjectStore()
	cfg.Observability = loadObservability()

	applyYAMLOverrides(&cfg, strings.TrimSpace(os.Getenv("CONFIG_FILE")))
	applyDefaults(&cfg)
	return cfg, nil
}

func applyYAMLOverrides(cfg *Config, path string) {
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var w yamlOverrides
	if err := yaml.Unmarshal(data, &w); err != nil {
		return
	}

	if cfg.Generation.Type == "" && w.Generation.Type != "" {
		cfg.Generation.Type = ModelKind(w.Generation.Type)
	}
	if cfg.Generation.LocalModel == "" {
		cfg.Generation.LocalModel = w.Generation.LocalModel
	}
	if cfg.Generation.RemoteKey == "" {
		cfg.Generation.RemoteKey = w.Generation.RemoteKey
	}
	if cfg.Generation.RemoteBase == "" {
		cfg.Generation.RemoteBase = w.Generation.RemoteBase
	}
	if cfg.Generation.RemoteModel == "" {
		cfg.Generation.RemoteModel = w.Generation.RemoteModel
	}
	if cfg.Generation.LocalTemp == 0 {
		cfg.Generation.LocalTemp = w.Generation.LocalTemp
	}
	if cfg.Generation.RemoteTemp == 0 {
		cfg.Generation.RemoteTemp = w.Generation.RemoteTemp
	}

	if cfg.Embedding.Provider == "" && w.Embedding.Provider != "" {
		cfg.Embedding.Provider = ModelKind(w.Embedding.Provider)
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = w.Embedding.BaseURL
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = w.Embedding.Model
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = w.Embedding.APIKey
	}
	if cfg.Embedding.APIHeader == "" {
		cfg.Embedding.APIHeader = w.Embedding.APIHeader
	}
	if cfg.Embedding.Path == "" {
		cfg.Embedding.Path = w.Embedding.Path
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = w.Embedding.Timeout
	}
	if cfg.Embedding.Headers == nil {
		cfg.Embedding.Headers = w.Embedding.Headers
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = w.Store.Path
	}
	if cfg.Store.CollectionName == "" {
		cfg.Store.CollectionName = w.Store.CollectionName
	}
	if cfg.Store.LargeThreshold == 0 {
		cfg.Store.LargeThreshold = w.Store.LargeThreshold
	}
	if cfg.Store.IncrementalBatchSize == 0 {
		cfg.Store.IncrementalBatchSize = w.Store.IncrementalBatchSize
	}
	if cfg.Store.CheckpointEvery == 0 {
		cfg.Store.CheckpointEvery = w.Store.CheckpointEvery
	}
	if cfg.Store.MemoryCapMiB == 0 {
		cfg.Store.MemoryCapMiB = w.Store.MemoryCapMiB
	}

	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = w.Cache.Dir
	}
	if cfg.Cache.MemoryCapacity == 0 {
		cfg.Cache.MemoryCapacity = w.Cache.MemoryCapacity
	}
	if cfg.Cache.ConvertedDocDir == "" {
		cfg.Cache.ConvertedDocDir = w.Cache.ConvertedDocDir
	}

	if cfg.Retrieval.K == 0 {
		cfg.Retrieval.K = w.Retrieval.K
	}
	if cfg.Retrieval.FetchK == 0 {
		cfg.Retrieval.FetchK = w.Retrieval.FetchK
	}
	if cfg.Retrieval.MaxDistance == 0 {
		cfg.Retrieval.MaxDistance = w.Retrieval.MaxDistance
	}

	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = w.Chunking.ChunkSize
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = w.Chunking.ChunkOverlap
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Generation.Type == "" {
		cfg.Generation.Type = ModelLocal
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ModelLocal
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://127.0.0.1:11434"
	}
	if cfg.Embedding.Path == "" {
		cfg.Embedding.Path = "/v1/embeddings"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.APIHeader == "" {
		cfg.Embedding.APIHeader = "Authorization"
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./vector_store"
	}
	if cfg.Store.CollectionName == "" {
		cfg.Store.CollectionName = "knowledge_base"
	}
	if cfg.Store.LargeThreshold == 0 {
		cfg.Store.LargeThreshold = 10000
	}
	if cfg.Store.IncrementalBatchSize == 0 {
		cfg.Store.IncrementalBatchSize = 500
	}
	if cfg.Store.CheckpointEvery == 0 {
		cfg.Store.CheckpointEvery = 2000
	}
	if cfg.Store.MemoryCapMiB == 0 {
		cfg.Store.MemoryCapMiB = 2048
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "./embedding_cache"
	}
	if cfg.Cache.MemoryCapacity == 0 {
		cfg.Cache.MemoryCapacity = 5000
	}
	if cfg.Cache.ConvertedDocDir == "" {
		cfg.Cache.ConvertedDocDir = "./converted_docs"
	}
	if cfg.Retrieval.K == 0 {
		cfg.Retrieval.K = 5
	}
	if cfg.Retrieval.FetchK == 0 {
		cfg.Retrieval.FetchK = 10
	}
	if cfg.Retrieval.MaxDistance == 0 {
		cfg.Retrieval.MaxDistance = 0.3
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1000
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = 200
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func parseHeadersJSON(raw string) (map[string]string, error) {
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func floatFromEnv(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
