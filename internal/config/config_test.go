package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t, "MODEL_TYPE", "EMBEDDING_PROVIDER", "EMBED_BASE_URL", "CHUNK_SIZE",
		"RETRIEVAL_K", "COLLECTION_NAME", "CONFIG_FILE")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generation.Type != ModelLocal {
		t.Fatalf("expected default generation type local, got %q", cfg.Generation.Type)
	}
	if cfg.Chunking.ChunkSize != 1000 || cfg.Chunking.ChunkOverlap != 200 {
		t.Fatalf("unexpected chunk defaults: %+v", cfg.Chunking)
	}
	if cfg.Retrieval.K != 5 {
		t.Fatalf("expected default retrieval k=5, got %d", cfg.Retrieval.K)
	}
	if cfg.Store.CollectionName != "knowledge_base" {
		t.Fatalf("unexpected default collection name %q", cfg.Store.CollectionName)
	}
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	clearEnv(t, "EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "CHUNK_SIZE", "CONFIG_FILE")
	os.Setenv("EMBEDDING_PROVIDER", "remote")
	os.Setenv("EMBEDDING_MODEL", "text-embedding-3-small")
	os.Setenv("CHUNK_SIZE", "500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Embedding.Provider != ModelRemote {
		t.Fatalf("expected remote provider, got %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Fatalf("unexpected embedding model %q", cfg.Embedding.Model)
	}
	if cfg.Chunking.ChunkSize != 500 {
		t.Fatalf("expected chunk size 500, got %d", cfg.Chunking.ChunkSize)
	}
}

func TestIntFromEnvFallsBackOnGarbage(t *testing.T) {
	clearEnv(t, "SIO_TEST_INT")
	os.Setenv("SIO_TEST_INT", "not-a-number")
	if got := intFromEnv("SIO_TEST_INT", 9); got != 9 {
		t.Fatalf("expected fallback 9, got %d", got)
	}
}

func TestFloatFromEnv(t *testing.T) {
	clearEnv(t, "SIO_TEST_FLOAT")
	os.Setenv("SIO_TEST_FLOAT", "0.55")
	if got := floatFromEnv("SIO_TEST_FLOAT", 0); got != 0.55 {
		t.Fatalf("expected 0.55, got %v", got)
	}
}
