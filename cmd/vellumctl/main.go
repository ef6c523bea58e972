// Command vellumctl is a thin CLI wrapper over the Knowledge Base's external
// interfaces (spec §6), grounded on the teacher's cmd/embedctl: flag-based
// argument parsing, config.Load() for configuration, and a JSON summary
// written to stdout on success.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"vellum/internal/chunker"
	"vellum/internal/config"
	"vellum/internal/embedding"
	"vellum/internal/generation"
	"vellum/internal/knowledgebase"
	"vellum/internal/loader"
	"vellum/internal/maintenance"
	"vellum/internal/objectstore"
	"vellum/internal/observability"
	"vellum/internal/query"
	"vellum/internal/vectorstore"
	"vellum/internal/version"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	op := os.Args[1]
	args := os.Args[2:]

	if op == "version" {
		fmt.Println(version.Version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	observability.InitLogger(cfg.LogPath, cfg.LogLevel, cfg.Observability)

	ctx := context.Background()
	if cfg.Observability.OTLP != "" {
		shutdown, err := observability.InitOTel(ctx, cfg.Observability)
		if err != nil {
			log.Fatalf("init otel: %v", err)
		}
		defer shutdown(ctx)
	}

	result, err := dispatch(ctx, op, args, cfg)
	if err != nil {
		log.Fatalf("%s: %v", op, err)
	}
	emit(result)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vellumctl <operation> [flags]

operations:
  learn_text        -source NAME -stdin | -text "..."
  learn_document    -path FILE
  learn_from_url    -url URL
  ask               -query "..."
  ask_filtered      -query "..." -filter '{"field":"value"}'
  kb_stats
  cache_stats
  clear_cache
  store_stats
  optimize_store
  reindex_store     -profile {small,medium,large,auto}
  version`)
}

func dispatch(ctx context.Context, op string, args []string, cfg config.Config) (any, error) {
	switch op {
	case "learn_text":
		return runLearnText(ctx, args, cfg)
	case "learn_document":
		return runLearnDocument(ctx, args, cfg)
	case "learn_from_url":
		return runLearnFromURL(ctx, args, cfg)
	case "ask":
		return runAsk(ctx, args, cfg, nil)
	case "ask_filtered":
		return runAskFiltered(ctx, args, cfg)
	case "kb_stats", "store_stats":
		return runStoreStats(ctx, cfg)
	case "cache_stats":
		return runCacheStats(cfg)
	case "clear_cache":
		return nil, runClearCache(ctx, cfg)
	case "optimize_store":
		return runOptimizeStore(ctx, cfg)
	case "reindex_store":
		return runReindexStore(ctx, args, cfg)
	default:
		usage()
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

func buildEmbeddingService(cfg config.Config) *embedding.Service {
	provider := embedding.NewProvider(cfg.Embedding, 0)
	cache, err := embedding.NewCache(cfg.Cache.Dir, cfg.Cache.MemoryCapacity)
	if err != nil {
		log.Fatalf("open embedding cache: %v", err)
	}
	return embedding.NewService(provider, cache)
}

func buildStore(ctx context.Context, cfg config.Config, embed *embedding.Service) vectorstore.Store {
	store, err := vectorstore.NewStore(ctx, cfg.Store, string(cfg.Embedding.Provider), embed.Name(), embed.Dimension())
	if err != nil {
		log.Fatalf("open vector store: %v", err)
	}
	return store
}

func buildFacade(ctx context.Context, cfg config.Config) (*knowledgebase.Service, *embedding.Service, vectorstore.Store) {
	embed := buildEmbeddingService(cfg)
	store := buildStore(ctx, cfg, embed)
	chunkCfg := chunker.Config{ChunkSize: cfg.Chunking.ChunkSize, ChunkOverlap: cfg.Chunking.ChunkOverlap}

	objStore, err := objectstore.NewFromConfig(ctx, cfg.ObjectStore, cfg.Cache.ConvertedDocDir)
	if err != nil {
		log.Fatalf("open converted_docs object store: %v", err)
	}
	svc := knowledgebase.New(embed, store, chunkCfg, loader.DefaultOptions(), knowledgebase.WithObjectStore(objStore))
	return svc, embed, store
}

func runLearnText(ctx context.Context, args []string, cfg config.Config) (any, error) {
	fs := flag.NewFlagSet("learn_text", flag.ExitOnError)
	source := fs.String("source", "", "logical source name")
	text := fs.String("text", "", "text to learn")
	stdin := fs.Bool("stdin", false, "read text from stdin")
	fs.Parse(args)

	input := *text
	if *stdin {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		input = string(b)
	}
	if input == "" {
		return nil, fmt.Errorf("no input provided; use -text or -stdin")
	}

	svc, _, _ := buildFacade(ctx, cfg)
	return svc.LearnText(ctx, input, *source)
}

func runLearnDocument(ctx context.Context, args []string, cfg config.Config) (any, error) {
	fs := flag.NewFlagSet("learn_document", flag.ExitOnError)
	path := fs.String("path", "", "path to the document")
	fs.Parse(args)
	if *path == "" {
		return nil, fmt.Errorf("-path is required")
	}
	svc, _, _ := buildFacade(ctx, cfg)
	return svc.LearnDocument(ctx, *path)
}

func runLearnFromURL(ctx context.Context, args []string, cfg config.Config) (any, error) {
	fs := flag.NewFlagSet("learn_from_url", flag.ExitOnError)
	url := fs.String("url", "", "URL to fetch and learn")
	fs.Parse(args)
	if *url == "" {
		return nil, fmt.Errorf("-url is required")
	}
	svc, _, _ := buildFacade(ctx, cfg)
	return svc.LearnFromURL(ctx, *url)
}

func buildOrchestrator(ctx context.Context, cfg config.Config) *query.Service {
	embed := buildEmbeddingService(cfg)
	store := buildStore(ctx, cfg, embed)
	generator := generation.New(cfg.Generation)
	return query.New(embed, store, generator, query.Config{K: cfg.Retrieval.K, FetchK: cfg.Retrieval.FetchK, MaxDistance: cfg.Retrieval.MaxDistance})
}

func runAsk(ctx context.Context, args []string, cfg config.Config, filter vectorstore.Filter) (any, error) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	q := fs.String("query", "", "question to ask")
	fs.Parse(args)
	if *q == "" {
		return nil, fmt.Errorf("-query is required")
	}
	svc := buildOrchestrator(ctx, cfg)
	if filter != nil {
		return svc.AskFiltered(ctx, *q, filter)
	}
	return svc.Ask(ctx, *q)
}

func runAskFiltered(ctx context.Context, args []string, cfg config.Config) (any, error) {
	fs := flag.NewFlagSet("ask_filtered", flag.ExitOnError)
	q := fs.String("query", "", "question to ask")
	filterJSON := fs.String("filter", "{}", "JSON metadata filter")
	fs.Parse(args)
	if *q == "" {
		return nil, fmt.Errorf("-query is required")
	}
	var filter vectorstore.Filter
	if err := json.Unmarshal([]byte(*filterJSON), &filter); err != nil {
		return nil, fmt.Errorf("invalid -filter JSON: %w", err)
	}
	svc := buildOrchestrator(ctx, cfg)
	return svc.AskFiltered(ctx, *q, filter)
}

func runStoreStats(ctx context.Context, cfg config.Config) (any, error) {
	embed := buildEmbeddingService(cfg)
	store := buildStore(ctx, cfg, embed)
	return maintenance.New(embed, store).StoreStats(ctx)
}

func runCacheStats(cfg config.Config) (any, error) {
	embed := buildEmbeddingService(cfg)
	return maintenance.New(embed, nil).CacheStats(), nil
}

func runClearCache(ctx context.Context, cfg config.Config) error {
	embed := buildEmbeddingService(cfg)
	objStore, err := objectstore.NewFromConfig(ctx, cfg.ObjectStore, cfg.Cache.ConvertedDocDir)
	if err != nil {
		log.Fatalf("open converted_docs object store: %v", err)
	}
	return maintenance.New(embed, nil, maintenance.WithObjectStore(objStore)).ClearCache(ctx)
}

func runOptimizeStore(ctx context.Context, cfg config.Config) (any, error) {
	embed := buildEmbeddingService(cfg)
	store := buildStore(ctx, cfg, embed)
	return maintenance.New(embed, store).OptimizeStore(ctx)
}

func runReindexStore(ctx context.Context, args []string, cfg config.Config) (any, error) {
	fs := flag.NewFlagSet("reindex_store", flag.ExitOnError)
	profile := fs.String("profile", string(vectorstore.ProfileAuto), "small|medium|large|auto")
	fs.Parse(args)
	embed := buildEmbeddingService(cfg)
	store := buildStore(ctx, cfg, embed)
	svc := maintenance.New(embed, store, maintenance.WithMemoryCapMiB(cfg.Store.MemoryCapMiB))
	onProgress := func(p vectorstore.ReindexProgress) {
		log.Printf("reindex %s: batch %d, %d/%d processed", p.Collection, p.BatchID, p.Processed, p.Total)
	}
	return svc.ReindexStore(ctx, vectorstore.Profile(*profile), onProgress)
}

func emit(v any) {
	if v == nil {
		fmt.Println("{}")
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		Result    any       `json:"result"`
		Timestamp time.Time `json:"timestamp"`
	}{Result: v, Timestamp: time.Now()}); err != nil {
		log.Fatalf("encode result: %v", err)
	}
}
