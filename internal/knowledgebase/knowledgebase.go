// Package knowledgebase implements the Knowledge Base Façade (C6): the
// single entry point for ingestion, orchestrating the Text Normalizer,
// Document Loader, Semantic Chunker, Embedding Service, and Vector Store.
// Grounded on the teacher's internal/rag/service.Service (staged pipeline
// timed via a Clock, functional-option construction).
package knowledgebase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vellum/internal/chunker"
	"vellum/internal/embedding"
	"vellum/internal/kberrors"
	"vellum/internal/loader"
	"vellum/internal/normalize"
	"vellum/internal/objectstore"
	"vellum/internal/vectorstore"
	"vellum/internal/webfetch"
)

// ChunkMetadata is the per-chunk provenance record stored alongside each
// embedding (spec §3).
type ChunkMetadata struct {
	Source           string
	FilePath         string
	FileType         string
	ProcessedDate    time.Time
	ProcessingMethod loader.Method
	ChunkIndex       int
	ChunkTotal       int
	TitlesCount      int
	TablesCount      int
	ListsCount       int
}

func (m ChunkMetadata) toMap() map[string]any {
	return map[string]any{
		"source":                       m.Source,
		"file_path":                    m.FilePath,
		"file_type":                    m.FileType,
		"processed_date":               m.ProcessedDate.Format(time.RFC3339),
		"processing_method":            string(m.ProcessingMethod),
		"chunk_index":                  m.ChunkIndex,
		"chunk_total":                  m.ChunkTotal,
		"structural_info_titles_count": m.TitlesCount,
		"structural_info_tables_count": m.TablesCount,
		"structural_info_lists_count":  m.ListsCount,
	}
}

// IngestSummary is the result of any learn_* operation (spec §4.6/§6).
type IngestSummary struct {
	Source           string
	FileType         string
	ProcessingMethod loader.Method
	ChunkCount       int
	StructuralInfo   loader.StructuralInfo
	Duration         time.Duration
}

// Service is the Façade. It owns every ingestion write to the Vector Store
// (spec §3's Ownership rule); the Query Orchestrator holds a read-only
// handle onto the same Store.
type Service struct {
	embed *embedding.Service
	store vectorstore.Store

	chunkCfg chunker.Config
	loadOpts loader.Options
	fetcher  *webfetch.Fetcher

	objStore objectstore.ObjectStore

	log     Logger
	metrics Metrics
	clock   Clock
}

// New wires a Service from its required collaborators, applying Options for
// anything a caller wants to override.
func New(embed *embedding.Service, store vectorstore.Store, chunkCfg chunker.Config, loadOpts loader.Options, opts ...Option) *Service {
	s := &Service{
		embed:    embed,
		store:    store,
		chunkCfg: chunkCfg,
		loadOpts: loadOpts,
		fetcher:  webfetch.NewFetcher(),
		log:      zerologLogger{},
		metrics:  NoopMetrics{},
		clock:    SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LearnText treats text as one synthetic document (spec §4.6).
func (s *Service) LearnText(ctx context.Context, text, sourceName string) (IngestSummary, error) {
	if strings.TrimSpace(sourceName) == "" {
		sourceName = "manual_text"
	}
	elements := []loader.Element{{Kind: loader.NarrativeText, Text: text}}
	info := loader.Summarize(elements)
	return s.ingest(ctx, sourceName, "", "manual_input", loader.MethodManualText, elements, info)
}

// LearnDocument loads path through the Document Loader cascade, chunks,
// embeds, and upserts it (spec §4.6).
func (s *Service) LearnDocument(ctx context.Context, path string) (IngestSummary, error) {
	result, err := loader.Load(path, s.loadOpts)
	if err != nil {
		return IngestSummary{}, err
	}
	fileType := strings.ToLower(filepath.Ext(path))
	source := filepath.Base(path)
	summary, err := s.ingest(ctx, source, path, fileType, result.Method, result.Elements, result.Info)
	if err != nil {
		return IngestSummary{}, err
	}
	s.writeConvertedCopy(ctx, source, result.Method, result.Elements)
	return summary, nil
}

// LearnFromURL fetches url and treats it as a document or a scraped web
// page depending on content-type/extension (spec §4.6).
func (s *Service) LearnFromURL(ctx context.Context, rawURL string) (IngestSummary, error) {
	res, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return IngestSummary{}, kberrors.New(kberrors.InputError, "knowledgebase.LearnFromURL", "check the URL is reachable and uses http/https", err)
	}

	if res.IsDocument {
		tmp, err := stageTempFile(res.Raw, res.Extension)
		if err != nil {
			return IngestSummary{}, kberrors.New(kberrors.InputError, "knowledgebase.LearnFromURL", "could not stage downloaded document", err)
		}
		defer os.Remove(tmp)
		summary, err := s.LearnDocument(ctx, tmp)
		if err != nil {
			return IngestSummary{}, err
		}
		summary.Source = rawURL
		return summary, nil
	}

	text := res.Markdown
	if res.Title != "" && !strings.Contains(text, res.Title) {
		text = res.Title + "\n\n" + text
	}
	elements := []loader.Element{{Kind: loader.NarrativeText, Text: text}}
	info := loader.Summarize(elements)
	return s.ingest(ctx, rawURL, "", "url", loader.MethodWeb, elements, info)
}

// Stats delegates to the Vector Store (spec §4.6).
func (s *Service) Stats(ctx context.Context) (vectorstore.Stats, error) {
	return s.store.Stats(ctx)
}

// ingest is the staged pipeline shared by every learn_* operation: normalize
// → chunk → embed (batch) → upsert, each stage timed and logged the way the
// teacher's Ingest staged pipeline times preprocess/chunk/embed/index.
func (s *Service) ingest(ctx context.Context, source, filePath, fileType string, method loader.Method, elements []loader.Element, info loader.StructuralInfo) (IngestSummary, error) {
	start := s.clock.Now()

	normalized := make([]loader.Element, len(elements))
	for i, e := range elements {
		e.Text = normalize.Normalize(e.Text)
		normalized[i] = e
	}

	chunks := chunker.ChunkElements(normalized, s.chunkCfg)
	if len(chunks) == 0 {
		return IngestSummary{}, kberrors.New(kberrors.InputError, "knowledgebase.ingest", "the document contained no extractable text", kberrors.ErrEmptyDocument)
	}
	s.metrics.ObserveHistogram("ingestion_stage_ms", float64(ms(s.clock.Now().Sub(start))), map[string]string{"stage": "chunk"})

	embedStart := s.clock.Now()
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embed.EmbedBatch(ctx, texts)
	if err != nil {
		return IngestSummary{}, err
	}
	s.metrics.ObserveHistogram("ingestion_stage_ms", float64(ms(s.clock.Now().Sub(embedStart))), map[string]string{"stage": "embed"})

	processedDate := s.clock.Now()
	batch := make([]vectorstore.Record, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		md := ChunkMetadata{
			Source:           source,
			FilePath:         filePath,
			FileType:         fileType,
			ProcessedDate:    processedDate,
			ProcessingMethod: method,
			ChunkIndex:       c.Index,
			ChunkTotal:       c.Total,
			TitlesCount:      info.TitlesCount,
			TablesCount:      info.TablesCount,
			ListsCount:       info.ListsCount,
		}
		id := chunkID(source, c.Index, c.Text)
		ids[i] = id
		batch[i] = vectorstore.Record{ID: id, Text: c.Text, Vector: vectors[i], Metadata: md.toMap()}
	}

	upsertStart := s.clock.Now()
	if err := s.store.Upsert(ctx, batch); err != nil {
		s.rollback(ctx, ids)
		return IngestSummary{}, kberrors.New(kberrors.StorageError, "knowledgebase.ingest", "vector store upsert failed; rolled back this document's chunks", err)
	}
	s.metrics.ObserveHistogram("ingestion_stage_ms", float64(ms(s.clock.Now().Sub(upsertStart))), map[string]string{"stage": "upsert"})

	s.log.Info("ingested document", map[string]any{"source": source, "chunks": len(chunks), "method": string(method)})
	return IngestSummary{
		Source:           source,
		FileType:         fileType,
		ProcessingMethod: method,
		ChunkCount:       len(chunks),
		StructuralInfo:   info,
		Duration:         s.clock.Now().Sub(start),
	}, nil
}

// rollback deletes every chunk ID from this call's batch, implementing the
// document-level atomicity spec §4.6 requires: a failed upsert must leave no
// partial trace of the document that was being ingested.
func (s *Service) rollback(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := s.store.Delete(ctx, id); err != nil {
			s.log.Error("rollback delete failed", map[string]any{"id": id, "error": err.Error()})
		}
	}
}

// writeConvertedCopy persists a Markdown rendering of the loaded elements
// under converted_docs/ (spec §6) through the ObjectStore installed by
// WithConvertedDocDir (local filesystem) or WithObjectStore (any backend),
// best-effort: failure is logged, not fatal. With neither option set, no
// copy is written.
func (s *Service) writeConvertedCopy(ctx context.Context, source string, method loader.Method, elements []loader.Element) {
	if s.objStore == nil {
		return
	}
	var b strings.Builder
	for _, e := range elements {
		if e.Kind == loader.Title {
			b.WriteString("# ")
		}
		b.WriteString(e.Text)
		b.WriteString("\n\n")
	}
	base := strings.TrimSuffix(source, filepath.Ext(source))
	key := fmt.Sprintf("%s_%s.md", base, method)
	if _, err := s.objStore.Put(ctx, key, bytes.NewReader([]byte(b.String())), objectstore.PutOptions{ContentType: "text/markdown"}); err != nil {
		s.log.Error("converted_docs write failed", map[string]any{"error": err.Error(), "key": key})
	}
}

func chunkID(source string, index int, text string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d\x00%s", source, index, text)))
	return hex.EncodeToString(h[:])
}

func stageTempFile(raw []byte, ext string) (string, error) {
	f, err := os.CreateTemp("", "kb-fetch-*"+ext)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(raw); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
