// Package query implements the Query Orchestrator (C7): retrieval-augmented
// answering with source attribution and a hallucination guard, grounded on
// the teacher's internal/rag/service.Service.Retrieve staged pipeline
// (plan → candidates → fusion → attach sources), generalized from multi-
// signal fusion down to a single vector-store retrieval stage since this
// system has no lexical/graph index to fuse against.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"vellum/internal/embedding"
	"vellum/internal/generation"
	"vellum/internal/kberrors"
	"vellum/internal/normalize"
	"vellum/internal/observability"
	"vellum/internal/vectorstore"
)

// noInformationAnswer is the fixed, testable string returned when retrieval
// finds nothing above threshold; the generator is never invoked in that
// case (spec §4.7's hallucination guard).
const noInformationAnswer = "I don't have enough information in the knowledge base to answer that question."

// Confidence buckets the number of distinct contributing sources.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLimited Confidence = "limited"
	ConfidenceNone    Confidence = "none"
)

func confidenceFor(sourceCount int) Confidence {
	switch {
	case sourceCount >= 3:
		return ConfidenceHigh
	case sourceCount == 2:
		return ConfidenceMedium
	case sourceCount == 1:
		return ConfidenceLimited
	default:
		return ConfidenceNone
	}
}

// Source is one attributed chunk of context behind an Answer.
type Source struct {
	Source           string
	FilePath         string
	FileType         string
	ProcessingMethod string
	ChunkIndex       int
	ChunkTotal       int
	ProcessedDate    string
	Excerpt          string
	Distance         float64
}

// Answer is the result of ask/ask_filtered (spec §4.7).
type Answer struct {
	Text           string
	Sources        []Source
	Confidence     Confidence
	FiltersApplied vectorstore.Filter
}

// Config tunes retrieval (spec §6's RETRIEVAL_* variables).
type Config struct {
	K           int
	FetchK      int
	MaxDistance float64
}

// DefaultConfig matches spec §4.7's defaults.
func DefaultConfig() Config {
	return Config{K: 5, FetchK: 10, MaxDistance: 0.3}
}

// Service answers questions against a read-only Vector Store handle (spec
// §3's Ownership rule: the Orchestrator never writes).
type Service struct {
	embed     *embedding.Service
	store     vectorstore.Store
	generator generation.Generator
	cfg       Config
}

// New wires a Service from its collaborators.
func New(embed *embedding.Service, store vectorstore.Store, generator generation.Generator, cfg Config) *Service {
	if cfg.K <= 0 {
		cfg.K = 5
	}
	if cfg.FetchK <= 0 {
		cfg.FetchK = 10
	}
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = 0.3
	}
	return &Service{embed: embed, store: store, generator: generator, cfg: cfg}
}

// Ask answers query with no metadata filter.
func (s *Service) Ask(ctx context.Context, query string) (Answer, error) {
	return s.ask(ctx, query, nil)
}

// AskFiltered answers query, restricting retrieval to chunks matching filter.
func (s *Service) AskFiltered(ctx context.Context, query string, filter vectorstore.Filter) (Answer, error) {
	answer, err := s.ask(ctx, query, filter)
	if err != nil {
		return Answer{}, err
	}
	answer.FiltersApplied = filter
	return answer, nil
}

func (s *Service) ask(ctx context.Context, query string, filter vectorstore.Filter) (Answer, error) {
	logger := observability.LoggerWithTrace(ctx)
	normalized := normalize.Normalize(query)
	if normalized == "" {
		return Answer{}, kberrors.New(kberrors.InputError, "query.Ask", "provide a non-empty question", nil)
	}

	vector, err := s.embed.Embed(ctx, normalized)
	if err != nil {
		return Answer{}, err
	}

	matches, err := s.store.SearchWithThreshold(ctx, vector, s.cfg.FetchK, s.cfg.MaxDistance, filter)
	if err != nil {
		return Answer{}, kberrors.New(kberrors.StorageError, "query.Ask", "vector store search failed", err)
	}
	if len(matches) > s.cfg.K {
		matches = matches[:s.cfg.K]
	}

	if len(matches) == 0 {
		logger.Info().Int("matches", 0).Msg("query returned no information")
		return Answer{Text: noInformationAnswer, Confidence: ConfidenceNone}, nil
	}

	sources := collapseSources(matches)
	answerText, err := s.generate(ctx, normalized, matches)
	if err != nil {
		return Answer{}, err
	}

	logger.Info().Int("matches", len(matches)).Int("sources", len(sources)).Msg("query answered")
	return Answer{
		Text:       answerText,
		Sources:    sources,
		Confidence: confidenceFor(len(sources)),
	}, nil
}

// generate assembles a prompt from the retrieved chunks verbatim and passes
// the LLM's response straight through (spec §4.7 step 5): the Orchestrator
// never edits or re-ranks generated text, only the context it is grounded in.
func (s *Service) generate(ctx context.Context, query string, matches []vectorstore.Match) (string, error) {
	var b strings.Builder
	b.WriteString("Answer the user's question using ONLY the context excerpts below. ")
	b.WriteString("If the context does not contain the answer, say so explicitly.\n\n")
	for i, m := range matches {
		fmt.Fprintf(&b, "[%d] source=%v\n%s\n\n", i+1, m.Metadata["source"], m.Text)
	}
	return s.generator.Generate(ctx, b.String(), query)
}

// collapseSources groups matches by their source document, ordering sources
// by the lowest distance among their contributing chunks and picking, per
// source, the excerpt from the lowest-distance chunk (spec §4.7 tie-break).
func collapseSources(matches []vectorstore.Match) []Source {
	best := make(map[string]vectorstore.Match)
	for _, m := range matches {
		key, _ := m.Metadata["source"].(string)
		cur, ok := best[key]
		if !ok || m.Distance < cur.Distance {
			best[key] = m
		}
	}
	out := make([]Source, 0, len(best))
	for _, m := range best {
		out = append(out, Source{
			Source:           strOf(m.Metadata["source"]),
			FilePath:         strOf(m.Metadata["file_path"]),
			FileType:         strOf(m.Metadata["file_type"]),
			ProcessingMethod: strOf(m.Metadata["processing_method"]),
			ChunkIndex:       intOf(m.Metadata["chunk_index"]),
			ChunkTotal:       intOf(m.Metadata["chunk_total"]),
			ProcessedDate:    strOf(m.Metadata["processed_date"]),
			Excerpt:          excerpt(m.Text, 280),
			Distance:         m.Distance,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

func excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	if len(text) <= n {
		return text
	}
	return strings.TrimSpace(text[:n]) + "…"
}

func strOf(v any) string {
	s, _ := v.(string)
	return s
}

func intOf(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
