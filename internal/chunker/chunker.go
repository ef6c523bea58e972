package chunker

import (
	"strings"

	"vellum/internal/loader"
)

// Config configures the semantic chunker (spec §4.3).
type Config struct {
	ChunkSize         int      // target max characters per chunk
	ChunkOverlap      int      // must be < ChunkSize
	SeparatorPriority []string // ordered, highest priority first

	// PreSplit selects the Splitter strategy (see factory.go) used to break
	// up a single oversized element — e.g. one huge narrative block pulled
	// from a fallback-strategy load — before the boundary-aware accumulator
	// below groups pieces back up to ChunkSize with overlap. Defaults to
	// KindRecursive. Table elements bypass PreSplit entirely (never split).
	PreSplit Kind
}

// DefaultConfig matches spec §4.3's defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:         1000,
		ChunkOverlap:      200,
		SeparatorPriority: []string{"\n\n", "\n", ". ", "! ", "? ", " ", ""},
		PreSplit:          KindRecursive,
	}
}

// Chunk is one emitted fragment, ready to be embedded and stored.
type Chunk struct {
	Index     int
	Total     int
	Text      string
	Oversized bool // longer than ChunkSize; a Table element is always emitted whole, whatever its size
}

// ChunkElements splits an ordered Element stream into Chunks honoring
// structural boundaries (a Title opens a hard boundary, a Table is never
// split) and the configured size bound. Split points are aligned to the
// separator-priority table; the overlap carried into the next chunk is the
// last ChunkOverlap bytes of the emitted chunk and is not aligned to a
// separator. PageBreak elements are dropped and add no boundary of their
// own. Grounded on the teacher's
// internal/textsplitters boundary-grouping primitives (groupByTarget,
// clipOverlapTail), generalized from plain-text units to Loader Elements.
func ChunkElements(elements []loader.Element, cfg Config) []Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 5
	}
	if len(cfg.SeparatorPriority) == 0 {
		cfg.SeparatorPriority = DefaultConfig().SeparatorPriority
	}

	units := elementsToUnits(elements, cfg)
	var chunks []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		text := strings.TrimSpace(cur.String())
		if text != "" {
			chunks = append(chunks, text)
		}
		cur.Reset()
	}

	for _, u := range units {
		if u.hardBoundary {
			flush()
		}
		if u.isTable {
			flush()
			chunks = append(chunks, u.text)
			continue
		}
		candidate := u.text
		if cur.Len() > 0 {
			candidate = cur.String() + "\n" + u.text
		}
		if len(candidate) <= cfg.ChunkSize || cur.Len() == 0 {
			if cur.Len() > 0 {
				cur.WriteString("\n")
			}
			cur.WriteString(u.text)
			continue
		}
		full := cur.String()
		splitAt := findSeparatorSplit(full, cfg)
		head := strings.TrimSpace(full[:splitAt])
		tail := full[splitAt:]
		if head != "" {
			chunks = append(chunks, head)
		}
		overlapText := overlapTail(head, cfg.ChunkOverlap)
		cur.Reset()
		if overlapText != "" {
			cur.WriteString(overlapText)
			cur.WriteString("\n")
		}
		cur.WriteString(strings.TrimSpace(tail))
		if cur.Len() > 0 {
			cur.WriteString("\n")
		}
		cur.WriteString(u.text)
	}
	flush()

	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		out = append(out, Chunk{Text: c, Oversized: len(c) > cfg.ChunkSize})
	}
	for i := range out {
		out[i].Index = i
		out[i].Total = len(out)
	}
	return out
}

type unit struct {
	text         string
	hardBoundary bool
	isTable      bool
}

func elementsToUnits(elements []loader.Element, cfg Config) []unit {
	preSplitKind := cfg.PreSplit
	if preSplitKind == "" {
		preSplitKind = KindRecursive
	}
	splitter, _ := NewFromConfig(SplitterConfig{Kind: preSplitKind})

	var units []unit
	for _, e := range elements {
		switch e.Kind {
		case loader.PageBreak:
			continue // dropped, see below
		case loader.Table:
			units = append(units, unit{text: e.Text, isTable: true})
		case loader.Title:
			units = append(units, unit{text: e.Text, hardBoundary: true})
		default:
			if len(e.Text) > cfg.ChunkSize*2 && splitter != nil {
				for _, piece := range splitter.Split(e.Text) {
					units = append(units, unit{text: piece})
				}
			} else {
				units = append(units, unit{text: e.Text})
			}
		}
	}
	// PageBreak elements produce no unit: where a chunk ends around a page
	// break is decided by the size-based splitting in ChunkElements alone.
	return units
}

// findSeparatorSplit finds the highest-priority separator within the last
// ChunkSize/2 characters of full, returning the byte offset just after that
// separator. Falls back to cfg.ChunkSize if none is found.
func findSeparatorSplit(full string, cfg Config) int {
	searchStart := len(full) - cfg.ChunkSize/2
	if searchStart < 0 {
		searchStart = 0
	}
	window := full[searchStart:]
	for _, sep := range cfg.SeparatorPriority {
		if sep == "" {
			continue
		}
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			return searchStart + idx + len(sep)
		}
	}
	if cfg.ChunkSize < len(full) {
		return cfg.ChunkSize
	}
	return len(full)
}

func overlapTail(text string, n int) string {
	if n <= 0 || len(text) <= n {
		return ""
	}
	return text[len(text)-n:]
}
