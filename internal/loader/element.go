// Package loader implements the document loader (C2): format detection and
// cascaded extraction of a file into an ordered sequence of typed Elements
// plus StructuralInfo, grounded on the teacher's internal/documents package
// (reader.go's directory/content-type sniffing, boundaries.go's per-language
// heuristics) and generalized from source-tree boundary detection to
// document structural-element detection.
package loader

import "time"

// Kind enumerates the closed set of structural element variants a Loader can
// produce.
type Kind string

const (
	Title         Kind = "title"
	NarrativeText Kind = "narrative_text"
	ListItem      Kind = "list_item"
	Table         Kind = "table"
	PageBreak     Kind = "page_break"
	Other         Kind = "other"
)

// Element is one structural unit produced by a Loader strategy.
type Element struct {
	Kind  Kind
	Text  string
	Order int

	// Page is set when the source format has pages (PDF); zero otherwise.
	Page int
	// TableRows holds cell text for Table elements, row-major. Nil for
	// other kinds.
	TableRows [][]string
}

// StructuralInfo summarizes one document's element stream.
type StructuralInfo struct {
	TotalElements     int
	TitlesCount       int
	TablesCount       int
	ListsCount        int
	NarrativeBlocks   int
	TotalTextLength   int
	AvgElementLength  float64
}

// Summarize computes StructuralInfo over an element slice.
func Summarize(elements []Element) StructuralInfo {
	var info StructuralInfo
	info.TotalElements = len(elements)
	for _, e := range elements {
		info.TotalTextLength += len(e.Text)
		switch e.Kind {
		case Title:
			info.TitlesCount++
		case Table:
			info.TablesCount++
		case ListItem:
			info.ListsCount++
		case NarrativeText:
			info.NarrativeBlocks++
		}
	}
	if info.TotalElements > 0 {
		info.AvgElementLength = float64(info.TotalTextLength) / float64(info.TotalElements)
	}
	return info
}

// Method identifies which cascading strategy produced a document's elements.
type Method string

const (
	MethodEnhanced   Method = "enhanced"
	MethodBasic      Method = "basic"
	MethodFallback   Method = "fallback"
	MethodManualText Method = "manual_text"
	MethodWeb        Method = "web"
)

// Options configures a single Load call; see spec §4.2's configuration table.
type Options struct {
	Strategy          string // "hi_res" | "fast" | "default"; advisory, strategies decide fit
	IncludeMetadata   bool
	IncludePageBreaks bool
	MaxPartition      int // hard upper bound on one element's text length
	NewAfterNChars    int // soft boundary
}

// DefaultOptions mirrors the teacher's defaults for ingestion options.
func DefaultOptions() Options {
	return Options{
		Strategy:          "default",
		IncludeMetadata:   true,
		IncludePageBreaks: true,
		MaxPartition:      4000,
		NewAfterNChars:    1500,
	}
}

// Result is the successful outcome of Load.
type Result struct {
	Elements []Element
	Info     StructuralInfo
	Method   Method
	LoadedAt time.Time
}
