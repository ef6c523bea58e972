package loader

import (
	"os"
	"path/filepath"
	"strings"

	"vellum/internal/kberrors"
)

// Strategy extracts elements from raw file content at one quality tier.
// Implementations never panic on malformed input; they return an error or
// an empty element slice, letting the cascade try the next strategy.
type Strategy interface {
	Method() Method
	Extract(path string, raw []byte, opt Options) ([]Element, error)
}

// classOf maps a file extension to the extractor family that handles it.
// Handled classes: plain text/Markdown (.txt, .md, .markdown, .rst), HTML
// (.html, .htm), PDF, Office docs (.xlsx, .docx, .pptx), and JSON/YAML/CSV.
// OpenDocument files, images and email (eml/msg) have no extractor here;
// Load reports those, like any other unlisted extension, as
// ErrUnsupportedFormat.
func classOf(ext string) (string, bool) {
	switch strings.ToLower(ext) {
	case ".txt", ".md", ".markdown", ".rst":
		return "text", true
	case ".html", ".htm":
		return "markup", true
	case ".pdf":
		return "pdf", true
	case ".xlsx":
		return "office", true
	case ".docx":
		return "officedoc", true
	case ".pptx":
		return "officeslide", true
	case ".json", ".yaml", ".yml", ".csv":
		return "structured", true
	default:
		return "", false
	}
}

// strategiesFor returns the cascade (enhanced, basic, fallback) for a class.
func strategiesFor(class string) []Strategy {
	switch class {
	case "text":
		return []Strategy{textEnhanced{}, textBasic{}, genericFallback{}}
	case "markup":
		return []Strategy{markupEnhanced{}, markupBasic{}, genericFallback{}}
	case "pdf":
		return []Strategy{pdfEnhanced{}, pdfBasic{}, genericFallback{}}
	case "office":
		return []Strategy{officeEnhanced{}, officeBasic{}, genericFallback{}}
	case "officedoc":
		return []Strategy{docxEnhanced{}, docxBasic{}, genericFallback{}}
	case "officeslide":
		return []Strategy{pptxEnhanced{}, pptxBasic{}, genericFallback{}}
	case "structured":
		return []Strategy{structuredEnhanced{}, structuredBasic{}, genericFallback{}}
	default:
		return nil
	}
}

// Load turns a file path into an ordered Element sequence plus
// StructuralInfo, trying each strategy in the cascade until one succeeds.
func Load(path string, opt Options) (Result, error) {
	ext := filepath.Ext(path)
	class, ok := classOf(ext)
	if !ok {
		return Result{}, kberrors.New(kberrors.InputError, "loader.Load", "register a loader strategy for this extension or rename the file", kberrors.ErrUnsupportedFormat)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, kberrors.New(kberrors.LoaderError, "loader.Load", "check the file exists and is readable", err)
	}

	var lastErr error
	for _, strat := range strategiesFor(class) {
		elements, err := strat.Extract(path, raw, opt)
		if err != nil {
			lastErr = err
			continue
		}
		elements = applyPartitionBounds(elements, opt)
		if len(elements) == 0 {
			continue
		}
		return Result{
			Elements: renumber(elements),
			Info:     Summarize(elements),
			Method:   strat.Method(),
		}, nil
	}

	if lastErr != nil {
		return Result{}, kberrors.New(kberrors.LoaderError, "loader.Load", "all cascading strategies failed; inspect the underlying errors", lastErr)
	}
	return Result{}, kberrors.New(kberrors.InputError, "loader.Load", "the document contained no extractable text", kberrors.ErrEmptyDocument)
}

func renumber(elements []Element) []Element {
	for i := range elements {
		elements[i].Order = i
	}
	return elements
}

// applyPartitionBounds enforces MaxPartition (hard) by splitting any element
// whose text exceeds it, preferring a NewAfterNChars (soft) boundary near
// paragraph breaks. Table elements are exempt: spec §4.3 forbids splitting
// inside a Table.
func applyPartitionBounds(elements []Element, opt Options) []Element {
	if opt.MaxPartition <= 0 {
		return elements
	}
	var out []Element
	for _, e := range elements {
		if e.Kind == Table || len(e.Text) <= opt.MaxPartition {
			out = append(out, e)
			continue
		}
		out = append(out, splitOversizedElement(e, opt)...)
	}
	return out
}

func splitOversizedElement(e Element, opt Options) []Element {
	soft := opt.NewAfterNChars
	if soft <= 0 || soft >= opt.MaxPartition {
		soft = opt.MaxPartition
	}
	text := e.Text
	var parts []Element
	for len(text) > opt.MaxPartition {
		cut := soft
		if idx := strings.LastIndex(text[:opt.MaxPartition], "\n\n"); idx > soft/2 {
			cut = idx
		} else if idx := strings.LastIndex(text[:opt.MaxPartition], ". "); idx > soft/2 {
			cut = idx + 1
		}
		if cut <= 0 || cut > len(text) {
			cut = opt.MaxPartition
		}
		parts = append(parts, Element{Kind: e.Kind, Text: strings.TrimSpace(text[:cut]), Page: e.Page})
		text = text[cut:]
	}
	if strings.TrimSpace(text) != "" {
		parts = append(parts, Element{Kind: e.Kind, Text: strings.TrimSpace(text), Page: e.Page})
	}
	return parts
}
