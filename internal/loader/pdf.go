package loader

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfEnhanced extracts page-by-page text, inserting PageBreak elements
// between pages and heuristically promoting short, title-cased leading
// lines to Title elements — the "hi_res" strategy of spec §4.2.
type pdfEnhanced struct{}

func (pdfEnhanced) Method() Method { return MethodEnhanced }

func (pdfEnhanced) Extract(path string, _ []byte, opt Options) ([]Element, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var elements []Element
	numPages := r.NumPage()
	for pageIdx := 1; pageIdx <= numPages; pageIdx++ {
		page := r.Page(pageIdx)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, block := range strings.Split(text, "\n\n") {
			block = strings.TrimSpace(block)
			if block == "" {
				continue
			}
			elements = append(elements, classifyPdfBlock(block, pageIdx)...)
		}
		if opt.IncludePageBreaks && pageIdx < numPages {
			elements = append(elements, Element{Kind: PageBreak, Text: "", Page: pageIdx})
		}
	}
	return elements, nil
}

func classifyPdfBlock(block string, page int) []Element {
	parts := strings.SplitN(block, "\n", 2)
	firstLine := parts[0]
	if len(firstLine) > 0 && len(firstLine) < 80 && !strings.HasSuffix(firstLine, ".") && firstLine == strings.TrimSpace(firstLine) {
		if isLikelyTitle(firstLine) {
			out := []Element{{Kind: Title, Text: firstLine, Page: page}}
			if len(parts) == 2 && strings.TrimSpace(parts[1]) != "" {
				out = append(out, Element{Kind: NarrativeText, Text: strings.TrimSpace(parts[1]), Page: page})
			}
			return out
		}
	}
	return []Element{{Kind: NarrativeText, Text: block, Page: page}}
}

func isLikelyTitle(line string) bool {
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > 12 {
		return false
	}
	upperish := 0
	for _, w := range words {
		r := []rune(w)
		if len(r) > 0 && (r[0] >= 'A' && r[0] <= 'Z') {
			upperish++
		}
	}
	return upperish*2 >= len(words)
}

// pdfBasic extracts the whole document's text as a single pass without page
// or title structure.
type pdfBasic struct{}

func (pdfBasic) Method() Method { return MethodBasic }

func (pdfBasic) Extract(path string, _ []byte, _ Options) ([]Element, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	b, err := r.GetPlainText()
	if err != nil {
		return nil, err
	}
	if _, err := buf.ReadFrom(b); err != nil {
		return nil, err
	}
	return textBasic{}.Extract(path, buf.Bytes(), Options{})
}
