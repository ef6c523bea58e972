package loader

import (
	"strings"
	"unicode"
)

// genericFallback is the last-resort strategy shared by every format class:
// it scans raw bytes for printable runs (in the spirit of the Unix "strings"
// utility) and emits them as a single NarrativeText element. It never
// errors; an empty result simply lets the caller surface EmptyDocument.
type genericFallback struct{}

func (genericFallback) Method() Method { return MethodFallback }

func (genericFallback) Extract(_ string, raw []byte, _ Options) ([]Element, error) {
	const minRun = 4
	var runs []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() >= minRun {
			runs = append(runs, cur.String())
		}
		cur.Reset()
	}
	for _, b := range raw {
		r := rune(b)
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	text := strings.TrimSpace(strings.Join(runs, "\n"))
	if text == "" {
		return nil, nil
	}
	return []Element{{Kind: NarrativeText, Text: text}}, nil
}
