package loader

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"

	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var mdParser = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
).Parser()

// textEnhanced parses .txt/.md content into Title/ListItem/NarrativeText/
// Table elements by walking a goldmark AST. ATX and Setext headings become
// Title elements, list items become ListItem elements, and GFM tables become
// Table elements with their cells preserved in TableRows.
type textEnhanced struct{}

func (textEnhanced) Method() Method { return MethodEnhanced }

func (textEnhanced) Extract(_ string, raw []byte, _ Options) ([]Element, error) {
	source := []byte(normalizeNewlines(string(raw)))
	doc := mdParser.Parse(text.NewReader(source))

	var elements []Element
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if t := nodeText(node, source); t != "" {
				elements = append(elements, Element{Kind: Title, Text: t})
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			if t := nodeText(node, source); t != "" {
				elements = append(elements, Element{Kind: ListItem, Text: "• " + t})
			}
			return ast.WalkSkipChildren, nil
		case *extast.Table:
			rows := tableRows(node, source)
			if len(rows) > 0 {
				elements = append(elements, Element{Kind: Table, Text: renderTable(rows), TableRows: rows})
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			if t := strings.TrimSpace(rawLines(node, source)); t != "" {
				elements = append(elements, Element{Kind: NarrativeText, Text: t})
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			if t := strings.TrimSpace(rawLines(node, source)); t != "" {
				elements = append(elements, Element{Kind: NarrativeText, Text: t})
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if t := nodeText(node, source); t != "" {
				elements = append(elements, Element{Kind: NarrativeText, Text: t})
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return elements, nil
}

// nodeText collects every inline text leaf under n into one whitespace-
// collapsed string, which is enough to flatten a Heading, Paragraph, or
// ListItem (possibly wrapping a loose Paragraph) down to plain text.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	collectText(n, source, &b)
	return strings.TrimSpace(strings.Join(strings.Fields(b.String()), " "))
}

func collectText(n ast.Node, source []byte, b *strings.Builder) {
	switch t := n.(type) {
	case *ast.Text:
		b.Write(t.Segment.Value(source))
		if t.SoftLineBreak() || t.HardLineBreak() {
			b.WriteByte(' ')
		}
		return
	case *ast.String:
		b.Write(t.Value)
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		collectText(c, source, b)
	}
}

type linesNode interface {
	Lines() *text.Segments
}

// rawLines renders a leaf block's raw source lines verbatim, preserving
// internal whitespace the way nodeText's field-collapsing would destroy.
func rawLines(n linesNode, source []byte) string {
	lines := n.Lines()
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		b.Write(lines.At(i).Value(source))
	}
	return b.String()
}

func tableRows(tbl *extast.Table, source []byte) [][]string {
	var rows [][]string
	for row := tbl.FirstChild(); row != nil; row = row.NextSibling() {
		switch row.(type) {
		case *extast.TableHeader, *extast.TableRow:
			rows = append(rows, tableRowCells(row, source))
		}
	}
	return rows
}

func tableRowCells(row ast.Node, source []byte) []string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		cells = append(cells, nodeText(cell, source))
	}
	return cells
}

func renderTable(rows [][]string) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = strings.Join(r, " | ")
	}
	return strings.Join(lines, "\n")
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// textBasic ignores structure entirely and emits one NarrativeText element
// per blank-line-delimited paragraph. It is the "fast/default" strategy.
type textBasic struct{}

func (textBasic) Method() Method { return MethodBasic }

func (textBasic) Extract(_ string, raw []byte, _ Options) ([]Element, error) {
	blocks := regexp.MustCompile(`\n\s*\n+`).Split(normalizeNewlines(string(raw)), -1)
	var elements []Element
	for _, b := range blocks {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		elements = append(elements, Element{Kind: NarrativeText, Text: b})
	}
	return elements, nil
}
