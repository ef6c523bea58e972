package loader

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	readability "github.com/go-shiori/go-readability"
)

// markupEnhanced extracts the main article content with go-readability,
// converts it to Markdown with html-to-markdown, then reuses the Markdown
// structural parser so headings/lists/tables survive the HTML round-trip.
type markupEnhanced struct{}

func (markupEnhanced) Method() Method { return MethodEnhanced }

func (markupEnhanced) Extract(path string, raw []byte, opt Options) ([]Element, error) {
	base, _ := url.Parse("file://" + path)
	article, err := readability.FromReader(bytes.NewReader(raw), base)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return nil, err
	}
	markdown, err := htmltomarkdown.ConvertString(article.Content)
	if err != nil {
		return nil, err
	}
	elements, _ := textEnhanced{}.Extract(path, []byte(markdown), opt)
	if article.Title != "" {
		elements = append([]Element{{Kind: Title, Text: article.Title}}, elements...)
	}
	return elements, nil
}

var tagRe = regexp.MustCompile(`(?s)<[^>]+>`)
var scriptStyleRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)

// markupBasic strips tags naively and splits on blank lines, without
// boilerplate removal.
type markupBasic struct{}

func (markupBasic) Method() Method { return MethodBasic }

func (markupBasic) Extract(path string, raw []byte, opt Options) ([]Element, error) {
	cleaned := scriptStyleRe.ReplaceAllString(string(raw), "")
	cleaned = tagRe.ReplaceAllString(cleaned, "\n")
	return textBasic{}.Extract(path, []byte(cleaned), opt)
}
