package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchHTMLPageExtractsArticleAsMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Ignore Me</title></head><body>
			<article><h1>Origins of Tea</h1><p>Tea cultivation began in ancient China, where it was valued both as a
			medicinal herb and a ceremonial drink that eventually spread along trade routes to the rest of the world.</p></article>
		</body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher()
	res, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.IsDocument {
		t.Fatal("expected an HTML page to not be classified as a document")
	}
	if !strings.Contains(res.Markdown, "Tea cultivation") {
		t.Fatalf("expected extracted article text in markdown, got %q", res.Markdown)
	}
}

func TestFetchPDFContentTypeIsClassifiedAsDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer srv.Close()

	f := NewFetcher()
	res, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !res.IsDocument {
		t.Fatal("expected a PDF content-type response to be classified as a document")
	}
	if res.Extension != ".pdf" {
		t.Fatalf("expected .pdf extension, got %q", res.Extension)
	}
	if len(res.Raw) == 0 {
		t.Fatal("expected raw bytes to be preserved for document handling")
	}
}

func TestFetchRejectsUnsupportedScheme(t *testing.T) {
	f := NewFetcher()
	_, err := f.Fetch(context.Background(), "ftp://example.com/file.txt")
	if err == nil {
		t.Fatal("expected an error for a non-http(s) scheme")
	}
}

func TestFetchResponseExceedingMaxBytesFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	f := NewFetcher(WithMaxBytes(8))
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected an error when the response exceeds MaxBytes")
	}
}
