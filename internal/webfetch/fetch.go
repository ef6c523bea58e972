// Package webfetch retrieves a URL for the Knowledge Base Façade's
// learn_from_url operation, grounded on the teacher's internal/tools/web
// fetcher: a hardened http.Client, readability-based article extraction,
// and HTML-to-Markdown conversion.
package webfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"
)

// ErrUnsupportedScheme is returned for non-http(s) URLs.
var ErrUnsupportedScheme = errors.New("webfetch: unsupported URL scheme")

// documentExtensions are the loader-supported formats (a subset of them:
// .docx and .pptx are not listed) that are downloaded and run through the
// Document Loader cascade rather than scraped as a web page (spec §4.6's
// learn_from_url predicate).
var documentExtensions = map[string]bool{
	".pdf": true, ".xlsx": true, ".json": true, ".yaml": true, ".yml": true, ".csv": true,
}

var documentContentTypes = map[string]bool{
	"application/pdf":    true,
	"application/json":   true,
	"text/csv":           true,
	"application/x-yaml": true,
	"application/yaml":   true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// Result is the outcome of a Fetch call.
type Result struct {
	InputURL    string
	FinalURL    string
	Status      int
	ContentType string

	// IsDocument is true when the content should be treated as a
	// downloadable document (learn_document semantics); false means it was
	// scraped as HTML/text (processing_method "web").
	IsDocument bool
	// Extension is the document extension to use when staging Raw to a
	// temp file, valid only when IsDocument is true.
	Extension string
	Raw       []byte

	Title     string
	Markdown  string
	FetchedAt time.Time
}

// Options tunes Fetcher behavior; the zero value is unusable, use NewFetcher.
type Options struct {
	Timeout      time.Duration
	MaxBytes     int64
	UserAgent    string
	MaxRedirects int
}

// Option is the functional option type.
type Option func(*Options)

func WithTimeout(d time.Duration) Option   { return func(o *Options) { o.Timeout = d } }
func WithMaxBytes(n int64) Option          { return func(o *Options) { o.MaxBytes = n } }
func WithUserAgent(ua string) Option       { return func(o *Options) { o.UserAgent = ua } }
func WithMaxRedirects(n int) Option        { return func(o *Options) { o.MaxRedirects = n } }

// Fetcher performs hardened HTTP GETs and converts HTML responses to
// Markdown via readability extraction.
type Fetcher struct {
	client *http.Client
	opts   Options
}

// NewFetcher builds a Fetcher with sane defaults for unattended ingestion.
func NewFetcher(opts ...Option) *Fetcher {
	o := Options{
		Timeout:      20 * time.Second,
		MaxBytes:     16 * 1000 * 1000,
		UserAgent:    "vellum-knowledgebase/1.0",
		MaxRedirects: 10,
	}
	for _, fn := range opts {
		fn(&o)
	}

	dialer := &net.Dialer{Timeout: 7 * time.Second, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   7 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		if len(via) > o.MaxRedirects {
			return fmt.Errorf("stopped after %d redirects", o.MaxRedirects)
		}
		return nil
	}
	client := &http.Client{Transport: transport, CheckRedirect: checkRedirect, Timeout: o.Timeout}
	return &Fetcher{client: client, opts: o}
}

// Fetch retrieves rawURL and classifies it per spec §4.6: a recognized
// downloadable-document extension or content-type is returned with
// IsDocument set and the raw bytes preserved; anything else is treated as a
// web page and converted to Markdown via readability + html-to-markdown.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,application/json,text/csv,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	finalURL := resp.Request.URL.String()
	ct, cs := parseContentType(resp.Header.Get("Content-Type"))

	limited := io.LimitReader(resp.Body, f.opts.MaxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.opts.MaxBytes {
		return nil, fmt.Errorf("response exceeds max bytes (%d)", f.opts.MaxBytes)
	}

	res := &Result{InputURL: rawURL, FinalURL: finalURL, Status: resp.StatusCode, ContentType: ct, FetchedAt: time.Now()}

	ext := strings.ToLower(path.Ext(u.Path))
	if documentContentTypes[ct] || documentExtensions[ext] {
		res.IsDocument = true
		res.Extension = documentExtension(ct, ext)
		res.Raw = body
		return res, nil
	}

	utf8Body, err := toUTF8(body, cs)
	if err != nil {
		return nil, fmt.Errorf("charset decode: %w", err)
	}

	if isHTML(ct) {
		html := string(utf8Body)
		articleHTML, title := extractArticle(html, finalURL)
		base := baseOrigin(finalURL)
		md, err := htmltomarkdown.ConvertString(articleHTML, converter.WithDomain(base))
		if err != nil {
			return nil, fmt.Errorf("html to markdown: %w", err)
		}
		if title != "" && !strings.HasPrefix(strings.TrimLeft(md, "\n"), "# ") {
			md = "# " + title + "\n\n" + md
		}
		res.Markdown = strings.TrimSpace(md)
		res.Title = title
		return res, nil
	}

	res.Markdown = string(utf8Body)
	return res, nil
}

func extractArticle(html, finalURL string) (articleHTML, title string) {
	base, _ := url.Parse(finalURL)
	art, err := readability.FromReader(strings.NewReader(html), base)
	if err == nil && strings.TrimSpace(art.Content) != "" {
		return art.Content, strings.TrimSpace(art.Title)
	}
	return html, ""
}

func documentExtension(ct, ext string) string {
	if ext != "" {
		return ext
	}
	switch ct {
	case "application/pdf":
		return ".pdf"
	case "application/json":
		return ".json"
	case "text/csv":
		return ".csv"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return ".xlsx"
	case "application/x-yaml", "application/yaml":
		return ".yaml"
	default:
		return ".bin"
	}
}

func parseContentType(h string) (ctype, cs string) {
	if h == "" {
		return "", ""
	}
	mt, params, err := mime.ParseMediaType(h)
	if err != nil {
		return strings.ToLower(h), ""
	}
	return strings.ToLower(mt), strings.ToLower(params["charset"])
}

func isHTML(ct string) bool {
	return ct == "text/html" || ct == "application/xhtml+xml" || strings.HasSuffix(ct, "html")
}

func toUTF8(b []byte, charsetLabel string) ([]byte, error) {
	if charsetLabel == "" || strings.EqualFold(charsetLabel, "utf-8") {
		return b, nil
	}
	r, err := charset.NewReaderLabel(charsetLabel, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func baseOrigin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
