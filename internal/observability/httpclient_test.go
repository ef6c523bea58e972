package observability

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestWithHeadersInjectsProviderAuthHeader(t *testing.T) {
	base := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if got := req.Header.Get("X-API-Key"); got != "sk-test" {
			t.Fatalf("auth header not injected: got %q", got)
		}
		if got := req.Header.Get("X-Existing"); got != "keep" {
			t.Fatalf("caller-set header overwritten: got %q", got)
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("ok"))}, nil
	})}

	c := WithHeaders(base, map[string]string{"X-API-Key": "sk-test", "X-Existing": "override"})
	req, err := http.NewRequest(http.MethodPost, "http://provider.test/v1/embeddings", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Existing", "keep")
	if _, err := c.Do(req); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestNewHTTPClientNotNil(t *testing.T) {
	if c := NewHTTPClient(nil); c == nil {
		t.Fatal("expected non-nil client")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
