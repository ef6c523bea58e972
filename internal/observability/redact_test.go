package observability

import (
	"encoding/json"
	"testing"
)

func TestRedactJSONMasksProviderErrorBody(t *testing.T) {
	in := map[string]any{
		"error": map[string]any{
			"message":       "invalid request",
			"authorization": "Bearer sk-live-abc123",
		},
		"request_headers": []any{
			map[string]any{"x-api-key": "sk-live-abc123"},
			"x-request-id: 9f2c",
		},
		"model": "text-embedding-3-small",
	}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := RedactJSON(b)

	var v any
	if err := json.Unmarshal(out, &v); err != nil {
		t.Fatalf("unmarshal redacted: %v", err)
	}
	m := v.(map[string]any)
	errObj := m["error"].(map[string]any)
	if errObj["authorization"] != "[REDACTED]" {
		t.Errorf("authorization not redacted: %v", errObj["authorization"])
	}
	headers := m["request_headers"].([]any)
	first := headers[0].(map[string]any)
	if first["x-api-key"] != "[REDACTED]" {
		t.Errorf("x-api-key not redacted: %v", first["x-api-key"])
	}
	if m["model"] != "text-embedding-3-small" {
		t.Errorf("non-sensitive field mutated: %v", m["model"])
	}
}

func TestRedactJSONEmptyAndInvalid(t *testing.T) {
	if got := RedactJSON(json.RawMessage(nil)); got != nil {
		t.Errorf("expected nil raw for empty input, got %v", got)
	}

	raw := json.RawMessage([]byte("not a valid embedding error body"))
	if res := RedactJSON(raw); string(res) != string(raw) {
		t.Errorf("expected original bytes for invalid json, got %s", string(res))
	}
}
