package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"vellum/internal/config"
)

func TestNewRoutesLocalToOpenAICompatibleGenerator(t *testing.T) {
	g := New(config.GenerationConfig{Type: config.ModelLocal, LocalModel: "llama3"})
	if _, ok := g.(*openaiGenerator); !ok {
		t.Fatalf("expected local generation to use the OpenAI-compatible client, got %T", g)
	}
}

func TestNewRoutesClaudeRemoteModelToAnthropicGenerator(t *testing.T) {
	g := New(config.GenerationConfig{Type: config.ModelRemote, RemoteModel: "claude-3-5-sonnet-20241022", RemoteKey: "test-key"})
	if _, ok := g.(*anthropicGenerator); !ok {
		t.Fatalf("expected a claude remote model to use the Anthropic client, got %T", g)
	}
}

func TestNewRoutesNonClaudeRemoteModelToOpenAICompatibleGenerator(t *testing.T) {
	g := New(config.GenerationConfig{Type: config.ModelRemote, RemoteModel: "gpt-4o-mini", RemoteKey: "test-key"})
	if _, ok := g.(*openaiGenerator); !ok {
		t.Fatalf("expected a non-claude remote model to use the OpenAI-compatible client, got %T", g)
	}
}

func TestOpenAIGeneratorGenerateReturnsMessageContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "llama3",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": "Paris is the capital of France."}, "finish_reason": "stop"},
			},
		})
	}))
	defer srv.Close()

	g := newOpenAIGenerator(srv.URL, "", "llama3", 0)
	text, err := g.Generate(context.Background(), "answer using only the context", "what is the capital of france?")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Paris is the capital of France." {
		t.Fatalf("unexpected generated text: %q", text)
	}
}
