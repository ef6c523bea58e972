// Package generation wraps the answer-generation LLM behind a single
// Generate call, grounded on the teacher's internal/llm/openai and
// internal/llm/anthropic clients, stripped of tool-calling and streaming:
// the Query Orchestrator only ever needs one-shot, grounded completions.
package generation

import (
	"context"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"

	"vellum/internal/config"
	"vellum/internal/kberrors"
	"vellum/internal/observability"
)

// defaultLocalBaseURL targets an Ollama-compatible local server, matching
// the embedding service's local-provider default.
const defaultLocalBaseURL = "http://127.0.0.1:11434/v1"

// Generator answers one grounded question given a system prompt (the
// retrieved context plus instructions) and the user's query.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// New picks a Generator implementation from cfg.Generation (spec §6's
// MODEL_TYPE). A remote model name containing "claude" is routed to the
// Anthropic SDK; everything else speaks the OpenAI-compatible chat
// completions API, which covers both local inference servers and
// OpenAI-compatible remote endpoints.
func New(cfg config.GenerationConfig) Generator {
	if cfg.Type == config.ModelRemote && strings.Contains(strings.ToLower(cfg.RemoteModel), "claude") {
		return newAnthropicGenerator(cfg)
	}
	if cfg.Type == config.ModelRemote {
		return newOpenAIGenerator(cfg.RemoteBase, cfg.RemoteKey, cfg.RemoteModel, cfg.RemoteTemp)
	}
	return newOpenAIGenerator(defaultLocalBaseURL, "", cfg.LocalModel, cfg.LocalTemp)
}

type openaiGenerator struct {
	sdk   openai.Client
	model string
	temp  float64
}

func newOpenAIGenerator(baseURL, apiKey, model string, temp float64) *openaiGenerator {
	opts := []option.RequestOption{option.WithHTTPClient(observability.NewHTTPClient(nil))}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openaiGenerator{sdk: openai.NewClient(opts...), model: model, temp: temp}
}

func (g *openaiGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}
	if g.temp > 0 {
		params.Temperature = param.NewOpt(g.temp)
	}
	comp, err := g.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", kberrors.New(kberrors.EmbeddingBackendError, "generation.Generate", "check the generation model/endpoint configuration", err)
	}
	if len(comp.Choices) == 0 {
		return "", kberrors.New(kberrors.EmbeddingBackendError, "generation.Generate", "the model returned no choices", nil)
	}
	return comp.Choices[0].Message.Content, nil
}

type anthropicGenerator struct {
	sdk       anthropic.Client
	model     string
	temp      float64
	maxTokens int64
}

func newAnthropicGenerator(cfg config.GenerationConfig) *anthropicGenerator {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(cfg.RemoteKey),
		anthropicoption.WithHTTPClient(observability.NewHTTPClient(nil)),
	}
	if cfg.RemoteBase != "" {
		opts = append(opts, anthropicoption.WithBaseURL(strings.TrimSuffix(cfg.RemoteBase, "/")))
	}
	return &anthropicGenerator{
		sdk:       anthropic.NewClient(opts...),
		model:     cfg.RemoteModel,
		temp:      cfg.RemoteTemp,
		maxTokens: 1024,
	}
}

func (g *anthropicGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	resp, err := g.sdk.Messages.New(ctx, params)
	if err != nil {
		return "", kberrors.New(kberrors.EmbeddingBackendError, "generation.Generate", "check the Anthropic API key/model configuration", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return b.String(), nil
}
