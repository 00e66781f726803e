// Package gemini queries Google Gemini models through the generative-ai-go SDK.
package gemini

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"docquery/internal/config"
	"docquery/internal/domain"
	"docquery/internal/llm"
)

const (
	defaultModel     = "gemini-2.0-flash"
	defaultMaxTokens = 8000
)

func init() {
	llm.RegisterProvider(string(domain.LLMProviderGemini), func(cfg *config.LLMProviderConfig, _ llm.Dependencies) (llm.Provider, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an api key")
		}
		gen, err := newSDKGenerator(context.Background(), cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return New(cfg, gen), nil
	})
}

// Request is what a Generator sends to the model.
type Request struct {
	Model     string
	System    string
	User      string
	MaxTokens int
}

// Generator performs one generateContent call. Generators that hold a
// connection may also implement io.Closer.
type Generator interface {
	Generate(ctx context.Context, req Request) (*genai.GenerateContentResponse, error)
}

// sdkGenerator shares one SDK client across all calls.
type sdkGenerator struct {
	client *genai.Client
}

func newSDKGenerator(ctx context.Context, apiKey string) (*sdkGenerator, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &sdkGenerator{client: cl}, nil
}

func (g *sdkGenerator) Close() error {
	return g.client.Close()
}

func (g *sdkGenerator) Generate(ctx context.Context, req Request) (*genai.GenerateContentResponse, error) {
	m := g.client.GenerativeModel(req.Model)
	maxTokens := int32(req.MaxTokens)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0.5),
		MaxOutputTokens:  &maxTokens,
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.System)},
	}
	return m.GenerateContent(ctx, genai.Text(req.User))
}

func ptrFloat32(v float32) *float32 { return &v }

// Provider implements llm.Provider in JSON response mode. Prefill is ignored.
type Provider struct {
	gen       Generator
	model     string
	maxTokens int
}

// New creates a Gemini provider that sends requests through gen.
func New(cfg *config.LLMProviderConfig, gen Generator) *Provider {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Provider{gen: gen, model: model, maxTokens: maxTokens}
}

func (p *Provider) Name() string { return string(domain.LLMProviderGemini) }

// Close releases the generator's client, if it holds one.
func (p *Provider) Close() error {
	if c, ok := p.gen.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *Provider) Complete(ctx context.Context, prompt llm.Prompt) (*llm.Completion, error) {
	resp, err := p.gen.Generate(ctx, Request{
		Model:     p.model,
		System:    prompt.System,
		User:      prompt.UserMessage(),
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := firstText(resp)
	if text == "" {
		return nil, llm.ErrEmptyResponse
	}

	completion := &llm.Completion{Text: text}
	if resp.UsageMetadata != nil {
		completion.Usage = &llm.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return completion, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
