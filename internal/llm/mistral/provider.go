// Package mistral queries Mistral instruct models hosted on AWS Bedrock.
package mistral

import (
	"context"
	"encoding/json"
	"fmt"

	"docquery/internal/config"
	"docquery/internal/domain"
	"docquery/internal/llm"
	"docquery/internal/port"
)

const (
	defaultModel     = "mistral.mistral-7b-instruct-v0:2"
	defaultMaxTokens = 8000
)

func init() {
	llm.RegisterProvider(string(domain.LLMProviderMistral), func(cfg *config.LLMProviderConfig, deps llm.Dependencies) (llm.Provider, error) {
		if deps.Bedrock == nil {
			return nil, fmt.Errorf("mistral provider requires a bedrock invoker")
		}
		return New(cfg, deps.Bedrock), nil
	})
}

// Provider implements llm.Provider with the Mistral instruct prompt format.
// Bedrock returns no token counts for it, so usage is estimated.
type Provider struct {
	invoker   port.ModelInvoker
	model     string
	maxTokens int
}

// New creates a Mistral provider.
func New(cfg *config.LLMProviderConfig, invoker port.ModelInvoker) *Provider {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Provider{invoker: invoker, model: model, maxTokens: maxTokens}
}

func (p *Provider) Name() string { return string(domain.LLMProviderMistral) }

type request struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

type response struct {
	Outputs []struct {
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"outputs"`
}

// RenderPrompt wraps the prompt in instruct tags. A prefill follows the
// closing tag so the model continues from it.
func RenderPrompt(prompt llm.Prompt) string {
	return "<s>[INST] " + prompt.System + "\n" + prompt.UserMessage() + " [/INST]" + prompt.Prefill
}

func (p *Provider) Complete(ctx context.Context, prompt llm.Prompt) (*llm.Completion, error) {
	rendered := RenderPrompt(prompt)
	body, err := json.Marshal(request{
		Prompt:      rendered,
		MaxTokens:   p.maxTokens,
		Temperature: 0.5,
		TopP:        0.9,
		TopK:        50,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	raw, err := p.invoker.Invoke(ctx, p.model, body)
	if err != nil {
		return nil, err
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Outputs) == 0 {
		return nil, llm.ErrEmptyResponse
	}

	text := resp.Outputs[0].Text
	return &llm.Completion{
		Text: prompt.Prefill + text,
		Usage: &llm.Usage{
			InputTokens:  llm.EstimateTokens(rendered),
			OutputTokens: llm.EstimateTokens(text),
			Estimated:    true,
		},
	}, nil
}
