// Package claude queries Anthropic Claude models hosted on AWS Bedrock.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"docquery/internal/config"
	"docquery/internal/domain"
	"docquery/internal/llm"
	"docquery/internal/port"
)

const (
	defaultModel     = "anthropic.claude-3-sonnet-20240229-v1:0"
	defaultMaxTokens = 8000
	anthropicVersion = "bedrock-2023-05-31"
)

func init() {
	llm.RegisterProvider(string(domain.LLMProviderClaude), func(cfg *config.LLMProviderConfig, deps llm.Dependencies) (llm.Provider, error) {
		if deps.Bedrock == nil {
			return nil, fmt.Errorf("claude provider requires a bedrock invoker")
		}
		return New(cfg, deps.Bedrock), nil
	})
}

// Provider implements llm.Provider with the Anthropic messages format.
type Provider struct {
	invoker   port.ModelInvoker
	model     string
	maxTokens int
}

// New creates a Claude provider.
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

func (p *Provider) Name() string { return string(domain.LLMProviderClaude) }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	AnthropicVersion string    `json:"anthropic_version"`
	System           string    `json:"system"`
	Messages         []message `json:"messages"`
	MaxTokens        int       `json:"max_tokens"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete sends the prompt. A prefill is sent as a trailing assistant turn
// and prepended to the returned text so callers see the whole answer.
func (p *Provider) Complete(ctx context.Context, prompt llm.Prompt) (*llm.Completion, error) {
	messages := []message{{Role: "user", Content: prompt.UserMessage()}}

	// Bedrock rejects a final assistant turn that ends in whitespace.
	prefill := strings.TrimRight(prompt.Prefill, " \t\r\n")
	if prefill != "" {
		messages = append(messages, message{Role: "assistant", Content: prefill})
	}

	body, err := json.Marshal(request{
		AnthropicVersion: anthropicVersion,
		System:           prompt.System,
		Messages:         messages,
		MaxTokens:        p.maxTokens,
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
	if len(resp.Content) == 0 {
		return nil, llm.ErrEmptyResponse
	}
	if resp.StopReason == "max_tokens" {
		return nil, fmt.Errorf("output truncated (stop_reason: max_tokens)")
	}

	completion := &llm.Completion{Text: prefill + resp.Content[0].Text}
	if resp.Usage != nil {
		completion.Usage = &llm.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		}
	}
	return completion, nil
}
