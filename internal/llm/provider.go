// Package llm asks a language model structured questions about extracted
// document text and retries until the answer decodes to a valid object.
package llm

import "context"

// Prompt is the provider-neutral request. Providers render it into their own
// envelope.
type Prompt struct {
	System        string
	DocumentText  string
	QuestionBlock string
	Schema        string
	Prefill       string
}

// Usage is the token accounting of one completion. Estimated is set when
// the provider did not report counts and they were derived from text length.
type Usage struct {
	InputTokens  int
	OutputTokens int
	Estimated    bool
}

// Completion is the raw text a provider returned.
type Completion struct {
	Text  string
	Usage *Usage
}

// Provider performs a single model call.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt Prompt) (*Completion, error)
}
