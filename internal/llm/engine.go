package llm

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"docquery/internal/domain"
	"docquery/internal/jsonrepair"
	"docquery/internal/logutil"
	"docquery/internal/port"
)

const defaultMaxRetries = 3

// RetryPolicy bounds the attempts of one query. Sleep defaults to time.Sleep
// and is replaceable in tests.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
	Sleep      func(ctx context.Context, d time.Duration)
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = defaultMaxRetries
	}
	if p.Sleep == nil {
		p.Sleep = func(_ context.Context, d time.Duration) { time.Sleep(d) }
	}
	return p
}

// Engine drives the query-repair-validate loop around a single provider.
type Engine struct {
	provider Provider
	policy   RetryPolicy
	rates    CostRates
}

// NewEngine creates an Engine.
func NewEngine(provider Provider, policy RetryPolicy, rates CostRates) *Engine {
	return &Engine{
		provider: provider,
		policy:   policy.withDefaults(),
		rates:    rates,
	}
}

var _ port.StructuredQueryEngine = (*Engine)(nil)

// Close releases the provider's resources when it holds any.
func (e *Engine) Close() error {
	if c, ok := e.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Name returns the provider name.
func (e *Engine) Name() string {
	return e.provider.Name()
}

// Query asks the provider the questions about text. Provider errors and
// output that cannot be repaired into a valid answer object both consume an
// attempt; the loop sleeps the fixed delay between attempts and stops at the
// first valid answer. The loop does not observe ctx cancellation between
// attempts. Missing fields are not backfilled here.
func (e *Engine) Query(ctx context.Context, text string, questions []domain.Question, prefill string) (domain.AnswerDocument, error) {
	prompt := BuildPrompt(text, questions, prefill)
	name := e.provider.Name()

	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxRetries; attempt++ {
		doc, err := e.attempt(ctx, prompt)
		if err == nil {
			if attempt > 1 {
				log.Printf("llm.Engine.Query: %s succeeded on attempt %d", name, attempt)
			}
			return doc, nil
		}
		lastErr = err
		log.Printf("llm.Engine.Query: %s attempt %d/%d failed: %v", name, attempt, e.policy.MaxRetries, err)

		if attempt < e.policy.MaxRetries {
			e.policy.Sleep(ctx, e.policy.Delay)
		}
	}

	log.Printf("llm.Engine.Query: %s max retries reached, failed to get a valid response", name)
	return nil, fmt.Errorf("%s: %w: %w", name, ErrMaxRetries, lastErr)
}

func (e *Engine) attempt(ctx context.Context, prompt Prompt) (domain.AnswerDocument, error) {
	completion, err := e.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if completion.Usage != nil {
		e.logCost(*completion.Usage)
	}

	value, ok := jsonrepair.Repair(completion.Text)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMalformedOutput, logutil.Truncate(completion.Text, 200))
	}
	return ValidateAnswer(value)
}

func (e *Engine) logCost(u Usage) {
	kind := "reported"
	if u.Estimated {
		kind = "estimated"
	}
	log.Printf("llm.Engine: %s %s %d input tokens, %d output tokens, estimated cost $%.6f",
		e.provider.Name(), kind, u.InputTokens, u.OutputTokens, e.rates.Cost(u))
}
