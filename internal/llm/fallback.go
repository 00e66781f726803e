package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"docquery/internal/domain"
	"docquery/internal/port"
)

const (
	// Consecutive queries an engine may exhaust on malformed output before it
	// is rested.
	defaultMalformedLimit = 3
	defaultMalformedRest  = 5 * time.Minute
)

// providerHealth tracks when an engine may be queried again. An engine is
// rested after it throttles, or after a streak of queries that produced only
// unusable output.
type providerHealth struct {
	mu        sync.Mutex
	restUntil time.Time
	malformed int
}

func (h *providerHealth) resting(now time.Time) (time.Time, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.restUntil, now.Before(h.restUntil)
}

func (h *providerHealth) rest(until time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if until.After(h.restUntil) {
		h.restUntil = until
	}
}

func (h *providerHealth) succeeded() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.malformed = 0
}

// malformedQuery records one exhausted query and reports whether the streak
// reached limit. The streak restarts once the limit is hit.
func (h *providerHealth) malformedQuery(limit int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.malformed++
	if h.malformed < limit {
		return false
	}
	h.malformed = 0
	return true
}

// FallbackEngine queries engines in order, skipping those that are resting
// after a throttle or a malformed-output streak.
type FallbackEngine struct {
	engines []port.StructuredQueryEngine
	names   []string
	health  []*providerHealth

	malformedLimit int
	malformedRest  time.Duration
}

// NewFallbackEngine creates a FallbackEngine from an ordered list of engines and their names.
func NewFallbackEngine(engines []port.StructuredQueryEngine, names []string) *FallbackEngine {
	health := make([]*providerHealth, len(engines))
	for i := range health {
		health[i] = &providerHealth{}
	}
	return &FallbackEngine{
		engines:        engines,
		names:          names,
		health:         health,
		malformedLimit: defaultMalformedLimit,
		malformedRest:  defaultMalformedRest,
	}
}

var _ port.StructuredQueryEngine = (*FallbackEngine)(nil)

// Close closes every wrapped engine that holds resources.
func (f *FallbackEngine) Close() error {
	var errs []error
	for _, e := range f.engines {
		if c, ok := e.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func (f *FallbackEngine) Query(ctx context.Context, text string, questions []domain.Question, prefill string) (domain.AnswerDocument, error) {
	now := time.Now()
	var lastErr error
	var earliest time.Time

	for i, e := range f.engines {
		if until, ok := f.health[i].resting(now); ok {
			log.Printf("llm.FallbackEngine: skipping %s (resting until %s)", f.names[i], until.Format(time.RFC3339))
			if earliest.IsZero() || until.Before(earliest) {
				earliest = until
			}
			continue
		}

		doc, err := e.Query(ctx, text, questions, prefill)
		if err == nil {
			f.health[i].succeeded()
			return doc, nil
		}
		log.Printf("llm.FallbackEngine: %s failed: %v", f.names[i], err)
		lastErr = err

		var until time.Time
		var rlErr *RateLimitError
		switch {
		case errors.As(err, &rlErr):
			until = now.Add(rlErr.RetryAfter)
		case IsMalformed(err) && f.health[i].malformedQuery(f.malformedLimit):
			log.Printf("llm.FallbackEngine: %s produced unusable output %d queries in a row", f.names[i], f.malformedLimit)
			until = now.Add(f.malformedRest)
		default:
			continue
		}
		f.health[i].rest(until)
		if earliest.IsZero() || until.Before(earliest) {
			earliest = until
		}
	}

	if lastErr == nil {
		// Every engine was resting.
		wait := earliest.Sub(now)
		if wait < time.Second {
			wait = time.Second
		}
		return nil, fmt.Errorf("%w: %w", ErrMaxRetries,
			NewRateLimitError("all", errors.New("no llm provider available"), wait))
	}

	return nil, fmt.Errorf("all llm providers failed: %w", lastErr)
}
