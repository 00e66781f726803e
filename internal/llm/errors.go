package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMaxRetries is returned when every attempt failed.
	ErrMaxRetries = errors.New("max retries reached")
	// ErrMalformedOutput means the model text could not be repaired into JSON.
	ErrMalformedOutput = errors.New("malformed model output")
	// ErrSchemaMismatch means the decoded answer is not a valid answer object.
	ErrSchemaMismatch = errors.New("answer does not match schema")
	// ErrEmptyResponse means the provider envelope carried no text.
	ErrEmptyResponse = errors.New("empty response from model")
)

// defaultThrottleBackoff applies when a provider throttles without saying
// for how long.
const defaultThrottleBackoff = time.Minute

// RateLimitError reports that a provider throttled the request. RetryAfter
// is how long the provider should be left alone.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

// NewRateLimitError wraps err for provider. A non-positive retryAfter falls
// back to one minute.
func NewRateLimitError(provider string, err error, retryAfter time.Duration) *RateLimitError {
	if retryAfter <= 0 {
		retryAfter = defaultThrottleBackoff
	}
	return &RateLimitError{Provider: provider, RetryAfter: retryAfter, Err: err}
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s throttled, retry in %s: %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// ParseRetryAfter reads a Retry-After header given either as delay seconds
// or as an HTTP date. It returns 0 when the value is missing, malformed or
// already in the past.
func ParseRetryAfter(val string, now time.Time) time.Duration {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(val); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

// IsMalformed reports whether err comes from unusable model output rather
// than from the transport or the provider.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedOutput) ||
		errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrEmptyResponse)
}
