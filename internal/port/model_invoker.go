package port

import "context"

// ModelInvoker sends a provider-specific request body to a hosted model and
// returns the raw response envelope.
type ModelInvoker interface {
	Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error)
}
