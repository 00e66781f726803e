package port

import (
	"context"

	"docquery/internal/domain"
)

// DocumentTextExtractor turns PDF bytes into text and an aggregate confidence.
type DocumentTextExtractor interface {
	ExtractText(ctx context.Context, pdf []byte) (*domain.ExtractionResult, error)
}
