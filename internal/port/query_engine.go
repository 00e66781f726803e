package port

import (
	"context"

	"docquery/internal/domain"
)

// StructuredQueryEngine answers questions about extracted text with a
// validated structured document.
type StructuredQueryEngine interface {
	Query(ctx context.Context, text string, questions []domain.Question, prefill string) (domain.AnswerDocument, error)
}
