package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docquery/internal/domain"
)

// MockQueryEngine is a mock implementation of port.StructuredQueryEngine.
type MockQueryEngine struct {
	mock.Mock
}

func (m *MockQueryEngine) Query(ctx context.Context, text string, questions []domain.Question, prefill string) (domain.AnswerDocument, error) {
	args := m.Called(ctx, text, questions, prefill)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.AnswerDocument), args.Error(1)
}
