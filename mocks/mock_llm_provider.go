package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docquery/internal/llm"
)

// MockLLMProvider is a mock implementation of llm.Provider.
type MockLLMProvider struct {
	mock.Mock
}

func (m *MockLLMProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockLLMProvider) Complete(ctx context.Context, prompt llm.Prompt) (*llm.Completion, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Completion), args.Error(1)
}
