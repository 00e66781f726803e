package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docquery/internal/domain"
)

// MockTextExtractor is a mock implementation of port.DocumentTextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) ExtractText(ctx context.Context, pdf []byte) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, pdf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}
