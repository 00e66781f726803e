package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docquery/internal/domain"
	"docquery/internal/service"
)

// MockPipelineService is a mock implementation of service.PipelineService.
type MockPipelineService struct {
	mock.Mock
}

func (m *MockPipelineService) Process(ctx context.Context, pdf []byte, questions []domain.Question) (*service.ProcessResult, error) {
	args := m.Called(ctx, pdf, questions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProcessResult), args.Error(1)
}
