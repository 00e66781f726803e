package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockModelInvoker is a mock implementation of port.ModelInvoker.
type MockModelInvoker struct {
	mock.Mock
}

func (m *MockModelInvoker) Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	args := m.Called(ctx, modelID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
