package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docquery/internal/port"
)

// MockRasterizer is a mock implementation of port.Rasterizer.
type MockRasterizer struct {
	mock.Mock
}

func (m *MockRasterizer) Rasterize(ctx context.Context, pdf []byte) ([]port.PageImage, error) {
	args := m.Called(ctx, pdf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.PageImage), args.Error(1)
}
