package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docquery/internal/port"
)

// MockTextDetector is a mock implementation of port.TextDetector.
type MockTextDetector struct {
	mock.Mock
}

func (m *MockTextDetector) DetectDocument(ctx context.Context, bucket, key string) ([]port.DetectedLine, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.DetectedLine), args.Error(1)
}

func (m *MockTextDetector) AnalyzeImage(ctx context.Context, bucket, key string, features []string) ([]port.DetectedLine, error) {
	args := m.Called(ctx, bucket, key, features)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.DetectedLine), args.Error(1)
}
