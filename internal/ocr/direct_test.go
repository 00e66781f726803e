package ocr_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docquery/internal/domain"
	"docquery/internal/ocr"
	"docquery/internal/port"
	"docquery/mocks"
)

var documentKey = mock.MatchedBy(func(key string) bool {
	return strings.HasPrefix(key, "staging/") && strings.HasSuffix(key, "/document.pdf")
})

func newDirectExtractor(storage *mocks.MockObjectStorage, detector *mocks.MockTextDetector) *ocr.DirectExtractor {
	return ocr.NewDirectExtractor(storage, detector, ocr.StagingOptions{Bucket: "ai-bucket", Prefix: "staging"})
}

func TestDirectExtractor_GroupsLinesByPage(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	detector := new(mocks.MockTextDetector)

	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.ContentType == "application/pdf" && in.Bucket == "ai-bucket"
	})).Return(&port.UploadOutput{}, nil)
	storage.On("Delete", mock.Anything, "ai-bucket", documentKey).Return(nil)
	detector.On("DetectDocument", mock.Anything, "ai-bucket", documentKey).Return([]port.DetectedLine{
		{Text: "Second page line", Page: 2, Confidence: 90},
		{Text: "First line", Page: 1, Confidence: 80},
		{Text: "No page attribute", Page: 0, Confidence: 100},
	}, nil)

	result, err := newDirectExtractor(storage, detector).ExtractText(context.Background(), []byte("%PDF"))

	require.NoError(t, err)
	assert.Equal(t, "Page 1:\nFirst line\nNo page attribute\n\nPage 2:\nSecond page line", result.Text)
	assert.InDelta(t, 90.0, result.Confidence, 1e-9)
	assert.Equal(t, 2, result.Pages)
	storage.AssertExpectations(t)
}

func TestDirectExtractor_NoLines(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	detector := new(mocks.MockTextDetector)

	storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	storage.On("Delete", mock.Anything, "ai-bucket", documentKey).Return(nil)
	detector.On("DetectDocument", mock.Anything, "ai-bucket", documentKey).Return([]port.DetectedLine{}, nil)

	result, err := newDirectExtractor(storage, detector).ExtractText(context.Background(), []byte("%PDF"))

	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
	assert.Equal(t, 0.0, result.Confidence)
}

func TestDirectExtractor_UnsupportedFormat(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	detector := new(mocks.MockTextDetector)

	storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	storage.On("Delete", mock.Anything, "ai-bucket", documentKey).Return(nil)
	detector.On("DetectDocument", mock.Anything, "ai-bucket", documentKey).
		Return(nil, fmt.Errorf("textract: %w", domain.ErrUnsupportedFormat))

	result, err := newDirectExtractor(storage, detector).ExtractText(context.Background(), []byte("%PDF"))

	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.True(t, result.IsEmpty())
	storage.AssertCalled(t, "Delete", mock.Anything, "ai-bucket", documentKey)
}

func TestDirectExtractor_DetectionFailureDegradesToEmpty(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	detector := new(mocks.MockTextDetector)

	storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	storage.On("Delete", mock.Anything, "ai-bucket", documentKey).Return(nil)
	detector.On("DetectDocument", mock.Anything, "ai-bucket", documentKey).Return(nil, errors.New("service unavailable"))

	result, err := newDirectExtractor(storage, detector).ExtractText(context.Background(), []byte("%PDF"))

	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
	assert.Equal(t, 0.0, result.Confidence)
	storage.AssertNumberOfCalls(t, "Delete", 1)
}

func TestDirectExtractor_StagingFailureAborts(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	detector := new(mocks.MockTextDetector)

	storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("no such bucket"))

	result, err := newDirectExtractor(storage, detector).ExtractText(context.Background(), []byte("%PDF"))

	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
	detector.AssertNotCalled(t, "DetectDocument", mock.Anything, mock.Anything, mock.Anything)
	storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}
