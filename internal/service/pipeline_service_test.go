package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docquery/internal/domain"
	"docquery/internal/llm"
	"docquery/internal/service"
	"docquery/mocks"
)

var pdfBytes = []byte("%PDF-1.4 test")

func nameQuestions() []domain.Question {
	return []domain.Question{{FieldName: "name", Question: "Who is the holder?"}}
}

func newPipeline(extractor *mocks.MockTextExtractor, engine *mocks.MockQueryEngine) service.PipelineService {
	return service.NewPipelineService(extractor, engine, service.PipelineOptions{Provider: "claude", Prefill: "{"})
}

func TestPipelineService_Process_Success(t *testing.T) {
	extractor := new(mocks.MockTextExtractor)
	engine := new(mocks.MockQueryEngine)
	svc := newPipeline(extractor, engine)

	extractor.On("ExtractText", mock.Anything, pdfBytes).Return(&domain.ExtractionResult{
		Text: "Holder: Acme", Confidence: 0.95, Pages: 1, Scale: domain.ScaleUnit,
	}, nil)
	engine.On("Query", mock.Anything, "Holder: Acme", nameQuestions(), "{").
		Return(domain.AnswerDocument{"name": "Acme"}, nil)

	result, err := svc.Process(context.Background(), pdfBytes, nameQuestions())

	require.NoError(t, err)
	assert.Equal(t, domain.AnswerDocument{"name": "Acme", "confidence": 0.95}, result.Answers)
	assert.Equal(t, 0.95, result.Confidence)
	assert.Equal(t, domain.ScaleUnit, result.ConfidenceScale)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, "claude", result.Provider)
	extractor.AssertExpectations(t)
	engine.AssertExpectations(t)
}

func TestPipelineService_Process_BackfillsMissingFields(t *testing.T) {
	extractor := new(mocks.MockTextExtractor)
	engine := new(mocks.MockQueryEngine)
	svc := newPipeline(extractor, engine)

	questions := []domain.Question{
		{FieldName: "name", Question: "Name?"},
		{FieldName: "auditor", Question: "Auditor?"},
		{FieldName: "type", Question: "Type?"},
	}
	extractor.On("ExtractText", mock.Anything, pdfBytes).Return(&domain.ExtractionResult{
		Text: "text", Confidence: 88.5, Pages: 2, Scale: domain.ScalePercent,
	}, nil)
	engine.On("Query", mock.Anything, "text", questions, "{").
		Return(domain.AnswerDocument{"name": "Acme", "type": "NULL"}, nil)

	result, err := svc.Process(context.Background(), pdfBytes, questions)

	require.NoError(t, err)
	assert.Equal(t, "Acme", result.Answers["name"])
	v, ok := result.Answers["auditor"]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Nil(t, result.Answers["type"])
	assert.Equal(t, 88.5, result.Answers["confidence"])
}

func TestPipelineService_Process_NormalizesDates(t *testing.T) {
	extractor := new(mocks.MockTextExtractor)
	engine := new(mocks.MockQueryEngine)
	svc := newPipeline(extractor, engine)

	questions := []domain.Question{{FieldName: domain.FieldCertificateIssueDate, Question: "Issue date?"}}
	extractor.On("ExtractText", mock.Anything, pdfBytes).Return(&domain.ExtractionResult{Text: "text", Confidence: 0.9}, nil)
	engine.On("Query", mock.Anything, "text", questions, "{").Return(domain.AnswerDocument{
		domain.FieldCertificateIssueDate: "15/03/2023",
		domain.FieldShipments: []any{
			map[string]any{domain.FieldShipmentDate: "2 Jan 2024"},
			map[string]any{domain.FieldShipmentDate: "sometime in May"},
		},
	}, nil)

	result, err := svc.Process(context.Background(), pdfBytes, questions)

	require.NoError(t, err)
	assert.Equal(t, "2023-03-15", result.Answers[domain.FieldCertificateIssueDate])
	shipments := result.Answers.Shipments()
	require.Len(t, shipments, 2)
	assert.Equal(t, "2024-01-02", shipments[0][domain.FieldShipmentDate])
	assert.Equal(t, "sometime in May", shipments[1][domain.FieldShipmentDate])
}

func TestPipelineService_Process_MissingFile(t *testing.T) {
	extractor := new(mocks.MockTextExtractor)
	engine := new(mocks.MockQueryEngine)
	svc := newPipeline(extractor, engine)

	result, err := svc.Process(context.Background(), nil, nameQuestions())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrMissingFile)
	extractor.AssertNotCalled(t, "ExtractText", mock.Anything, mock.Anything)
}

func TestPipelineService_Process_MissingQuestions(t *testing.T) {
	extractor := new(mocks.MockTextExtractor)
	engine := new(mocks.MockQueryEngine)
	svc := newPipeline(extractor, engine)

	result, err := svc.Process(context.Background(), pdfBytes, nil)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrMissingQuestions)
}

func TestPipelineService_Process_ReservedConfidenceField(t *testing.T) {
	extractor := new(mocks.MockTextExtractor)
	engine := new(mocks.MockQueryEngine)
	svc := newPipeline(extractor, engine)

	questions := []domain.Question{
		{FieldName: "name", Question: "Name?"},
		{FieldName: domain.ConfidenceKey, Question: "How confident is the auditor?"},
	}

	result, err := svc.Process(context.Background(), pdfBytes, questions)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrInvalidQuestions)
	extractor.AssertNotCalled(t, "ExtractText", mock.Anything, mock.Anything)
}

func TestPipelineService_Process_NoTextExtracted(t *testing.T) {
	extractor := new(mocks.MockTextExtractor)
	engine := new(mocks.MockQueryEngine)
	svc := newPipeline(extractor, engine)

	extractor.On("ExtractText", mock.Anything, pdfBytes).Return(domain.EmptyExtraction(domain.ScalePercent), nil)

	result, err := svc.Process(context.Background(), pdfBytes, nameQuestions())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrNoTextExtracted)
	engine.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPipelineService_Process_UnsupportedFormat(t *testing.T) {
	extractor := new(mocks.MockTextExtractor)
	engine := new(mocks.MockQueryEngine)
	svc := newPipeline(extractor, engine)

	extractor.On("ExtractText", mock.Anything, pdfBytes).
		Return(domain.EmptyExtraction(domain.ScalePercent), domain.ErrUnsupportedFormat)

	result, err := svc.Process(context.Background(), pdfBytes, nameQuestions())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestPipelineService_Process_QueryFailure(t *testing.T) {
	extractor := new(mocks.MockTextExtractor)
	engine := new(mocks.MockQueryEngine)
	svc := newPipeline(extractor, engine)

	extractor.On("ExtractText", mock.Anything, pdfBytes).Return(&domain.ExtractionResult{Text: "text", Confidence: 0.9}, nil)
	engine.On("Query", mock.Anything, "text", nameQuestions(), "{").
		Return(nil, errors.Join(llm.ErrMaxRetries, llm.ErrSchemaMismatch))

	result, err := svc.Process(context.Background(), pdfBytes, nameQuestions())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrModelResponseInvalid)
	assert.ErrorIs(t, err, llm.ErrMaxRetries)
}
