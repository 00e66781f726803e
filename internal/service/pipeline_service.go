package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"docquery/internal/domain"
	"docquery/internal/port"
)

// ProcessResult is the outcome of one pipeline run. Answers already carries
// the OCR confidence under domain.ConfidenceKey.
type ProcessResult struct {
	Answers         domain.AnswerDocument
	Confidence      float64
	ConfidenceScale domain.ConfidenceScale
	Pages           int
	Provider        string
}

// PipelineService answers questions about an uploaded PDF.
type PipelineService interface {
	Process(ctx context.Context, pdf []byte, questions []domain.Question) (*ProcessResult, error)
}

// PipelineOptions configure a pipelineService.
type PipelineOptions struct {
	Provider string // LLM provider name reported with results
	Prefill  string
}

type pipelineService struct {
	extractor port.DocumentTextExtractor
	engine    port.StructuredQueryEngine
	opts      PipelineOptions
}

// NewPipelineService creates a new PipelineService.
func NewPipelineService(extractor port.DocumentTextExtractor, engine port.StructuredQueryEngine, opts PipelineOptions) PipelineService {
	return &pipelineService{
		extractor: extractor,
		engine:    engine,
		opts:      opts,
	}
}

// Process runs OCR then the query engine. Missing requested fields are
// backfilled with null, known dates are normalized and the OCR confidence is
// merged into the answers. A failed query never yields partial answers.
func (s *pipelineService) Process(ctx context.Context, pdf []byte, questions []domain.Question) (*ProcessResult, error) {
	if len(pdf) == 0 {
		return nil, domain.ErrMissingFile
	}
	if len(questions) == 0 {
		return nil, domain.ErrMissingQuestions
	}
	for _, q := range questions {
		if q.FieldName == domain.ConfidenceKey {
			return nil, fmt.Errorf("%w: field_name %q is reserved", domain.ErrInvalidQuestions, q.FieldName)
		}
	}

	start := time.Now()
	extraction, err := s.extractor.ExtractText(ctx, pdf)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			return nil, err
		}
		return nil, fmt.Errorf("extracting text: %w", err)
	}
	if extraction.IsEmpty() {
		log.Printf("service.PipelineService.Process: no text extracted (%d pages)", extraction.Pages)
		return nil, domain.ErrNoTextExtracted
	}
	log.Printf("service.PipelineService.Process: extracted %d chars from %d pages (confidence %.2f) in %s",
		len(extraction.Text), extraction.Pages, extraction.Confidence, time.Since(start))

	answers, err := s.engine.Query(ctx, extraction.Text, questions, s.opts.Prefill)
	if err != nil {
		log.Printf("service.PipelineService.Process: query failed: %v", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrModelResponseInvalid, err)
	}

	BackfillMissing(answers, questions)
	NormalizeDates(answers)
	answers[domain.ConfidenceKey] = extraction.Confidence

	log.Printf("service.PipelineService.Process: answered %d questions in %s", len(questions), time.Since(start))
	return &ProcessResult{
		Answers:         answers,
		Confidence:      extraction.Confidence,
		ConfidenceScale: extraction.Scale,
		Pages:           extraction.Pages,
		Provider:        s.opts.Provider,
	}, nil
}
