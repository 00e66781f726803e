// Package app wires configuration into a ready PipelineService. It is shared
// by the HTTP server and the command-line extractor.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"docquery/internal/config"
	"docquery/internal/domain"
	"docquery/internal/llm"
	"docquery/internal/llm/bedrock"
	"docquery/internal/ocr"
	"docquery/internal/ocr/textract"
	"docquery/internal/raster"
	"docquery/internal/service"
	s3storage "docquery/internal/storage/s3"

	// Provider registrations.
	_ "docquery/internal/llm/claude"
	_ "docquery/internal/llm/gemini"
	_ "docquery/internal/llm/mistral"
	_ "docquery/internal/llm/openai"
	_ "docquery/internal/ocr/documentai"
)

// Pipeline is a ready PipelineService that owns its provider clients.
type Pipeline struct {
	service.PipelineService
	closers []io.Closer
}

// Close releases the provider clients that hold connections.
func (p *Pipeline) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewPipeline builds the OCR extractor and query engine selected by cfg and
// returns the service combining them. Callers must Close it.
func NewPipeline(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	ocrDeps, err := ocrDependencies(ctx, cfg)
	if err != nil {
		return nil, err
	}
	extractor, err := ocr.NewExtractor(ctx, cfg, ocrDeps)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OCR provider: %w", err)
	}
	p := &Pipeline{}
	if c, ok := extractor.(io.Closer); ok {
		p.closers = append(p.closers, c)
	}

	invoker, err := bedrock.NewFromConfig(ctx, cfg)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to initialize Bedrock client: %w", err)
	}
	engine, err := llm.NewQueryEngine(&cfg.LLM, llm.Dependencies{Bedrock: invoker})
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	if c, ok := engine.(io.Closer); ok {
		p.closers = append(p.closers, c)
	}

	log.Printf("app.NewPipeline: ocr=%s llm=%s", cfg.OCR.Provider, cfg.LLM.Provider)
	p.PipelineService = service.NewPipelineService(extractor, engine, service.PipelineOptions{
		Provider: cfg.LLM.Provider,
		Prefill:  cfg.LLM.Prefill,
	})
	return p, nil
}

// ocrDependencies builds the staging and detection clients the
// detect-based strategies need. Document AI needs none of them.
func ocrDependencies(ctx context.Context, cfg *config.Config) (ocr.Dependencies, error) {
	if cfg.OCR.Provider == string(domain.OCRProviderExternalDocumentAI) {
		return ocr.Dependencies{}, nil
	}

	storage, err := s3storage.NewS3Client(ctx, &cfg.S3)
	if err != nil {
		return ocr.Dependencies{}, fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	detector, err := textract.NewFromConfig(ctx, cfg)
	if err != nil {
		return ocr.Dependencies{}, fmt.Errorf("failed to initialize Textract client: %w", err)
	}
	rasterizer := raster.NewPdftoppm(raster.Options{
		Binary:   cfg.OCR.PdftoppmPath,
		DPI:      cfg.OCR.DPI,
		MaxPages: cfg.OCR.MaxPages,
	}, nil)

	return ocr.Dependencies{
		Storage:    storage,
		Detector:   detector,
		Rasterizer: rasterizer,
	}, nil
}
