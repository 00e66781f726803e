// Package ocr turns PDF bytes into text and an aggregate confidence score
// using one of several interchangeable extraction strategies.
package ocr

import (
	"context"
	"fmt"

	"docquery/internal/config"
	"docquery/internal/domain"
	"docquery/internal/port"
)

// Dependencies are the capability clients an extractor may need. Factories
// validate the ones they use.
type Dependencies struct {
	Storage    port.ObjectStorage
	Detector   port.TextDetector
	Rasterizer port.Rasterizer
}

// ProviderFactory creates a DocumentTextExtractor from configuration.
type ProviderFactory func(ctx context.Context, cfg *config.Config, deps Dependencies) (port.DocumentTextExtractor, error)

// registry of extractor factories, populated by init() here and in provider
// subpackages.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an extractor factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates the extractor selected by cfg.OCR.Provider.
func NewExtractor(ctx context.Context, cfg *config.Config, deps Dependencies) (port.DocumentTextExtractor, error) {
	factory, ok := providers[cfg.OCR.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown ocr provider: %s", cfg.OCR.Provider)
	}
	return factory(ctx, cfg, deps)
}

func init() {
	RegisterProvider(string(domain.OCRProviderDirectDetect), func(_ context.Context, cfg *config.Config, deps Dependencies) (port.DocumentTextExtractor, error) {
		if deps.Storage == nil || deps.Detector == nil {
			return nil, fmt.Errorf("%s requires object storage and a text detector", domain.OCRProviderDirectDetect)
		}
		return NewDirectExtractor(deps.Storage, deps.Detector, StagingOptions{
			Bucket: cfg.S3.Bucket,
			Prefix: cfg.S3.StagingPrefix,
		}), nil
	})
	RegisterProvider(string(domain.OCRProviderRasterizeDetect), func(_ context.Context, cfg *config.Config, deps Dependencies) (port.DocumentTextExtractor, error) {
		if deps.Storage == nil || deps.Detector == nil || deps.Rasterizer == nil {
			return nil, fmt.Errorf("%s requires object storage, a text detector and a rasterizer", domain.OCRProviderRasterizeDetect)
		}
		return NewRasterExtractor(deps.Storage, deps.Detector, deps.Rasterizer, RasterOptions{
			StagingOptions: StagingOptions{
				Bucket: cfg.S3.Bucket,
				Prefix: cfg.S3.StagingPrefix,
			},
			Features:    cfg.OCR.Features,
			Concurrency: cfg.OCR.Concurrency,
			DetectRPS:   cfg.OCR.DetectRPS,
		}), nil
	})
}
