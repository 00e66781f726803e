package ocr_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docquery/internal/config"
	"docquery/internal/ocr"
	"docquery/mocks"
)

func TestNewExtractor_SelectsStrategy(t *testing.T) {
	deps := ocr.Dependencies{
		Storage:    new(mocks.MockObjectStorage),
		Detector:   new(mocks.MockTextDetector),
		Rasterizer: new(mocks.MockRasterizer),
	}

	cfg := &config.Config{OCR: config.OCRConfig{Provider: "direct-detect"}}
	e, err := ocr.NewExtractor(context.Background(), cfg, deps)
	require.NoError(t, err)
	assert.IsType(t, &ocr.DirectExtractor{}, e)

	cfg.OCR.Provider = "rasterize-detect"
	e, err = ocr.NewExtractor(context.Background(), cfg, deps)
	require.NoError(t, err)
	assert.IsType(t, &ocr.RasterExtractor{}, e)
}

func TestNewExtractor_UnknownProvider(t *testing.T) {
	cfg := &config.Config{OCR: config.OCRConfig{Provider: "carrier-pigeon"}}
	_, err := ocr.NewExtractor(context.Background(), cfg, ocr.Dependencies{})
	assert.ErrorContains(t, err, "unknown ocr provider")
}

func TestNewExtractor_MissingDependencies(t *testing.T) {
	cfg := &config.Config{OCR: config.OCRConfig{Provider: "rasterize-detect"}}
	_, err := ocr.NewExtractor(context.Background(), cfg, ocr.Dependencies{
		Storage:  new(mocks.MockObjectStorage),
		Detector: new(mocks.MockTextDetector),
	})
	assert.Error(t, err)
}
