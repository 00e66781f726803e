package ocr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"docquery/internal/domain"
	"docquery/internal/port"
)

const defaultConcurrency = 4

// RasterOptions configure the rasterize-and-detect strategy.
type RasterOptions struct {
	StagingOptions
	Features    []string // passed to AnalyzeImage; empty means plain text detection
	Concurrency int      // pages processed at once
	DetectRPS   float64  // detection calls per second; <= 0 disables pacing
}

// RasterExtractor renders each PDF page to an image and runs detection on
// each page independently.
type RasterExtractor struct {
	stager     *stager
	detector   port.TextDetector
	rasterizer port.Rasterizer
	opts       RasterOptions
	limiter    *rate.Limiter
}

// NewRasterExtractor creates a RasterExtractor.
func NewRasterExtractor(storage port.ObjectStorage, detector port.TextDetector, rasterizer port.Rasterizer, opts RasterOptions) *RasterExtractor {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	limit := rate.Inf
	if opts.DetectRPS > 0 {
		limit = rate.Limit(opts.DetectRPS)
	}
	return &RasterExtractor{
		stager:     &stager{storage: storage, opts: opts.StagingOptions},
		detector:   detector,
		rasterizer: rasterizer,
		opts:       opts,
		limiter:    rate.NewLimiter(limit, opts.Concurrency),
	}
}

var _ port.DocumentTextExtractor = (*RasterExtractor)(nil)

type pageResult struct {
	key         string // set once the page image is staged
	text        string
	confidences []float64
}

// ExtractText rasterizes the document, detects text on every page in
// parallel and joins page texts in page order. Confidence is the flat mean
// of every line confidence across all pages. A failing page is logged and
// skipped.
func (e *RasterExtractor) ExtractText(ctx context.Context, pdf []byte) (*domain.ExtractionResult, error) {
	images, err := e.rasterizer.Rasterize(ctx, pdf)
	if err != nil {
		log.Printf("ocr.RasterExtractor.ExtractText: rasterization failed: %v", err)
		return domain.EmptyExtraction(domain.ScalePercent), nil
	}
	if len(images) == 0 {
		log.Printf("ocr.RasterExtractor.ExtractText: no pages rendered")
		return domain.EmptyExtraction(domain.ScalePercent), nil
	}

	scope := e.stager.newScope()
	results := make([]pageResult, len(images))

	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)
	for i := range images {
		g.Go(func() error {
			results[i] = e.processPage(ctx, scope, images[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.key != "" {
			e.stager.remove(ctx, r.key)
		}
	}

	var (
		texts       []string
		confidences []float64
	)
	for _, r := range results {
		if r.text != "" {
			texts = append(texts, r.text)
		}
		confidences = append(confidences, r.confidences...)
	}
	return &domain.ExtractionResult{
		Text:       strings.Join(texts, "\n\n"),
		Confidence: mean(confidences),
		Pages:      len(images),
		Scale:      domain.ScalePercent,
	}, nil
}

func (e *RasterExtractor) processPage(ctx context.Context, scope string, img port.PageImage) pageResult {
	var res pageResult

	key := path.Join(scope, fmt.Sprintf("page_%d.png", img.Number))
	contentType := img.ContentType
	if contentType == "" {
		contentType = domain.ContentTypePNG
	}
	if err := e.stager.put(ctx, key, img.Data, contentType); err != nil {
		log.Printf("ocr.RasterExtractor.processPage: staging page %d failed: %v", img.Number, err)
		return res
	}
	res.key = key

	if err := e.limiter.Wait(ctx); err != nil {
		log.Printf("ocr.RasterExtractor.processPage: page %d not processed: %v", img.Number, err)
		return res
	}

	lines, err := e.detector.AnalyzeImage(ctx, e.stager.opts.Bucket, key, e.opts.Features)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			log.Printf("ocr.RasterExtractor.processPage: page %d unsupported: %v", img.Number, err)
		} else {
			log.Printf("ocr.RasterExtractor.processPage: detection failed for page %d: %v", img.Number, err)
		}
		return res
	}

	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, l.Text)
		res.confidences = append(res.confidences, l.Confidence)
	}
	res.text = cleanText(strings.Join(parts, "\n"))
	return res
}

// cleanText strips escaped-newline literals and backslashes left over from
// double encoding.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, `\n`, " ")
	s = strings.ReplaceAll(s, `\`, "")
	return strings.TrimSpace(s)
}
