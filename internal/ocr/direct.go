package ocr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"sort"
	"strings"

	"docquery/internal/domain"
	"docquery/internal/port"
)

// DirectExtractor stages the whole PDF and runs document-level text
// detection on it.
type DirectExtractor struct {
	stager   *stager
	detector port.TextDetector
}

// NewDirectExtractor creates a DirectExtractor.
func NewDirectExtractor(storage port.ObjectStorage, detector port.TextDetector, opts StagingOptions) *DirectExtractor {
	return &DirectExtractor{
		stager:   &stager{storage: storage, opts: opts},
		detector: detector,
	}
}

var _ port.DocumentTextExtractor = (*DirectExtractor)(nil)

// ExtractText returns the detected text grouped per page as "Page N:" blocks.
// Staging and detection failures degrade to an empty result; only an
// unsupported document is reported as an error.
func (e *DirectExtractor) ExtractText(ctx context.Context, pdf []byte) (*domain.ExtractionResult, error) {
	key := path.Join(e.stager.newScope(), "document.pdf")
	if err := e.stager.put(ctx, key, pdf, domain.ContentTypePDF); err != nil {
		log.Printf("ocr.DirectExtractor.ExtractText: staging %s failed: %v", key, err)
		return domain.EmptyExtraction(domain.ScalePercent), nil
	}
	defer e.stager.remove(ctx, key)

	lines, err := e.detector.DetectDocument(ctx, e.stager.opts.Bucket, key)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			log.Printf("ocr.DirectExtractor.ExtractText: unsupported document %s: %v", key, err)
			return domain.EmptyExtraction(domain.ScalePercent), domain.ErrUnsupportedFormat
		}
		log.Printf("ocr.DirectExtractor.ExtractText: detection failed for %s: %v", key, err)
		return domain.EmptyExtraction(domain.ScalePercent), nil
	}

	text, pages := groupByPage(lines)
	confidences := make([]float64, 0, len(lines))
	for _, l := range lines {
		confidences = append(confidences, l.Confidence)
	}

	return &domain.ExtractionResult{
		Text:       text,
		Confidence: mean(confidences),
		Pages:      pages,
		Scale:      domain.ScalePercent,
	}, nil
}

// groupByPage renders lines as "Page N:\n<lines>" blocks in ascending page
// order separated by a blank line. Lines without a page belong to page 1.
func groupByPage(lines []port.DetectedLine) (string, int) {
	byPage := make(map[int][]string)
	for _, l := range lines {
		page := l.Page
		if page <= 0 {
			page = 1
		}
		byPage[page] = append(byPage[page], l.Text)
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	blocks := make([]string, 0, len(pages))
	for _, p := range pages {
		blocks = append(blocks, fmt.Sprintf("Page %d:\n%s", p, strings.Join(byPage[p], "\n")))
	}
	return strings.Join(blocks, "\n\n"), len(pages)
}
