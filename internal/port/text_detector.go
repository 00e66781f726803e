package port

import "context"

// DetectedLine is a single line of text recognized by a detection service.
type DetectedLine struct {
	Text       string
	Page       int // 0 when the provider did not report a page
	Confidence float64
}

// TextDetector abstracts OCR text detection over staged objects.
type TextDetector interface {
	// DetectDocument runs whole-document text detection on a staged object.
	DetectDocument(ctx context.Context, bucket, key string) ([]DetectedLine, error)
	// AnalyzeImage runs detection on a single staged image. An empty feature
	// list means plain text detection.
	AnalyzeImage(ctx context.Context, bucket, key string, features []string) ([]DetectedLine, error)
}
