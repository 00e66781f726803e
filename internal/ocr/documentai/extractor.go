// Package documentai extracts text with a Google Document AI OCR processor.
package documentai

import (
	"context"
	"fmt"
	"io"
	"log"

	docai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"docquery/internal/config"
	"docquery/internal/domain"
	"docquery/internal/ocr"
	"docquery/internal/port"
)

func init() {
	ocr.RegisterProvider(string(domain.OCRProviderExternalDocumentAI), func(ctx context.Context, cfg *config.Config, _ ocr.Dependencies) (port.DocumentTextExtractor, error) {
		return NewFromConfig(ctx, &cfg.DocumentAI)
	})
}

// Processor sends a process request to Document AI.
type Processor interface {
	Process(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error)
}

type clientProcessor struct {
	client *docai.DocumentProcessorClient
}

func (p *clientProcessor) Close() error {
	return p.client.Close()
}

func (p *clientProcessor) Process(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
	return p.client.ProcessDocument(ctx, req)
}

// Extractor implements port.DocumentTextExtractor. Confidences are on the
// 0-1 scale Document AI reports.
type Extractor struct {
	processor     Processor
	processorName string
}

// New creates an Extractor for the given fully qualified processor name.
func New(processor Processor, processorName string) *Extractor {
	return &Extractor{processor: processor, processorName: processorName}
}

// NewFromConfig dials the regional Document AI endpoint.
func NewFromConfig(ctx context.Context, cfg *config.DocumentAIConfig) (*Extractor, error) {
	if cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return nil, fmt.Errorf("document ai requires project_id and processor_id")
	}

	opts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)),
	}
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := docai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating document ai client: %w", err)
	}
	return New(&clientProcessor{client: client}, cfg.ProcessorName()), nil
}

var _ port.DocumentTextExtractor = (*Extractor)(nil)

// Close releases the processor's client, if it holds one.
func (e *Extractor) Close() error {
	if c, ok := e.processor.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ExtractText processes the PDF inline. Processing errors degrade to an
// empty result.
func (e *Extractor) ExtractText(ctx context.Context, pdf []byte) (*domain.ExtractionResult, error) {
	resp, err := e.processor.Process(ctx, &documentaipb.ProcessRequest{
		Name: e.processorName,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdf,
				MimeType: domain.ContentTypePDF,
			},
		},
	})
	if err != nil {
		log.Printf("documentai.Extractor.ExtractText: processing failed: %v", err)
		return domain.EmptyExtraction(domain.ScaleUnit), nil
	}

	doc := resp.GetDocument()
	return &domain.ExtractionResult{
		Text:       doc.GetText(),
		Confidence: documentConfidence(doc),
		Pages:      len(doc.GetPages()),
		Scale:      domain.ScaleUnit,
	}, nil
}

// documentConfidence averages entity confidences, falling back to the
// layout confidence of every page block.
func documentConfidence(doc *documentaipb.Document) float64 {
	var scores []float32
	for _, ent := range doc.GetEntities() {
		scores = append(scores, ent.GetConfidence())
	}
	if len(scores) == 0 {
		for _, page := range doc.GetPages() {
			for _, block := range page.GetBlocks() {
				scores = append(scores, block.GetLayout().GetConfidence())
			}
		}
	}
	if len(scores) == 0 {
		return 0
	}

	var sum float64
	for _, s := range scores {
		sum += float64(s)
	}
	return sum / float64(len(scores))
}
