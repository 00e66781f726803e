// Package textract implements port.TextDetector on top of Amazon Textract.
package textract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"docquery/internal/awsutil"
	"docquery/internal/config"
	"docquery/internal/domain"
	"docquery/internal/port"
)

// API is the subset of the Textract client used by Detector.
type API interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// Detector reads LINE blocks from Textract responses.
type Detector struct {
	client API
}

// New wraps an existing Textract client.
func New(client API) *Detector {
	return &Detector{client: client}
}

// NewFromConfig builds a Textract client for the OCR region. Credentials
// are shared with the S3 staging bucket so Textract can read staged objects.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Detector, error) {
	awsCfg, err := awsutil.LoadConfig(ctx, awsutil.Options{
		Region:    cfg.OCR.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	})
	if err != nil {
		return nil, err
	}
	return New(textract.NewFromConfig(awsCfg)), nil
}

var _ port.TextDetector = (*Detector)(nil)

func (d *Detector) DetectDocument(ctx context.Context, bucket, key string) ([]port.DetectedLine, error) {
	out, err := d.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: s3Document(bucket, key),
	})
	if err != nil {
		return nil, mapError("detect document text", err)
	}
	return linesFromBlocks(out.Blocks), nil
}

func (d *Detector) AnalyzeImage(ctx context.Context, bucket, key string, features []string) ([]port.DetectedLine, error) {
	if len(features) == 0 {
		return d.DetectDocument(ctx, bucket, key)
	}

	featureTypes := make([]types.FeatureType, 0, len(features))
	for _, f := range features {
		featureTypes = append(featureTypes, types.FeatureType(strings.ToUpper(strings.TrimSpace(f))))
	}

	out, err := d.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document:     s3Document(bucket, key),
		FeatureTypes: featureTypes,
	})
	if err != nil {
		return nil, mapError("analyze document", err)
	}
	return linesFromBlocks(out.Blocks), nil
}

func s3Document(bucket, key string) *types.Document {
	return &types.Document{
		S3Object: &types.S3Object{
			Bucket: aws.String(bucket),
			Name:   aws.String(key),
		},
	}
}

func linesFromBlocks(blocks []types.Block) []port.DetectedLine {
	var lines []port.DetectedLine
	for _, b := range blocks {
		if b.BlockType != types.BlockTypeLine {
			continue
		}
		lines = append(lines, port.DetectedLine{
			Text:       aws.ToString(b.Text),
			Page:       int(aws.ToInt32(b.Page)),
			Confidence: float64(aws.ToFloat32(b.Confidence)),
		})
	}
	return lines
}

func mapError(op string, err error) error {
	var unsupported *types.UnsupportedDocumentException
	if errors.As(err, &unsupported) {
		return fmt.Errorf("textract %s: %w: %s", op, domain.ErrUnsupportedFormat, unsupported.ErrorMessage())
	}
	return fmt.Errorf("textract %s: %w", op, err)
}
