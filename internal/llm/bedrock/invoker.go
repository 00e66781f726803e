// Package bedrock implements port.ModelInvoker on AWS Bedrock Runtime.
package bedrock

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"

	"docquery/internal/awsutil"
	"docquery/internal/config"
	"docquery/internal/llm"
	"docquery/internal/port"
)

const contentTypeJSON = "application/json"

// API is the subset of the Bedrock Runtime client used by Invoker.
type API interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Invoker sends JSON bodies to Bedrock models.
type Invoker struct {
	client API
}

// New wraps an existing Bedrock Runtime client.
func New(client API) *Invoker {
	return &Invoker{client: client}
}

// NewFromConfig builds a Bedrock Runtime client in the LLM region.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Invoker, error) {
	awsCfg, err := awsutil.LoadConfig(ctx, awsutil.Options{
		Region:    cfg.LLM.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	})
	if err != nil {
		return nil, err
	}
	return New(bedrockruntime.NewFromConfig(awsCfg)), nil
}

var _ port.ModelInvoker = (*Invoker)(nil)

// Invoke calls the model and returns the raw response body. Throttling is
// reported as *llm.RateLimitError.
func (i *Invoker) Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	out, err := i.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		ContentType: aws.String(contentTypeJSON),
		Accept:      aws.String(contentTypeJSON),
	})
	if err != nil {
		baseErr := fmt.Errorf("bedrock invoke %s: %w", modelID, err)
		if isThrottling(err) {
			return nil, llm.NewRateLimitError("bedrock", baseErr, 0)
		}
		return nil, baseErr
	}
	return out.Body, nil
}

func isThrottling(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ThrottlingException", "TooManyRequestsException", "ServiceQuotaExceededException":
		return true
	}
	return false
}
