package ocr

import (
	"bytes"
	"context"
	"log"
	"path"

	"github.com/google/uuid"

	"docquery/internal/port"
)

// StagingOptions locate staged objects. Every extraction writes under
// <Prefix>/<request id>/ so concurrent requests never share keys.
type StagingOptions struct {
	Bucket string
	Prefix string
}

type stager struct {
	storage port.ObjectStorage
	opts    StagingOptions
}

func (s *stager) newScope() string {
	return path.Join(s.opts.Prefix, uuid.NewString())
}

func (s *stager) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.opts.Bucket,
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: contentType,
		Size:        int64(len(data)),
	})
	return err
}

// remove deletes a staged object. It ignores cancellation of ctx so cleanup
// still runs after the caller gave up.
func (s *stager) remove(ctx context.Context, key string) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), s.opts.Bucket, key); err != nil {
		log.Printf("ocr.stager.remove: failed to delete staged object %s: %v", key, err)
	}
}

// mean returns the arithmetic mean of values, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
