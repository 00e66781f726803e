package port

import "context"

// PageImage is one rasterized PDF page held in memory.
type PageImage struct {
	Number      int
	Data        []byte
	ContentType string
}

// Rasterizer converts a PDF into an ordered, fully materialized list of page images.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([]PageImage, error)
}
