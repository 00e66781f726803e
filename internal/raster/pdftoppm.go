// Package raster converts PDF documents into page images with poppler's pdftoppm.
package raster

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"docquery/internal/domain"
	"docquery/internal/port"
)

const defaultDPI = 200

// Options configure the pdftoppm invocation.
type Options struct {
	Binary   string // defaults to "pdftoppm"
	DPI      int    // defaults to 200
	MaxPages int    // 0 means no limit
}

// Pdftoppm implements port.Rasterizer by shelling out to pdftoppm.
type Pdftoppm struct {
	opts   Options
	runner Runner
}

// NewPdftoppm creates a rasterizer. A nil runner uses ExecRunner.
func NewPdftoppm(opts Options, runner Runner) *Pdftoppm {
	if opts.Binary == "" {
		opts.Binary = "pdftoppm"
	}
	if opts.DPI <= 0 {
		opts.DPI = defaultDPI
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Pdftoppm{opts: opts, runner: runner}
}

var _ port.Rasterizer = (*Pdftoppm)(nil)

// Rasterize renders every page to PNG and returns the images in page order.
// All intermediate files live in a temporary directory that is removed before
// returning. A document that renders no pages yields an empty slice.
func (p *Pdftoppm) Rasterize(ctx context.Context, pdf []byte) ([]port.PageImage, error) {
	tmpDir, err := os.MkdirTemp("", "docquery-raster-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			log.Printf("raster.Pdftoppm.Rasterize: failed to remove temp dir %s: %v", tmpDir, rmErr)
		}
	}()

	input := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(input, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(p.opts.DPI), "-png"}
	if p.opts.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(p.opts.MaxPages))
	}
	args = append(args, input, prefix)

	if _, stderr, err := p.runner.Run(ctx, p.opts.Binary, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(stderr)))
	}

	files, err := pageFiles(prefix)
	if err != nil {
		return nil, err
	}
	if p.opts.MaxPages > 0 && len(files) > p.opts.MaxPages {
		files = files[:p.opts.MaxPages]
	}

	images := make([]port.PageImage, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", f.number, err)
		}
		images = append(images, port.PageImage{
			Number:      f.number,
			Data:        data,
			ContentType: domain.ContentTypePNG,
		})
	}
	return images, nil
}

type pageFile struct {
	number int
	path   string
}

// pageFiles collects prefix-N.png outputs sorted by page number. pdftoppm
// zero-pads N depending on the page count, so N is parsed rather than sorted
// as text.
func pageFiles(prefix string) ([]pageFile, error) {
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}

	files := make([]pageFile, 0, len(matches))
	for _, m := range matches {
		suffix := strings.TrimSuffix(strings.TrimPrefix(m, prefix+"-"), ".png")
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		files = append(files, pageFile{number: n, path: m})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].number < files[j].number })
	return files, nil
}
