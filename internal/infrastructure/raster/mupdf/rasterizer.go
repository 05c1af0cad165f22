// Package mupdf renders PDF pages to images through go-fitz (MuPDF). The
// document is validated with pdfcpu before rendering so a malformed upload is
// rejected cheaply, without touching the native renderer.
package mupdf

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/propertyiq/taxbill-ocr/internal/core/domain"
)

type Rasterizer struct {
	maxPageWidth int
	conf         *model.Configuration
}

// New builds a rasterizer that caps rendered pages at maxPageWidth pixels
// before they are handed to OCR. Everything stays in memory; there is no
// temporary working area to clean up.
func New(maxPageWidth int) *Rasterizer {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Rasterizer{maxPageWidth: maxPageWidth, conf: conf}
}

func (r *Rasterizer) Rasterize(ctx context.Context, data []byte, dpi int) ([]domain.PageImage, error) {
	if _, err := api.PageCount(bytes.NewReader(data), r.conf); err != nil {
		return nil, domain.WrapError(domain.ErrDecode, "validate pdf", err)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDecode, "open pdf", err)
	}
	defer doc.Close()

	pages := make([]domain.PageImage, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, domain.WrapError(domain.ErrDecode, fmt.Sprintf("render page %d", i), err)
		}

		gray := prepare(img, r.maxPageWidth)
		var buf bytes.Buffer
		if err := png.Encode(&buf, gray); err != nil {
			return nil, domain.WrapError(domain.ErrDecode, fmt.Sprintf("encode page %d", i), err)
		}

		bounds := gray.Bounds()
		pages = append(pages, domain.PageImage{
			Index:  i,
			PNG:    buf.Bytes(),
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			DPI:    dpi,
		})
	}
	return pages, nil
}
