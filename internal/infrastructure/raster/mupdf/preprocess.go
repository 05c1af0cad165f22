package mupdf

import (
	"image"

	"golang.org/x/image/draw"
)

// prepare converts a rendered page to grayscale and caps its width. Grayscale
// is what Tesseract wants anyway, and capping the width keeps OCR latency
// bounded for high-DPI renders of large page formats.
func prepare(src image.Image, maxWidth int) *image.Gray {
	srcBounds := src.Bounds()
	w, h := fitWidth(srcBounds.Dx(), srcBounds.Dy(), maxWidth)

	gray := image.NewGray(image.Rect(0, 0, w, h))
	if w == srcBounds.Dx() && h == srcBounds.Dy() {
		draw.Copy(gray, image.Point{}, src, srcBounds, draw.Src, nil)
		return gray
	}
	draw.CatmullRom.Scale(gray, gray.Bounds(), src, srcBounds, draw.Src, nil)
	return gray
}

// fitWidth scales (w, h) down proportionally so w <= maxWidth. Images at or
// under the cap keep their dimensions; maxWidth <= 0 disables the cap.
func fitWidth(w, h, maxWidth int) (int, int) {
	if maxWidth <= 0 || w <= maxWidth {
		return w, h
	}
	scaled := h * maxWidth / w
	if scaled < 1 {
		scaled = 1
	}
	return maxWidth, scaled
}
