package ports

import (
	"context"
	"time"

	"github.com/propertyiq/taxbill-ocr/internal/core/domain"
)

// Rasterizer renders PDF bytes into ordered page images at the given DPI.
type Rasterizer interface {
	Rasterize(ctx context.Context, data []byte, dpi int) ([]domain.PageImage, error)
}

// OCREngine recognizes the text on a single page image.
type OCREngine interface {
	Recognize(ctx context.Context, page domain.PageImage) (domain.PageText, error)
}

// FieldParser extracts the fixed field set from concatenated page text. It
// cannot fail; unmatched fields stay marked not found.
type FieldParser interface {
	Parse(text string) domain.FieldSet
}

// Redactor applies compliance masking to extracted fields. Pure function.
type Redactor interface {
	Redact(fields domain.FieldSet) domain.FieldSet
}

// PipelineObserver receives stage-level telemetry from the pipeline.
type PipelineObserver interface {
	StageCompleted(stage string, elapsed time.Duration)
}
