package ports

import (
	"context"

	"github.com/propertyiq/taxbill-ocr/internal/core/domain"
)

// BillExtractor is the inbound contract for one-shot tax bill extraction. The
// document is processed synchronously and never retained.
type BillExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (*domain.Result, error)
}
