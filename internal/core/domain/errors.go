package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode marks an invalid or unreadable PDF. Fatal for the document.
	ErrDecode = errors.New("document decode failed")
	// ErrExtraction marks an OCR engine failure on a specific page.
	ErrExtraction = errors.New("text extraction failed")
	// ErrTimeout marks an exceeded per-page or per-document time budget.
	ErrTimeout = errors.New("time budget exceeded")
	// ErrInvalidInput marks a malformed request before the pipeline starts.
	ErrInvalidInput = errors.New("invalid input")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
