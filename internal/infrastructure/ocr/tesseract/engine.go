// Package tesseract adapts the gosseract client to the pipeline's OCR
// contract. Each page gets a fresh client; recognition runs behind a circuit
// breaker so a crashing native layer fails fast across requests.
package tesseract

import (
	"context"
	"errors"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/propertyiq/taxbill-ocr/internal/core/domain"
	"github.com/propertyiq/taxbill-ocr/internal/infrastructure/resilience"
)

type Engine struct {
	language string
	executor *resilience.Executor

	// recognizeFn is swapped out in tests; the default drives gosseract.
	recognizeFn func(page domain.PageImage) (string, error)
}

// New builds a Tesseract-backed engine. The executor may be nil to run
// unguarded.
func New(language string, executor *resilience.Executor) *Engine {
	e := &Engine{language: language, executor: executor}
	e.recognizeFn = e.recognizeWithClient
	return e
}

// Recognize runs OCR on one page image. Low confidence degrades output
// quality, not validity: an error here means the engine itself failed or the
// page budget ran out.
func (e *Engine) Recognize(ctx context.Context, page domain.PageImage) (domain.PageText, error) {
	var text string
	run := func(ctx context.Context) error {
		t, err := e.recognize(ctx, page)
		if err != nil {
			return err
		}
		text = t
		return nil
	}

	var err error
	if e.executor != nil {
		err = e.executor.Execute(ctx, "ocr.recognize", run, classifyOCRError)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return domain.PageText{}, err
	}
	return domain.PageText{Index: page.Index, Text: text}, nil
}

// recognize bounds the blocking gosseract call with the page context. On
// timeout the native call keeps running in its goroutine until Tesseract
// returns; its result is discarded.
func (e *Engine) recognize(ctx context.Context, page domain.PageImage) (string, error) {
	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := e.recognizeFn(page)
		done <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", domain.WrapError(domain.ErrTimeout, fmt.Sprintf("ocr page %d", page.Index), ctx.Err())
		}
		return "", ctx.Err()
	case out := <-done:
		if out.err != nil {
			return "", domain.WrapError(domain.ErrExtraction, fmt.Sprintf("ocr page %d", page.Index), out.err)
		}
		return out.text, nil
	}
}

func (e *Engine) recognizeWithClient(page domain.PageImage) (string, error) {
	c := gosseract.NewClient()
	defer c.Close()

	if e.language != "" {
		if err := c.SetLanguage(e.language); err != nil {
			return "", fmt.Errorf("set language: %w", err)
		}
	}
	// Single uniform block of text matches the dense layout of tax bills.
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if page.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(page.DPI)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetImageFromBytes(page.PNG); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

// classifyOCRError keeps timeouts and cancellations out of the breaker
// counts: they reflect document size and request lifecycle, not engine
// health.
func classifyOCRError(err error) resilience.ErrorClassification {
	if domain.IsKind(err, domain.ErrTimeout) || errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
