package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/propertyiq/taxbill-ocr/internal/core/domain"
	"github.com/propertyiq/taxbill-ocr/internal/core/ports"
)

// pageDelimiter separates pages in the concatenated OCR text. A form feed
// keeps page boundaries visible to the parser without matching any field
// pattern.
const pageDelimiter = "\n\f"

// PipelineOptions bounds one pipeline invocation.
type PipelineOptions struct {
	DPI              int
	PageTimeout      time.Duration
	DocumentTimeout  time.Duration
	MaxParallelPages int
}

func (o PipelineOptions) normalize() PipelineOptions {
	out := o
	if out.DPI <= 0 {
		out.DPI = 200
	}
	if out.PageTimeout <= 0 {
		out.PageTimeout = 30 * time.Second
	}
	if out.DocumentTimeout <= 0 {
		out.DocumentTimeout = 120 * time.Second
	}
	if out.MaxParallelPages <= 0 {
		out.MaxParallelPages = 4
	}
	return out
}

// ExtractBillUseCase runs the rasterize -> extract -> parse -> filter pipeline
// for one document. State progresses strictly forward; any failure is
// attributed to the stage that raised it.
type ExtractBillUseCase struct {
	raster   ports.Rasterizer
	ocr      ports.OCREngine
	parser   ports.FieldParser
	redactor ports.Redactor
	observer ports.PipelineObserver
	logger   *slog.Logger
	opts     PipelineOptions
}

func NewExtractBillUseCase(
	raster ports.Rasterizer,
	ocr ports.OCREngine,
	parser ports.FieldParser,
	redactor ports.Redactor,
	observer ports.PipelineObserver,
	logger *slog.Logger,
	opts PipelineOptions,
) *ExtractBillUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractBillUseCase{
		raster:   raster,
		ocr:      ocr,
		parser:   parser,
		redactor: redactor,
		observer: observer,
		logger:   logger,
		opts:     opts.normalize(),
	}
}

func (uc *ExtractBillUseCase) Extract(ctx context.Context, doc *domain.Document) (*domain.Result, error) {
	if doc == nil || len(doc.Data) == 0 {
		return nil, domain.FailAt(domain.StageRasterize,
			domain.WrapError(domain.ErrInvalidInput, "extract document", errors.New("empty document body")))
	}

	ctx, cancel := context.WithTimeout(ctx, uc.opts.DocumentTimeout)
	defer cancel()

	state := domain.StateReceived
	log := uc.logger.With("document_id", doc.ID)

	pages, err := uc.rasterize(ctx, doc.Data)
	if err != nil {
		log.Warn("pipeline_failed", "state", string(state), "stage", string(domain.StageRasterize), "error", err)
		return nil, domain.FailAt(domain.StageRasterize, err)
	}
	state = domain.StateRasterized
	log.Debug("pipeline_state", "state", string(state), "pages", len(pages))

	texts, skipped, err := uc.extractPages(ctx, log, pages)
	if err != nil {
		log.Warn("pipeline_failed", "state", string(state), "stage", string(domain.StageExtract), "error", err)
		return nil, domain.FailAt(domain.StageExtract, err)
	}
	state = domain.StateExtracted
	log.Debug("pipeline_state", "state", string(state), "skipped_pages", len(skipped))

	fields := uc.parse(strings.Join(texts, pageDelimiter))
	state = domain.StateParsed
	log.Debug("pipeline_state", "state", string(state))

	fields = uc.filter(fields)
	state = domain.StateFiltered
	log.Debug("pipeline_state", "state", string(state))

	result := &domain.Result{
		Fields:       fields,
		PageCount:    len(pages),
		SkippedPages: skipped,
	}
	state = domain.StateDone
	log.Info("pipeline_done", "state", string(state), "pages", result.PageCount, "skipped_pages", len(skipped))
	return result, nil
}

func (uc *ExtractBillUseCase) rasterize(ctx context.Context, data []byte) ([]domain.PageImage, error) {
	start := time.Now()
	pages, err := uc.raster.Rasterize(ctx, data, uc.opts.DPI)
	uc.observe(domain.StageRasterize, time.Since(start))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !domain.IsKind(err, domain.ErrTimeout) {
			return nil, domain.WrapError(domain.ErrTimeout, "rasterize document", err)
		}
		return nil, err
	}
	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrDecode, "rasterize document", errors.New("document has no pages"))
	}
	return pages, nil
}

// extractPages fans out OCR per page and reassembles results by page index.
// Page-level failures are skipped and recorded; exhausting the document
// budget is fatal. Result slots are fixed and index-addressed, so no locking
// is needed.
func (uc *ExtractBillUseCase) extractPages(ctx context.Context, log *slog.Logger, pages []domain.PageImage) ([]string, []int, error) {
	start := time.Now()
	defer func() { uc.observe(domain.StageExtract, time.Since(start)) }()

	texts := make([]string, len(pages))
	failed := make([]bool, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.MaxParallelPages)
	for _, page := range pages {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, uc.opts.PageTimeout)
			defer cancel()

			pt, err := uc.ocr.Recognize(pctx, page)
			if err == nil {
				texts[page.Index] = pt.Text
				return nil
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}
			failed[page.Index] = true
			log.Warn("page_skipped", "page", page.Index, "error", err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, domain.WrapError(domain.ErrTimeout, "extract pages", err)
		}
		return nil, nil, err
	}

	skipped := make([]int, 0)
	succeeded := 0
	for i := range pages {
		if failed[i] {
			skipped = append(skipped, i)
		} else {
			succeeded++
		}
	}
	if succeeded == 0 {
		return nil, nil, domain.WrapError(domain.ErrExtraction, "extract pages", errors.New("no page produced text"))
	}
	return texts, skipped, nil
}

func (uc *ExtractBillUseCase) parse(text string) domain.FieldSet {
	start := time.Now()
	fields := uc.parser.Parse(text)
	uc.observe(domain.StageParse, time.Since(start))
	return fields
}

func (uc *ExtractBillUseCase) filter(fields domain.FieldSet) domain.FieldSet {
	start := time.Now()
	out := uc.redactor.Redact(fields)
	uc.observe(domain.StageFilter, time.Since(start))
	return out
}

func (uc *ExtractBillUseCase) observe(stage domain.Stage, elapsed time.Duration) {
	if uc.observer == nil {
		return
	}
	uc.observer.StageCompleted(string(stage), elapsed)
}
