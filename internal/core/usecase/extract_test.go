package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/propertyiq/taxbill-ocr/internal/core/domain"
)

type rasterFake struct {
	pages []domain.PageImage
	err   error
}

func (f *rasterFake) Rasterize(context.Context, []byte, int) ([]domain.PageImage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

type ocrFake struct {
	texts  map[int]string
	errs   map[int]error
	delays map[int]time.Duration
}

func (f *ocrFake) Recognize(ctx context.Context, page domain.PageImage) (domain.PageText, error) {
	if d := f.delays[page.Index]; d > 0 {
		select {
		case <-ctx.Done():
			return domain.PageText{}, ctx.Err()
		case <-time.After(d):
		}
	}
	if err := f.errs[page.Index]; err != nil {
		return domain.PageText{}, err
	}
	return domain.PageText{Index: page.Index, Text: f.texts[page.Index]}, nil
}

type parserFake struct {
	inputs []string
	fields domain.FieldSet
}

func (f *parserFake) Parse(text string) domain.FieldSet {
	f.inputs = append(f.inputs, text)
	if f.fields == nil {
		return domain.NewFieldSet()
	}
	return f.fields.Clone()
}

type redactorFake struct {
	calls int
}

func (f *redactorFake) Redact(fields domain.FieldSet) domain.FieldSet {
	f.calls++
	out := fields.Clone()
	if addr := out.Get(domain.FieldAddress); addr.Found {
		out.Set(domain.FieldAddress, "masked:"+addr.Value)
	}
	return out
}

type observerFake struct {
	stages []string
}

func (f *observerFake) StageCompleted(stage string, _ time.Duration) {
	f.stages = append(f.stages, stage)
}

func makePages(n int) []domain.PageImage {
	pages := make([]domain.PageImage, n)
	for i := range pages {
		pages[i] = domain.PageImage{Index: i, PNG: []byte{0x89}, DPI: 200}
	}
	return pages
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDocument() *domain.Document {
	return &domain.Document{ID: "doc-1", Filename: "bill.pdf", Size: 4, Data: []byte("%PDF")}
}

func TestExtractHappyPath(t *testing.T) {
	parsed := domain.NewFieldSet()
	parsed.Set(domain.FieldOwner, "Jane Smith")
	parsed.Set(domain.FieldAddress, "123 Main St")

	parser := &parserFake{fields: parsed}
	redactor := &redactorFake{}
	observer := &observerFake{}

	uc := NewExtractBillUseCase(
		&rasterFake{pages: makePages(2)},
		&ocrFake{texts: map[int]string{0: "page zero", 1: "page one"}},
		parser,
		redactor,
		observer,
		testLogger(),
		PipelineOptions{},
	)

	result, err := uc.Extract(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.PageCount != 2 {
		t.Fatalf("page count = %d, want 2", result.PageCount)
	}
	if len(result.SkippedPages) != 0 {
		t.Fatalf("skipped pages = %v, want none", result.SkippedPages)
	}
	if got := result.Fields.Render(domain.FieldOwner); got != "Jane Smith" {
		t.Fatalf("owner = %q", got)
	}
	if got := result.Fields.Render(domain.FieldAddress); got != "masked:123 Main St" {
		t.Fatalf("address = %q, want redactor output", got)
	}

	if len(parser.inputs) != 1 || parser.inputs[0] != "page zero\n\fpage one" {
		t.Fatalf("parser input = %q, want pages joined in order", parser.inputs)
	}
	if redactor.calls != 1 {
		t.Fatalf("redactor calls = %d, want 1", redactor.calls)
	}

	wantStages := []string{"rasterize", "extract", "parse", "filter"}
	if len(observer.stages) != len(wantStages) {
		t.Fatalf("observed stages = %v, want %v", observer.stages, wantStages)
	}
	for i, stage := range wantStages {
		if observer.stages[i] != stage {
			t.Fatalf("observed stages = %v, want %v", observer.stages, wantStages)
		}
	}
}

func TestExtractRejectsEmptyDocument(t *testing.T) {
	uc := NewExtractBillUseCase(
		&rasterFake{}, &ocrFake{}, &parserFake{}, &redactorFake{}, nil,
		testLogger(), PipelineOptions{},
	)

	result, err := uc.Extract(context.Background(), &domain.Document{ID: "doc-1"})
	if result != nil {
		t.Fatalf("expected no result, got %+v", result)
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input kind, got %v", err)
	}
	if stage, ok := domain.StageOf(err); !ok || stage != domain.StageRasterize {
		t.Fatalf("expected rasterize stage, got %v (%v)", stage, ok)
	}
}

func TestExtractAttributesDecodeFailure(t *testing.T) {
	decodeErr := domain.WrapError(domain.ErrDecode, "parse pdf", errors.New("bad xref table"))
	uc := NewExtractBillUseCase(
		&rasterFake{err: decodeErr}, &ocrFake{}, &parserFake{}, &redactorFake{}, nil,
		testLogger(), PipelineOptions{},
	)

	result, err := uc.Extract(context.Background(), testDocument())
	if result != nil {
		t.Fatalf("expected no result on decode failure, got %+v", result)
	}
	if !domain.IsKind(err, domain.ErrDecode) {
		t.Fatalf("expected decode kind, got %v", err)
	}
	if stage, ok := domain.StageOf(err); !ok || stage != domain.StageRasterize {
		t.Fatalf("expected rasterize stage, got %v (%v)", stage, ok)
	}
}

func TestExtractSkipsFailedPageAndContinues(t *testing.T) {
	parser := &parserFake{}
	uc := NewExtractBillUseCase(
		&rasterFake{pages: makePages(3)},
		&ocrFake{
			texts: map[int]string{0: "alpha", 2: "gamma"},
			errs:  map[int]error{1: errors.New("unreadable page")},
		},
		parser, &redactorFake{}, nil,
		testLogger(), PipelineOptions{},
	)

	result, err := uc.Extract(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.PageCount != 3 {
		t.Fatalf("page count = %d, want 3", result.PageCount)
	}
	if len(result.SkippedPages) != 1 || result.SkippedPages[0] != 1 {
		t.Fatalf("skipped pages = %v, want [1]", result.SkippedPages)
	}
	if parser.inputs[0] != "alpha\n\f\n\fgamma" {
		t.Fatalf("parser input = %q, want skipped page to leave empty slot", parser.inputs[0])
	}
}

func TestExtractPreservesPageOrderUnderParallelism(t *testing.T) {
	parser := &parserFake{}
	uc := NewExtractBillUseCase(
		&rasterFake{pages: makePages(3)},
		&ocrFake{
			texts:  map[int]string{0: "first", 1: "second", 2: "third"},
			delays: map[int]time.Duration{0: 30 * time.Millisecond, 1: 10 * time.Millisecond},
		},
		parser, &redactorFake{}, nil,
		testLogger(), PipelineOptions{MaxParallelPages: 3},
	)

	if _, err := uc.Extract(context.Background(), testDocument()); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if parser.inputs[0] != "first\n\fsecond\n\fthird" {
		t.Fatalf("parser input = %q, want page-index order regardless of completion order", parser.inputs[0])
	}
}

func TestExtractFailsWhenAllPagesFail(t *testing.T) {
	uc := NewExtractBillUseCase(
		&rasterFake{pages: makePages(2)},
		&ocrFake{errs: map[int]error{0: errors.New("blank"), 1: errors.New("blank")}},
		&parserFake{}, &redactorFake{}, nil,
		testLogger(), PipelineOptions{},
	)

	result, err := uc.Extract(context.Background(), testDocument())
	if result != nil {
		t.Fatalf("expected no result when every page fails, got %+v", result)
	}
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction kind, got %v", err)
	}
	if stage, ok := domain.StageOf(err); !ok || stage != domain.StageExtract {
		t.Fatalf("expected extract stage, got %v (%v)", stage, ok)
	}
}

func TestExtractHonorsDocumentTimeout(t *testing.T) {
	uc := NewExtractBillUseCase(
		&rasterFake{pages: makePages(2)},
		&ocrFake{
			texts:  map[int]string{0: "first", 1: "second"},
			delays: map[int]time.Duration{0: 500 * time.Millisecond, 1: 500 * time.Millisecond},
		},
		&parserFake{}, &redactorFake{}, nil,
		testLogger(), PipelineOptions{DocumentTimeout: 30 * time.Millisecond},
	)

	result, err := uc.Extract(context.Background(), testDocument())
	if result != nil {
		t.Fatalf("expected no result on document timeout, got %+v", result)
	}
	if !domain.IsKind(err, domain.ErrTimeout) {
		t.Fatalf("expected timeout kind, got %v", err)
	}
	if stage, ok := domain.StageOf(err); !ok || stage != domain.StageExtract {
		t.Fatalf("expected extract stage, got %v (%v)", stage, ok)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	newUseCase := func(parser *parserFake) *ExtractBillUseCase {
		return NewExtractBillUseCase(
			&rasterFake{pages: makePages(4)},
			&ocrFake{
				texts: map[int]string{0: "a", 1: "b", 2: "c", 3: "d"},
				delays: map[int]time.Duration{
					0: 15 * time.Millisecond,
					2: 5 * time.Millisecond,
				},
			},
			parser, &redactorFake{}, nil,
			testLogger(), PipelineOptions{MaxParallelPages: 4},
		)
	}

	first := &parserFake{}
	if _, err := newUseCase(first).Extract(context.Background(), testDocument()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second := &parserFake{}
	if _, err := newUseCase(second).Extract(context.Background(), testDocument()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.inputs[0] != second.inputs[0] {
		t.Fatalf("runs diverged: %q vs %q", first.inputs[0], second.inputs[0])
	}
}
