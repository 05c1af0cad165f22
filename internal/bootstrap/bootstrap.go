package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/propertyiq/taxbill-ocr/internal/config"
	"github.com/propertyiq/taxbill-ocr/internal/core/ports"
	"github.com/propertyiq/taxbill-ocr/internal/core/usecase"
	"github.com/propertyiq/taxbill-ocr/internal/infrastructure/ocr/tesseract"
	"github.com/propertyiq/taxbill-ocr/internal/infrastructure/parsing"
	"github.com/propertyiq/taxbill-ocr/internal/infrastructure/raster/mupdf"
	"github.com/propertyiq/taxbill-ocr/internal/infrastructure/redaction"
	"github.com/propertyiq/taxbill-ocr/internal/infrastructure/resilience"
	"github.com/propertyiq/taxbill-ocr/internal/observability/logging"
	"github.com/propertyiq/taxbill-ocr/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Metrics   *metrics.Metrics
	Extractor ports.BillExtractor
}

func New(cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger("taxbill-ocr", cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.New("api")

	parser, err := parsing.New(parsing.Config{
		OwnerLabels:     config.SplitList(cfg.OwnerLabels),
		AddressLabels:   config.SplitList(cfg.AddressLabels),
		TaxYearLabels:   config.SplitList(cfg.TaxYearLabels),
		AmountLabels:    config.SplitList(cfg.AmountLabels),
		DueDateLabels:   config.SplitList(cfg.DueDateLabels),
		ProximityWindow: cfg.ProximityWindow,
		MinYear:         cfg.MinTaxYear,
	})
	if err != nil {
		return nil, fmt.Errorf("build field parser: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	rasterizer := mupdf.New(cfg.MaxPageWidth)
	engine := tesseract.New(cfg.OCRLanguage, executor)
	redactor := redaction.New()

	extractor := usecase.NewExtractBillUseCase(
		rasterizer,
		engine,
		parser,
		redactor,
		m,
		logger,
		usecase.PipelineOptions{
			DPI:              cfg.RasterDPI,
			PageTimeout:      time.Duration(cfg.PageTimeoutSeconds) * time.Second,
			DocumentTimeout:  time.Duration(cfg.DocumentTimeoutSeconds) * time.Second,
			MaxParallelPages: cfg.MaxParallelPages,
		},
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   m,
		Extractor: extractor,
	}, nil
}
