package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/propertyiq/taxbill-ocr/internal/config"
	"github.com/propertyiq/taxbill-ocr/internal/core/domain"
	"github.com/propertyiq/taxbill-ocr/internal/core/ports"
	"github.com/propertyiq/taxbill-ocr/internal/observability/metrics"
)

var pdfMagic = []byte("%PDF-")

type Router struct {
	cfg       config.Config
	extractor ports.BillExtractor
	metrics   *metrics.Metrics
}

func NewRouter(cfg config.Config, extractor ports.BillExtractor, m *metrics.Metrics) *Router {
	return &Router{
		cfg:       cfg,
		extractor: extractor,
		metrics:   m,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}

	origins := config.SplitList(rt.cfg.CORSOrigins)
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	if rt.cfg.APIRateLimitRPS > 0 {
		r.Use(rateLimitMiddleware(rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst))
	}

	r.Get("/healthz", rt.healthz)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}
	r.Post("/v1/extractions", rt.createExtraction)
	return r
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createExtraction runs the whole pipeline synchronously for one uploaded
// PDF. Nothing is retained after the response is written.
func (rt *Router) createExtraction(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "document exceeds upload limit"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "only PDF uploads are accepted"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "document exceeds upload limit"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable upload"})
		return
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "uploaded file is not a PDF"})
		return
	}

	doc := &domain.Document{
		ID:       uuid.NewString(),
		Filename: header.Filename,
		Size:     int64(len(data)),
		Data:     data,
	}

	start := time.Now()
	result, err := rt.extractor.Extract(r.Context(), doc)
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordDocument("failed", time.Since(start), 0, 0)
		}
		writeFailure(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordDocument("succeeded", time.Since(start), result.PageCount, len(result.SkippedPages))
		for _, name := range domain.AllFields() {
			rt.metrics.RecordField(string(name), result.Fields.Get(name).Found)
		}
	}
	writeJSON(w, http.StatusOK, newExtractionResponse(result))
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
