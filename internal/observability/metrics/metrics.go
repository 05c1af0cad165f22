package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service registry: HTTP server metrics plus extraction
// pipeline metrics.
type Metrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	documentsTotal   *prometheus.CounterVec
	documentDuration *prometheus.HistogramVec
	documentPages    *prometheus.HistogramVec
	pagesSkipped     *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	fieldOutcome     *prometheus.CounterVec
}

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "piq",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "piq",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "piq",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "piq",
			Subsystem: "pipeline",
			Name:      "documents_total",
			Help:      "Total documents run through the extraction pipeline by outcome.",
		},
		[]string{"service", "status"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "piq",
			Subsystem: "pipeline",
			Name:      "document_duration_seconds",
			Help:      "Whole-document pipeline duration in seconds by outcome.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service", "status"},
	)
	documentPages := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "piq",
			Subsystem: "pipeline",
			Name:      "document_pages",
			Help:      "Distribution of page counts per document.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	pagesSkipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "piq",
			Subsystem: "pipeline",
			Name:      "pages_skipped_total",
			Help:      "Total pages skipped after per-page extraction failures.",
		},
		[]string{"service"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "piq",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage"},
	)
	fieldOutcome := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "piq",
			Subsystem: "pipeline",
			Name:      "field_outcome_total",
			Help:      "Per-field extraction outcomes (found vs not_found).",
		},
		[]string{"service", "field", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		documentsTotal,
		documentDuration,
		documentPages,
		pagesSkipped,
		stageDuration,
		fieldOutcome,
	)

	return &Metrics{
		registry:         registry,
		service:          service,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		documentsTotal:   documentsTotal,
		documentDuration: documentDuration,
		documentPages:    documentPages,
		pagesSkipped:     pagesSkipped,
		stageDuration:    stageDuration,
		fieldOutcome:     fieldOutcome,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// StageCompleted implements the pipeline observer contract.
func (m *Metrics) StageCompleted(stage string, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(m.service, stage).Observe(elapsed.Seconds())
}

// RecordDocument records a finished pipeline run.
func (m *Metrics) RecordDocument(status string, elapsed time.Duration, pageCount, skippedPages int) {
	m.documentsTotal.WithLabelValues(m.service, status).Inc()
	m.documentDuration.WithLabelValues(m.service, status).Observe(elapsed.Seconds())
	if pageCount > 0 {
		m.documentPages.WithLabelValues(m.service).Observe(float64(pageCount))
	}
	if skippedPages > 0 {
		m.pagesSkipped.WithLabelValues(m.service).Add(float64(skippedPages))
	}
}

// RecordField records whether a field was found in one document.
func (m *Metrics) RecordField(field string, found bool) {
	outcome := "not_found"
	if found {
		outcome = "found"
	}
	m.fieldOutcome.WithLabelValues(m.service, field, outcome).Inc()
}
