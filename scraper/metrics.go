package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	FetchesInFlight   prometheus.Gauge
	PagesVisitedTotal prometheus.Counter
	RecordsTotal      prometheus.Counter
	LinksTotal        prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	PatternErrors     prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued by the scraper.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_fetches_in_flight",
			Help: "Fetch and extract cycles currently holding a connection slot.",
		},
	)
	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pages_visited_total",
			Help: "Total number of pages fetched successfully.",
		},
	)
	records := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_records_total",
			Help: "Total number of records written by the extraction engine.",
		},
	)
	links := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_links_discovered_total",
			Help: "Total number of new same-host links queued.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of fetch errors by type.",
		},
		[]string{"error_type"},
	)
	patternErrors := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pattern_errors_total",
			Help: "Total number of extraction patterns skipped because they failed to compile.",
		},
	)

	registry.MustRegister(requests, requestDuration, inFlight, pages, records, links, errorsTotal, patternErrors)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   requestDuration,
		FetchesInFlight:   inFlight,
		PagesVisitedTotal: pages,
		RecordsTotal:      records,
		LinksTotal:        links,
		ErrorsTotal:       errorsTotal,
		PatternErrors:     patternErrors,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// TrackInFlight moves the in-flight gauge by delta.
func (m *Metrics) TrackInFlight(delta float64) {
	if m == nil {
		return
	}
	m.FetchesInFlight.Add(delta)
}

// IncPages increments the pages visited counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesVisitedTotal.Inc()
}

// AddRecords adds n to the records counter.
func (m *Metrics) AddRecords(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsTotal.Add(float64(n))
}

// IncLinks increments the discovered links counter.
func (m *Metrics) IncLinks() {
	if m == nil {
		return
	}
	m.LinksTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// AddPatternErrors adds n to the skipped patterns counter.
func (m *Metrics) AddPatternErrors(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PatternErrors.Add(float64(n))
}
