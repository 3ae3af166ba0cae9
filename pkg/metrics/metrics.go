package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Import metrics
	ImportJobsTotal      *prometheus.CounterVec
	ImportJobDuration    *prometheus.HistogramVec
	ImportJobsInProgress prometheus.Gauge
	RecordsImported      *prometheus.CounterVec
	RecordsReplaced      prometheus.Counter
	RowsDropped          *prometheus.CounterVec
	CellsCoerced         *prometheus.CounterVec
	StoredCampaignsGauge prometheus.Gauge

	// External API metrics
	ExternalAPICalls    *prometheus.CounterVec
	ExternalAPIDuration *prometheus.HistogramVec
	ExternalAPIFailures *prometheus.CounterVec

	// Report queries
	ReportQueries *prometheus.CounterVec
}

// New registers the collectors on the default Prometheus registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so that repeated construction does not panic.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		ImportJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_import_jobs_total",
				Help: "Total number of campaign import jobs",
			},
			[]string{"status", "source"},
		),

		ImportJobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campaign_import_job_duration_seconds",
				Help:    "Campaign import job duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
			},
			[]string{"source"},
		),

		ImportJobsInProgress: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "campaign_import_jobs_in_progress",
				Help: "Number of campaign imports currently running",
			},
		),

		RecordsImported: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_records_imported_total",
				Help: "Total number of campaign records written by imports",
			},
			[]string{"source"},
		),

		RecordsReplaced: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "campaign_records_replaced_total",
				Help: "Total number of stored campaign records replaced by a newer import of the same period",
			},
		),

		RowsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_rows_dropped_total",
				Help: "Total number of data rows dropped while parsing",
			},
			[]string{"reason"},
		),

		CellsCoerced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_cells_coerced_total",
				Help: "Total number of cells that could not be parsed and were defaulted",
			},
			[]string{"field"},
		),

		StoredCampaignsGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "campaign_records_stored",
				Help: "Number of campaign records in the stored collection after the last import",
			},
		),

		ExternalAPICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_calls_total",
				Help: "Total number of external API calls",
			},
			[]string{"api", "status"},
		),

		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "external_api_duration_seconds",
				Help:    "External API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api"},
		),

		ExternalAPIFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_failures_total",
				Help: "Total number of external API failures",
			},
			[]string{"api", "error_type"},
		),

		ReportQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_report_queries_total",
				Help: "Total number of campaign report queries",
			},
			[]string{"query_type"},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Import job metrics
func (m *Metrics) RecordImportJob(status, source string, duration time.Duration) {
	m.ImportJobsTotal.WithLabelValues(status, source).Inc()
	m.ImportJobDuration.WithLabelValues(source).Observe(duration.Seconds())
}

func (m *Metrics) RecordImportedRecords(source string, count int) {
	m.RecordsImported.WithLabelValues(source).Add(float64(count))
}

func (m *Metrics) RecordReplacedRecords(count int) {
	m.RecordsReplaced.Add(float64(count))
}

func (m *Metrics) RecordDroppedRows(reason string, count int) {
	if count > 0 {
		m.RowsDropped.WithLabelValues(reason).Add(float64(count))
	}
}

func (m *Metrics) RecordCoercedCells(field string, count int) {
	if count > 0 {
		m.CellsCoerced.WithLabelValues(field).Add(float64(count))
	}
}

func (m *Metrics) SetStoredCampaigns(count int) {
	m.StoredCampaignsGauge.Set(float64(count))
}

// External API call metrics
func (m *Metrics) RecordExternalAPICall(api, status string, duration time.Duration) {
	m.ExternalAPICalls.WithLabelValues(api, status).Inc()
	m.ExternalAPIDuration.WithLabelValues(api).Observe(duration.Seconds())
}

// External API failure metrics
func (m *Metrics) RecordExternalAPIFailure(api, errorType string) {
	m.ExternalAPIFailures.WithLabelValues(api, errorType).Inc()
}

func (m *Metrics) RecordReportQuery(queryType string) {
	m.ReportQueries.WithLabelValues(queryType).Inc()
}

func (m *Metrics) IncImportJobsInProgress() {
	m.ImportJobsInProgress.Inc()
}

func (m *Metrics) DecImportJobsInProgress() {
	m.ImportJobsInProgress.Dec()
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
