package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	crmDurationBuckets  = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
)

// Metrics holds all Prometheus metric instruments for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// CRM backend metrics, labelled by endpoint family
	// (objects, search, associations, properties).
	CRMRequestsTotal   *prometheus.CounterVec
	CRMRequestDuration *prometheus.HistogramVec

	// Section operation metrics
	SectionOperationsTotal *prometheus.CounterVec
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dealdesk_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dealdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),

		CRMRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dealdesk_crm_requests_total",
			Help: "Total number of CRM backend requests.",
		}, []string{"family", "outcome"}),
		CRMRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dealdesk_crm_request_duration_seconds",
			Help:    "CRM backend request duration in seconds.",
			Buckets: crmDurationBuckets,
		}, []string{"family"}),

		SectionOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dealdesk_section_operations_total",
			Help: "Total number of section load/save operations.",
		}, []string{"section", "operation", "status"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CRMRequestsTotal,
		m.CRMRequestDuration,
		m.SectionOperationsTotal,
	)
	return m
}

// ObserveHTTPRequest records one served HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, pathPattern string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}

// ObserveCRMRequest records one CRM call. Outcome is "success", "conflict",
// or "error".
func (m *Metrics) ObserveCRMRequest(family, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CRMRequestsTotal.WithLabelValues(family, outcome).Inc()
	m.CRMRequestDuration.WithLabelValues(family).Observe(duration.Seconds())
}

// ObserveSectionOperation records one section load or save by result status.
func (m *Metrics) ObserveSectionOperation(section, operation, status string) {
	if m == nil {
		return
	}
	m.SectionOperationsTotal.WithLabelValues(section, operation, status).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
