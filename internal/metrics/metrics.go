package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the billing server: HTTP
// traffic, recorded payments and report query durations.
type Metrics struct {
	HTTPRequests      *prometheus.CounterVec   // requests by route, method and status
	HTTPDuration      *prometheus.HistogramVec // request latency by route
	PaymentsRecorded  *prometheus.CounterVec   // recorded payments by method
	AmountCollected   *prometheus.CounterVec   // collected amount by method
	DuplicatePeriods  prometheus.Counter       // payments recorded for an already paid period
	ReportDuration    *prometheus.HistogramVec // report generation by report name
	EventPublishFails prometheus.Counter       // payment.recorded publish failures
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "billing_http_requests_total",
			Help: "Total number of handled HTTP requests",
		}, []string{"route", "method", "status"}),
		HTTPDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billing_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		PaymentsRecorded: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "billing_payments_recorded_total",
			Help: "Total number of recorded payments",
		}, []string{"method"}), // method: Cash, Online
		AmountCollected: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "billing_amount_collected_total",
			Help: "Sum of recorded payment amounts",
		}, []string{"method"}),
		DuplicatePeriods: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "billing_duplicate_period_payments_total",
			Help: "Payments recorded for a billing period the customer had already paid",
		}),
		ReportDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "billing_report_duration_seconds",
			Help: "Duration of report generation.",
		}, []string{"report"}), // report: outstanding, collections, collections_xlsx, dashboard
		EventPublishFails: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "billing_event_publish_failures_total",
			Help: "Failed payment.recorded publications",
		}),
	}
}
