package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	quizSubmissionsTotal  *prometheus.CounterVec
	certificatesTotal     prometheus.Counter
	incentiveRunsTotal    *prometheus.CounterVec
	bulkRowsTotal         *prometheus.CounterVec
	emailDeliveriesTotal  *prometheus.CounterVec
	callbackRequestsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olympiad_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "olympiad_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olympiad_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		quizSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olympiad_quiz_submissions_total",
			Help: "Quiz submissions by test type.",
		}, []string{"type"})

		certificatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "olympiad_certificates_issued_total",
			Help: "Certificates issued for perfect live scores.",
		})

		incentiveRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olympiad_incentive_recalculations_total",
			Help: "Coordinator incentive recalculations by trigger.",
		}, []string{"trigger"})

		bulkRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olympiad_bulk_rows_total",
			Help: "Rows processed by bulk imports.",
		}, []string{"entity", "outcome"})

		emailDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olympiad_email_deliveries_total",
			Help: "Transactional email deliveries by template and outcome.",
		}, []string{"template", "outcome"})

		callbackRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olympiad_callback_requests_total",
			Help: "Callback requests by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			quizSubmissionsTotal,
			certificatesTotal,
			incentiveRunsTotal,
			bulkRowsTotal,
			emailDeliveriesTotal,
			callbackRequestsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// QuizSubmissions counts stored quiz attempts.
func QuizSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return quizSubmissionsTotal
}

// CertificatesIssued counts issued certificates.
func CertificatesIssued() prometheus.Counter {
	RegisterMetrics()
	return certificatesTotal
}

// IncentiveRecalculations counts incentive runs.
func IncentiveRecalculations() *prometheus.CounterVec {
	RegisterMetrics()
	return incentiveRunsTotal
}

// BulkRows counts imported and rejected roster rows.
func BulkRows() *prometheus.CounterVec {
	RegisterMetrics()
	return bulkRowsTotal
}

// EmailDeliveries counts mail sends.
func EmailDeliveries() *prometheus.CounterVec {
	RegisterMetrics()
	return emailDeliveriesTotal
}

// CallbackRequests counts public callback submissions.
func CallbackRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return callbackRequestsTotal
}

// MetricsHandler serves the default registry in the Prometheus text format.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	}))
}
