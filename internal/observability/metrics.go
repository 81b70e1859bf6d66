package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce              sync.Once
	requestsTotal             *prometheus.CounterVec
	latencySeconds            *prometheus.HistogramVec
	errorsTotal               *prometheus.CounterVec
	registrationsTotal        *prometheus.CounterVec
	quizAttemptsTotal         *prometheus.CounterVec
	paymentRetryAttemptsTotal *prometheus.CounterVec
	graceEscalationsTotal     prometheus.Counter
	notificationsEnqueued     *prometheus.CounterVec
	notificationsDispatched   *prometheus.CounterVec
	batchRunSeconds           *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutela_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tutela_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutela_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		registrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutela_registrations_total",
			Help: "Registration submissions by role and outcome.",
		}, []string{"role", "outcome"})

		quizAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutela_quiz_attempts_total",
			Help: "Submitted quiz attempts by result.",
		}, []string{"result"})

		paymentRetryAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutela_payment_retry_attempts_total",
			Help: "Payment retry attempts by outcome.",
		}, []string{"outcome"})

		graceEscalationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutela_grace_escalations_total",
			Help: "Billing accounts escalated into grace period.",
		})

		notificationsEnqueued = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutela_notifications_enqueued_total",
			Help: "Notification jobs enqueued by template.",
		}, []string{"template"})

		notificationsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutela_notifications_dispatched_total",
			Help: "Notification jobs handed to the broker by outcome.",
		}, []string{"outcome"})

		batchRunSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tutela_batch_run_seconds",
			Help:    "Duration of scheduled batch runs.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"job"})

		prometheus.MustRegister(
			requestsTotal,
			latencySeconds,
			errorsTotal,
			registrationsTotal,
			quizAttemptsTotal,
			paymentRetryAttemptsTotal,
			graceEscalationsTotal,
			notificationsEnqueued,
			notificationsDispatched,
			batchRunSeconds,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// Registrations exposes the registration submission counter.
func Registrations() *prometheus.CounterVec {
	RegisterMetrics()
	return registrationsTotal
}

// QuizAttempts exposes the quiz attempt counter.
func QuizAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return quizAttemptsTotal
}

// PaymentRetryAttempts exposes the payment retry counter.
func PaymentRetryAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return paymentRetryAttemptsTotal
}

// GraceEscalations exposes the grace-period escalation counter.
func GraceEscalations() prometheus.Counter {
	RegisterMetrics()
	return graceEscalationsTotal
}

// NotificationsEnqueued exposes the enqueue counter.
func NotificationsEnqueued() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsEnqueued
}

// NotificationsDispatched exposes the dispatch counter.
func NotificationsDispatched() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsDispatched
}

// BatchRunDuration exposes the batch run histogram.
func BatchRunDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return batchRunSeconds
}
