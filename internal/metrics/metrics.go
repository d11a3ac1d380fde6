package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminderd_runs_total",
			Help: "Reminder pipeline runs by outcome",
		},
		[]string{"status"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reminderd_run_duration_seconds",
			Help:    "Wall-clock duration of one pipeline run",
			Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	dueReminders = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminderd_due_reminders_total",
			Help: "Due (payment, occurrence, tenant) reminders computed",
		},
	)

	suppressedReminders = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminderd_suppressed_reminders_total",
			Help: "Reminders dropped because the sent-log already had them",
		},
	)

	paymentsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminderd_payments_skipped_total",
			Help: "Payments excluded from a run by reason",
		},
		[]string{"reason"},
	)

	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminderd_dispatch_total",
			Help: "Per-tenant notification dispatch outcomes",
		},
		[]string{"status"},
	)

	queueConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminderd_queue_consumed_total",
			Help: "Reminder queue messages consumed by outcome",
		},
		[]string{"status"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminderd_http_requests_total",
			Help: "Ops endpoint requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRun records the outcome and duration of one pipeline run
func RecordRun(status string, duration time.Duration) {
	runsTotal.WithLabelValues(status).Inc()
	runDuration.Observe(duration.Seconds())
}

// RecordDueReminders adds the size of a run's due set
func RecordDueReminders(n int) {
	dueReminders.Add(float64(n))
}

// RecordSuppressed records one reminder dropped by the sent-log
func RecordSuppressed() {
	suppressedReminders.Inc()
}

// RecordPaymentSkipped records a payment excluded from a run
func RecordPaymentSkipped(reason string) {
	paymentsSkipped.WithLabelValues(reason).Inc()
}

// RecordDispatch records a per-tenant dispatch outcome
func RecordDispatch(status string) {
	dispatchTotal.WithLabelValues(status).Inc()
}

// RecordQueueConsumed records a consumed reminder queue message
func RecordQueueConsumed(status string) {
	queueConsumed.WithLabelValues(status).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns HTTP middleware that records request metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(wrapped.status)).Inc()
	})
}
