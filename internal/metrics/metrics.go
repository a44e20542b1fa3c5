// Package metrics exposes Prometheus counters for the submission pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Total number of contact-form submissions by result",
		},
		[]string{"result"},
	)

	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_dispatch_total",
			Help: "Total number of dispatch attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_dispatch_duration_seconds",
			Help:    "Time spent handing a message to the provider",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	attachmentsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_attachments_rejected_total",
			Help: "Total number of attachments rejected by extension",
		},
	)

	cleanupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_cleanup_total",
			Help: "Total number of staged upload removals by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordSubmission records a finished pipeline run.
func RecordSubmission(result string) {
	submissionsTotal.WithLabelValues(result).Inc()
}

// RecordDispatch records a provider send and its duration.
func RecordDispatch(provider, outcome string, duration time.Duration) {
	dispatchTotal.WithLabelValues(provider, outcome).Inc()
	dispatchDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordAttachmentRejected records a guard rejection.
func RecordAttachmentRejected() {
	attachmentsRejectedTotal.Inc()
}

// RecordCleanup records a staged upload removal ("removed" or "failed").
func RecordCleanup(outcome string) {
	cleanupTotal.WithLabelValues(outcome).Inc()
}

// Handler returns the Prometheus metrics handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
