// Package metrics exposes Prometheus instruments for the web UI and its API calls.
package metrics

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spamui_api_request_duration_seconds",
		Help:    "Latency of calls to the prediction API",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})

	predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spamui_predictions_total",
		Help: "Single-text predictions by label",
	}, []string{"label"})

	batchRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spamui_batch_result_rows_total",
		Help: "Result rows received from batch submissions",
	})

	uploadsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spamui_uploads_rejected_total",
		Help: "CSV uploads rejected before submission, by reason",
	}, []string{"reason"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spamui_sessions_active",
		Help: "Browser sessions currently held in memory",
	})
)

// ObserveAPICall records one outbound API call.
func ObserveAPICall(endpoint string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	apiRequestDuration.WithLabelValues(endpoint, outcome).Observe(elapsed.Seconds())
}

// RecordPrediction counts a successful single-text prediction.
func RecordPrediction(label string) {
	if label == "" {
		label = "unknown"
	}
	predictions.WithLabelValues(label).Inc()
}

// RecordBatch counts result rows from a batch submission.
func RecordBatch(rows int) {
	batchRows.Add(float64(rows))
}

// RecordRejectedUpload counts an upload rejected by local validation.
func RecordRejectedUpload(reason string) {
	uploadsRejected.WithLabelValues(reason).Inc()
}

// SetActiveSessions reports the current session count.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// Handler serves the default registry in the Prometheus text format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
