// Package metrics exposes the Prometheus instrumentation for the watcher.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sjsage522/gpuwatcher/logger"
)

var (
	FetchAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpuwatcher_fetch_attempts_total",
			Help: "Total number of search fetch attempts, labeled by outcome.",
		},
		[]string{"outcome"},
	)
	OffersAdmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpuwatcher_offers_admitted_total",
			Help: "Total number of offers that passed filtering and deduplication.",
		},
		[]string{"sku"},
	)
	NotificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gpuwatcher_notifications_sent_total",
			Help: "Total number of notifications successfully dispatched.",
		},
	)
	NotificationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gpuwatcher_notification_failures_total",
			Help: "Total number of notification dispatches that failed.",
		},
	)
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gpuwatcher_run_duration_seconds",
			Help:    "Duration of one full monitoring run across all targets.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(FetchAttempts)
	prometheus.MustRegister(OffersAdmitted)
	prometheus.MustRegister(NotificationsSent)
	prometheus.MustRegister(NotificationFailures)
	prometheus.MustRegister(RunDuration)
}

// Expose serves the Prometheus metrics endpoint. Blocks; run in a goroutine.
func Expose(addr string) {
	log := logger.ForComponent("metrics")
	log.Info().Str("addr", addr).Msg("Exposing Prometheus metrics")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server stopped")
	}
}
