// Package metrics holds the prometheus collectors of the trip guide service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tripguide"

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "wizard_sessions_active",
		Help:      "Wizard sessions currently held in memory.",
	})

	Commits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wizard_commits_total",
		Help:      "Wizard commit attempts by outcome.",
	}, []string{"outcome"})

	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wizard_sessions_swept_total",
		Help:      "Idle wizard sessions abandoned by the sweeper.",
	})

	SlugConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slug_conflicts_total",
		Help:      "Trip inserts rejected by the slug unique constraint.",
	})

	MediaIngest = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_ingest_total",
		Help:      "Image ingestion attempts by source and outcome.",
	}, []string{"source", "outcome"})

	MediaKeyCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_key_collisions_total",
		Help:      "Durable storage puts that hit an existing key.",
	})

	TripStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trip_status_changes_total",
		Help:      "Date-driven trip status transitions by target status.",
	}, []string{"status"})

	CleanupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_failures_total",
		Help:      "Failed best-effort deletions by resource kind.",
	}, []string{"resource"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by status code and method.",
	}, []string{"code", "method"})
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument counts requests passing through h
func Instrument(h http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(HTTPRequests, h)
}
