// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uptick_http_requests_total",
		Help: "Total number of HTTP requests served",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "uptick_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uptick_fetch_total",
		Help: "Catalog fetches by outcome",
	}, []string{"result"})

	FilteredMovies = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "uptick_filtered_movies",
		Help:    "Number of movies left after the filter pipeline",
		Buckets: []float64{0, 1, 4, 8, 20, 50, 100},
	})
)

// Fetch outcomes
const (
	FetchOK    = "ok"
	FetchError = "error"
	FetchCache = "cache"
)

// ObserveFiltered records the filtered list size of a rendered page. Views
// that are not ready have no filtered list and are skipped.
func ObserveFiltered(ready bool, matched int) {
	if ready {
		FilteredMovies.Observe(float64(matched))
	}
}
