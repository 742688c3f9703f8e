// Package metrics exposes Prometheus metrics for the pharmacie API:
// HTTP traffic, rate limiting and catalogue reloads. All collectors are
// registered with the default registry at init.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Number of client buckets held by the rate limiter",
		},
	)

	CatalogueSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalogue_medicaments",
			Help: "Number of medicaments in the served catalogue",
		},
	)

	CatalogueOutOfStock = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalogue_out_of_stock",
			Help: "Number of medicaments with a zero quantite",
		},
	)

	CatalogueReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_reload_total",
			Help: "Catalogue reload attempts by result",
		},
		[]string{"result"},
	)

	CatalogueReloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalogue_reload_duration_seconds",
			Help:    "Time spent loading and swapping the catalogue",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBucketsTotal,
		CatalogueSize,
		CatalogueOutOfStock,
		CatalogueReloads,
		CatalogueReloadDuration,
	)
}
