// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opticost_quotes_total",
			Help: "Total number of quotes computed",
		},
		[]string{"service"},
	)

	QuoteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "opticost_quote_duration_seconds",
			Help:    "Duration of quote requests in seconds, logistics lookup included",
			Buckets: prometheus.DefBuckets,
		},
	)

	LogisticsFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opticost_logistics_failures_total",
			Help: "Total number of failed logistics lookups by category",
		},
		[]string{"category"},
	)

	RateSheetLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opticost_rate_sheet_loads_total",
			Help: "Total number of rate sheet loads by sheet and outcome",
		},
		[]string{"sheet", "outcome"},
	)
)

// ObserveQuote records one computed quote
func ObserveQuote(service string, started time.Time) {
	QuotesTotal.WithLabelValues(service).Inc()
	QuoteDuration.Observe(time.Since(started).Seconds())
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
