package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Calls to external lookup services
	LookupCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarquote_lookup_calls_total",
			Help: "Number of calls to external lookup services",
		},
		[]string{"service", "status"},
	)

	LookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solarquote_lookup_duration_seconds",
			Help:    "Duration of calls to external lookup services",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	// Quote requests by outcome: found, none, invalid, error
	Quotes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarquote_quotes_total",
			Help: "Number of quote requests by outcome",
		},
		[]string{"outcome"},
	)
)

func ObserveLookup(service string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LookupCalls.WithLabelValues(service, status).Inc()
	LookupDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}
