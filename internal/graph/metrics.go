package graph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts Graph calls.
	// Labels: method, status (HTTP code or "error" for transport failures)
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "okeears",
			Subsystem: "graph",
			Name:      "requests_total",
			Help:      "Total number of Microsoft Graph requests",
		},
		[]string{"method", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "okeears",
			Subsystem: "graph",
			Name:      "request_duration_seconds",
			Help:      "Duration of Microsoft Graph requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)
