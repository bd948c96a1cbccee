package onenote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// cacheLookups counts container cache lookups.
// Labels: result (hit, miss)
var cacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "okeears",
		Subsystem: "container_cache",
		Name:      "lookups_total",
		Help:      "Total number of container cache lookups",
	},
	[]string{"result"},
)
