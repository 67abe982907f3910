package cacheaside

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamecatalog",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache lookups by collection and result (hit, miss, corrupt).",
		},
		[]string{"collection", "result"},
	)

	cacheInvalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamecatalog",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Cache key removals after writes by collection and result (ok, failed).",
		},
		[]string{"collection", "result"},
	)
)

// Collectors returns the metrics the coordinators update, for registration
// with a prometheus.Registerer.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{cacheRequests, cacheInvalidations}
}
