package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nhlmetrics"

// Registry is the custom registry every metric of this module is registered
// on, keeping the default Go collectors out of dumps.
var Registry = prometheus.NewRegistry()

var auto = promauto.With(Registry)

// Cache metrics, labelled by tier ("session" or "durable").
var (
	CacheHits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache reads served from a tier.",
	}, []string{"tier"})

	CacheMisses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache reads that found nothing usable, including expired entries.",
	}, []string{"tier"})

	CacheEvictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Entries removed because they had expired or the tier was full.",
	}, []string{"tier"})

	CacheErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "errors_total",
		Help:      "Storage failures behind a tier, by operation.",
	}, []string{"tier", "op"})
)

// Aggregation metrics.
var (
	GamesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "aggregator",
		Name:      "games_processed_total",
		Help:      "Games folded into accumulators.",
	})

	GamesSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "aggregator",
		Name:      "games_skipped_total",
		Help:      "Games left out of a pass, by reason.",
	}, []string{"reason"})

	EventsFolded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "aggregator",
		Name:      "events_folded_total",
		Help:      "Shot events folded into accumulators.",
	})

	RecordsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "normalize",
		Name:      "records_dropped_total",
		Help:      "Malformed play or shift records skipped during normalization.",
	})
)

// SourceRequests counts raw data source requests by endpoint and HTTP status.
var SourceRequests = auto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "source",
	Name:      "requests_total",
	Help:      "Requests made to the raw data source.",
}, []string{"endpoint", "status"})
