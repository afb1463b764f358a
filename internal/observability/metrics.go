package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the arXiv search service.
// Metrics are organized by subsystem: JSON-RPC transport, tool searches,
// cached papers, and cache lookups. All counters and histograms are
// registered via promauto for automatic registration with the default
// Prometheus registry.
type Metrics struct {
	// RPCRequestsTotal counts JSON-RPC requests, labeled by method.
	RPCRequestsTotal *prometheus.CounterVec

	// RPCErrorsTotal counts JSON-RPC error responses, labeled by method and error code.
	RPCErrorsTotal *prometheus.CounterVec

	// SearchesStarted counts search tool invocations, labeled by tool name.
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts successful search tool invocations, labeled by tool name.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts failed search tool invocations, labeled by tool name.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes search duration in seconds, labeled by tool name.
	SearchDuration *prometheus.HistogramVec

	// PapersFound counts the papers returned by the provider across all searches.
	PapersFound prometheus.Counter

	// PapersNew counts the papers newly inserted into topic caches.
	PapersNew prometheus.Counter

	// CacheLoadFailures counts topic documents that could not be parsed and
	// were recovered as empty.
	CacheLoadFailures prometheus.Counter

	// LookupsTotal counts extract_info cache lookups.
	LookupsTotal prometheus.Counter

	// LookupMisses counts extract_info lookups that found nothing.
	LookupMisses prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RPCRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Total number of JSON-RPC requests by method",
		}, []string{"method"}),
		RPCErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_errors_total",
			Help:      "Total number of JSON-RPC error responses by method and code",
		}, []string{"method", "code"}),

		SearchesStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of search tool invocations by tool",
		}, []string{"tool"}),
		SearchesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of search tool invocations that completed successfully",
		}, []string{"tool"}),
		SearchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of search tool invocations that failed",
		}, []string{"tool"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of search tool invocations in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"tool"}),

		PapersFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_found_total",
			Help:      "Total number of papers returned by the provider",
		}),
		PapersNew: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_new_total",
			Help:      "Total number of papers newly added to topic caches",
		}),

		CacheLoadFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_load_failures_total",
			Help:      "Total number of topic cache documents that failed to load",
		}),

		LookupsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Total number of extract_info cache lookups",
		}),
		LookupMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_misses_total",
			Help:      "Total number of extract_info lookups that found no cached paper",
		}),
	}
}

// RecordRPCRequest increments the request counter for a method.
func (m *Metrics) RecordRPCRequest(method string) {
	m.RPCRequestsTotal.WithLabelValues(method).Inc()
}

// RecordRPCError increments the error counter for a method and error code.
func (m *Metrics) RecordRPCError(method, code string) {
	m.RPCErrorsTotal.WithLabelValues(method, code).Inc()
}

// RecordSearchStarted increments the started counter for a tool.
func (m *Metrics) RecordSearchStarted(tool string) {
	m.SearchesStarted.WithLabelValues(tool).Inc()
}

// RecordSearchCompleted records a successful search with its paper counts
// and duration.
func (m *Metrics) RecordSearchCompleted(tool string, found, fresh int, durationSeconds float64) {
	m.SearchesCompleted.WithLabelValues(tool).Inc()
	m.SearchDuration.WithLabelValues(tool).Observe(durationSeconds)
	m.PapersFound.Add(float64(found))
	m.PapersNew.Add(float64(fresh))
}

// RecordSearchFailed records a failed search with its duration.
func (m *Metrics) RecordSearchFailed(tool string, durationSeconds float64) {
	m.SearchesFailed.WithLabelValues(tool).Inc()
	m.SearchDuration.WithLabelValues(tool).Observe(durationSeconds)
}

// RecordCacheLoadFailure records a topic document that could not be loaded.
func (m *Metrics) RecordCacheLoadFailure() {
	m.CacheLoadFailures.Inc()
}

// RecordLookup records an extract_info lookup and whether it hit.
func (m *Metrics) RecordLookup(found bool) {
	m.LookupsTotal.Inc()
	if !found {
		m.LookupMisses.Inc()
	}
}
