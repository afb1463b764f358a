package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// Note: prometheus/promauto registers metrics globally, so each test uses a
// unique namespace to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_arxivmcp_new")

	assert.NotNil(t, m.RPCRequestsTotal)
	assert.NotNil(t, m.RPCErrorsTotal)
	assert.NotNil(t, m.SearchesStarted)
	assert.NotNil(t, m.SearchesCompleted)
	assert.NotNil(t, m.SearchesFailed)
	assert.NotNil(t, m.SearchDuration)
	assert.NotNil(t, m.PapersFound)
	assert.NotNil(t, m.PapersNew)
	assert.NotNil(t, m.LookupsTotal)
	assert.NotNil(t, m.LookupMisses)
}

func TestRecordRPCRequest(t *testing.T) {
	m := NewMetrics("test_rpc_request")

	m.RecordRPCRequest("tools/call")
	m.RecordRPCRequest("tools/call")
	m.RecordRPCRequest("tools/list")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RPCRequestsTotal.WithLabelValues("tools/call")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCRequestsTotal.WithLabelValues("tools/list")))
}

func TestRecordRPCError(t *testing.T) {
	m := NewMetrics("test_rpc_error")

	m.RecordRPCError("tools/call", "-32602")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCErrorsTotal.WithLabelValues("tools/call", "-32602")))
}

func TestRecordSearchLifecycle(t *testing.T) {
	m := NewMetrics("test_search_lifecycle")

	m.RecordSearchStarted("search_papers")
	m.RecordSearchCompleted("search_papers", 5, 2, 0.8)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchesStarted.WithLabelValues("search_papers")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchesCompleted.WithLabelValues("search_papers")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.PapersFound))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PapersNew))
}

func TestRecordSearchFailed(t *testing.T) {
	m := NewMetrics("test_search_failed")

	m.RecordSearchFailed("search_papers", 1.2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchesFailed.WithLabelValues("search_papers")))
}

func TestRecordCacheLoadFailure(t *testing.T) {
	m := NewMetrics("test_cache_load_failure")

	m.RecordCacheLoadFailure()
	m.RecordCacheLoadFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLoadFailures))
}

func TestRecordLookup(t *testing.T) {
	m := NewMetrics("test_lookup")

	m.RecordLookup(true)
	m.RecordLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LookupsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LookupMisses))
}
