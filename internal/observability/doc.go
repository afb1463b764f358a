// Package observability provides logging and metrics support for the arXiv
// search service.
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("tool", "search_papers").Msg("tool called")
//
// # Metrics
//
// Initialize metrics and record events:
//
//	metrics := observability.NewMetrics("arxiv_mcp")
//	metrics.RecordSearchStarted("search_papers")
//	metrics.RecordSearchCompleted("search_papers", 5, 2, 0.42)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: JSON-RPC request correlation identifier
//   - tool: tool name (search_papers, search_by_author, ...)
//   - topic: topic cache slug
//   - paper_id: short arXiv identifier
//   - query: resolved provider query string
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
