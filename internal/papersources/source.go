// Package papersources provides the client plumbing for querying academic
// paper APIs: a shared rate-limited HTTP client and the PaperSource
// interface implemented by provider clients.
package papersources

import (
	"context"
	"time"

	"github.com/DavidFarrell/render-mcp-arxiv/internal/domain"
)

// SearchParams defines a single provider search. The query string is fully
// constructed by the caller (field prefixes, author clause, date range); the
// provider client only transports it.
type SearchParams struct {
	// Query is the provider query string (required).
	Query string

	// MaxResults limits the number of papers returned. A value of 0 uses
	// the client's default limit.
	MaxResults int

	// SortBy is the resolved sort criterion.
	SortBy domain.SortCriterion

	// SortOrder is the resolved sort order.
	SortOrder domain.SortOrder
}

// SearchResult contains the papers returned for one search, in provider
// rank order.
type SearchResult struct {
	// Papers are the returned records, ranked by the provider.
	Papers []*domain.PaperRecord

	// TotalResults is the total number of matches reported by the provider,
	// regardless of MaxResults.
	TotalResults int

	// SearchDuration is the time taken to execute the search, including
	// network latency and response parsing.
	SearchDuration time.Duration
}

// PaperSource is the interface provider clients implement.
type PaperSource interface {
	// Search queries the source for papers matching the given parameters.
	// Provider ordering is authoritative rank order.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// GetByID retrieves a specific paper by its provider-assigned ID.
	// Returns domain.ErrNotFound if the paper does not exist.
	GetByID(ctx context.Context, id string) (*domain.PaperRecord, error)

	// Name returns a human-readable name for this source.
	Name() string
}
