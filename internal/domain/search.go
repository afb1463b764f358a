package domain

// SortCriterion is an arXiv API sort criterion value.
type SortCriterion string

// Sort criteria understood by the arXiv API.
const (
	SortRelevance       SortCriterion = "relevance"
	SortSubmittedDate   SortCriterion = "submittedDate"
	SortLastUpdatedDate SortCriterion = "lastUpdatedDate"
)

// SortOrder is an arXiv API sort order value.
type SortOrder string

// Sort orders understood by the arXiv API.
const (
	OrderAscending  SortOrder = "ascending"
	OrderDescending SortOrder = "descending"
)

// SearchRequest is a caller-supplied search, immutable per call. Enum-like
// fields (SortBy, SortOrder, SearchField) are kept as raw strings and
// resolved leniently at query-build time; unrecognized values fall back to
// documented defaults rather than failing the call.
type SearchRequest struct {
	// Query is the main search term or topic.
	Query string

	// MaxResults limits the number of papers returned by the provider.
	MaxResults int

	// SortBy is the sort criterion (relevance, submitted_date,
	// last_updated_date). Default: relevance.
	SortBy string

	// SortOrder is ascending or descending. Default: descending.
	SortOrder string

	// SearchField restricts the term to one arXiv field (title, author,
	// abstract, category, comment, journal). Default: all.
	SearchField string

	// DateFrom and DateTo bound the submission date range, YYYYMMDD.
	// Empty means an open bound. If both are set, DateFrom <= DateTo is
	// the caller's responsibility.
	DateFrom string
	DateTo   string

	// AuthorFilter adds an author clause on top of the primary term.
	AuthorFilter string
}

// DateRange returns the provenance form of the date bounds, or "" when no
// bound is set.
func (r SearchRequest) DateRange() string {
	if r.DateFrom == "" && r.DateTo == "" {
		return ""
	}
	return r.DateFrom + " to " + r.DateTo
}

// SearchParameters echoes the request back to the caller in a search result.
type SearchParameters struct {
	OriginalQuery string `json:"original_query"`
	SortBy        string `json:"sort_by"`
	SortOrder     string `json:"sort_order"`
	SearchField   string `json:"search_field"`
	AuthorSearch  string `json:"author_search,omitempty"`
	DateFrom      string `json:"date_from,omitempty"`
	DateTo        string `json:"date_to,omitempty"`
	MaxResults    int    `json:"max_results"`
}

// SearchResult is the summary returned to the caller after a search has been
// executed and its papers merged into the topic cache.
type SearchResult struct {
	// PaperIDs lists every ID the provider returned for this call, in
	// provider rank order, not just the newly cached ones.
	PaperIDs []string `json:"paper_ids"`

	// TotalFound is len(PaperIDs).
	TotalFound int `json:"total_found"`

	// NewPapers counts the IDs inserted into the cache by this call.
	NewPapers int `json:"new_papers"`

	// SearchQuery is the resolved provider query string.
	SearchQuery string `json:"search_query"`

	SearchParameters SearchParameters `json:"search_parameters"`

	// StoragePath is the cache document that received the merge.
	StoragePath string `json:"storage_path"`

	// Message is a one-line human-readable summary.
	Message string `json:"message"`
}
