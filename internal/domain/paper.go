// Package domain contains the core types for the arXiv search service.
package domain

// PaperRecord is an immutable snapshot of a single arXiv paper as returned
// by the provider. The JSON shape matches the on-disk cache documents: one
// object per paper keyed by its short arXiv ID, so the ID itself is not
// serialized inside the record.
type PaperRecord struct {
	// ID is the short arXiv identifier (e.g. "2301.12345v1"). It is the map
	// key in cache documents and is restored from the key on load.
	ID string `json:"-"`

	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Summary         string   `json:"summary"`
	PDFURL          string   `json:"pdf_url"`
	Published       string   `json:"published"`
	Updated         string   `json:"updated"`
	Categories      []string `json:"categories"`
	PrimaryCategory string   `json:"primary_category"`
	EntryID         string   `json:"entry_id"`

	// SearchParams records the search that first fetched this paper.
	SearchParams *Provenance `json:"search_params,omitempty"`
}

// Provenance echoes the search parameters that produced a cached record.
type Provenance struct {
	Query        string `json:"query"`
	SortBy       string `json:"sort_by"`
	SearchField  string `json:"search_field"`
	AuthorSearch string `json:"author_search,omitempty"`
	DateRange    string `json:"date_range,omitempty"`
}
