package httpserver

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/DavidFarrell/render-mcp-arxiv/internal/search"
)

// searchPapersArgs are the arguments of the search_papers tool.
type searchPapersArgs struct {
	// Query is the main search term or topic.
	Query string `json:"query" validate:"required"`
	// MaxResults is the maximum number of results to retrieve (default 5).
	MaxResults int `json:"max_results,omitempty" validate:"omitempty,gt=0"`
	// SortBy is the sort criterion (relevance, submitted_date, last_updated_date).
	SortBy string `json:"sort_by,omitempty"`
	// SortOrder is ascending or descending.
	SortOrder string `json:"sort_order,omitempty"`
	// SearchField restricts the term to one arXiv field.
	SearchField string `json:"search_field,omitempty"`
	// DateFrom is the start date for filtering, YYYYMMDD.
	DateFrom string `json:"date_from,omitempty" validate:"omitempty,len=8,numeric"`
	// DateTo is the end date for filtering, YYYYMMDD.
	DateTo string `json:"date_to,omitempty" validate:"omitempty,len=8,numeric"`
	// AuthorSearch adds an author clause on top of the primary term.
	AuthorSearch string `json:"author_search,omitempty"`
}

// searchByAuthorArgs are the arguments of the search_by_author tool.
type searchByAuthorArgs struct {
	// AuthorName is the full name of the author to search for.
	AuthorName string `json:"author_name" validate:"required"`
	// MaxResults is the maximum number of results (default 10).
	MaxResults int `json:"max_results,omitempty" validate:"omitempty,gt=0"`
	// SortBy is the sort criterion (default submitted_date).
	SortBy string `json:"sort_by,omitempty"`
}

// searchRecentArgs are the arguments of the search_recent_papers tool.
type searchRecentArgs struct {
	// Topic is the research topic to search for.
	Topic string `json:"topic" validate:"required"`
	// DaysBack is the number of days to look back (default 7).
	DaysBack int `json:"days_back,omitempty" validate:"omitempty,gt=0"`
	// MaxResults is the maximum number of results (default 10).
	MaxResults int `json:"max_results,omitempty" validate:"omitempty,gt=0"`
}

// extractInfoArgs are the arguments of the extract_info tool.
type extractInfoArgs struct {
	// PaperID is the short arXiv ID of the paper to look for.
	PaperID string `json:"paper_id" validate:"required"`
}

// toolDescriptor describes one tool in a tools/list response.
type toolDescriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// toolContent is one content block of a tools/call result.
type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// toolCallResult is the result payload of a tools/call response.
type toolCallResult struct {
	Content []toolContent `json:"content"`
}

// mustSchemaFor derives a JSON schema from an argument struct. Argument
// structs are fixed at compile time, so a derivation failure is a
// programming error.
func mustSchemaFor[T any]() *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(err)
	}
	return schema
}

// toolList is the static tool registry served by tools/list. The four names
// here are the complete dispatchable set.
var toolList = []toolDescriptor{
	{
		Name:        search.ToolSearchPapers,
		Description: "Enhanced search for papers on arXiv with advanced filtering options",
		InputSchema: mustSchemaFor[searchPapersArgs](),
	},
	{
		Name:        search.ToolSearchByAuthor,
		Description: "Simplified tool specifically for author searches",
		InputSchema: mustSchemaFor[searchByAuthorArgs](),
	},
	{
		Name:        search.ToolSearchRecentPapers,
		Description: "Search for recent papers on a topic within the last N days",
		InputSchema: mustSchemaFor[searchRecentArgs](),
	},
	{
		Name:        search.ToolExtractInfo,
		Description: "Search for information about a specific paper across all topic directories",
		InputSchema: mustSchemaFor[extractInfoArgs](),
	},
}

// toolDescriptors returns the static tool registry.
func toolDescriptors() []toolDescriptor {
	return toolList
}
