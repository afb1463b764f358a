// Package search implements query construction for the arXiv API and the
// tool operations exposed over JSON-RPC.
package search

import (
	"fmt"
	"strings"

	"github.com/DavidFarrell/render-mcp-arxiv/internal/domain"
)

// slugMaxLen bounds the topic portion of a slug. An author suffix may be
// appended on top of this.
const slugMaxLen = 50

// sortCriteria maps lower-cased, underscore-stripped sort_by inputs to arXiv
// sort criteria. Anything not in the table resolves to relevance.
var sortCriteria = map[string]domain.SortCriterion{
	"relevance":       domain.SortRelevance,
	"submitted":       domain.SortSubmittedDate,
	"submitteddate":   domain.SortSubmittedDate,
	"updated":         domain.SortLastUpdatedDate,
	"lastupdated":     domain.SortLastUpdatedDate,
	"lastupdateddate": domain.SortLastUpdatedDate,
}

// sortOrders maps lower-cased sort_order inputs to arXiv sort orders.
// Anything not in the table resolves to descending.
var sortOrders = map[string]domain.SortOrder{
	"asc":        domain.OrderAscending,
	"ascending":  domain.OrderAscending,
	"desc":       domain.OrderDescending,
	"descending": domain.OrderDescending,
}

// fieldPrefixes maps search_field inputs to arXiv field codes. Unknown
// values (including "all") search every field, which means no prefix.
var fieldPrefixes = map[string]string{
	"title":    "ti",
	"author":   "au",
	"abstract": "abs",
	"category": "cat",
	"comment":  "co",
	"journal":  "jr",
}

// ResolveSortCriterion resolves a sort_by input leniently. It is total:
// unrecognized values fall back to relevance instead of failing.
func ResolveSortCriterion(sortBy string) domain.SortCriterion {
	key := strings.ReplaceAll(strings.ToLower(sortBy), "_", "")
	if c, ok := sortCriteria[key]; ok {
		return c
	}
	return domain.SortRelevance
}

// ResolveSortOrder resolves a sort_order input leniently, defaulting to
// descending.
func ResolveSortOrder(sortOrder string) domain.SortOrder {
	if o, ok := sortOrders[strings.ToLower(sortOrder)]; ok {
		return o
	}
	return domain.OrderDescending
}

// fieldPrefix returns the arXiv field code for a search_field input, or ""
// when the term should not be prefixed.
func fieldPrefix(searchField string) string {
	return fieldPrefixes[strings.ToLower(searchField)]
}

// BuildProviderQuery translates a search request into a single arXiv query
// string. Present clauses are joined with " AND " in a fixed order: the
// field-prefixed primary term, the author clause, the submission date range.
func BuildProviderQuery(req domain.SearchRequest) string {
	parts := make([]string, 0, 3)

	if prefix := fieldPrefix(req.SearchField); prefix != "" {
		parts = append(parts, prefix+":"+req.Query)
	} else {
		parts = append(parts, req.Query)
	}

	if req.AuthorFilter != "" {
		author := strings.ToLower(strings.ReplaceAll(req.AuthorFilter, " ", "_"))
		parts = append(parts, "au:"+author)
	}

	if clause := dateClause(req.DateFrom, req.DateTo); clause != "" {
		parts = append(parts, clause)
	}

	return strings.Join(parts, " AND ")
}

// dateClause builds the inclusive submittedDate range clause. The range
// covers 00:00 on the from-date through 23:59 on the to-date; an absent
// bound is open ("*").
func dateClause(from, to string) string {
	if from == "" && to == "" {
		return ""
	}
	lower := "*"
	if from != "" {
		lower = from + "0000"
	}
	upper := "*"
	if to != "" {
		upper = to + "2359"
	}
	return fmt.Sprintf("submittedDate:[%s TO %s]", lower, upper)
}

// slugReplacer maps spaces and path separators to underscores so slugs are
// safe to use as directory names on every platform.
var slugReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// TopicSlug derives the filesystem-safe storage key for a search. The query
// is lower-cased, spaces and path separators become underscores, and the
// result is truncated to slugMaxLen runes. When an author filter is present
// a "_by_<author>" suffix is appended with the author's case preserved.
func TopicSlug(query, authorFilter string) string {
	slug := slugReplacer.Replace(strings.ToLower(query))
	if runes := []rune(slug); len(runes) > slugMaxLen {
		slug = string(runes[:slugMaxLen])
	}
	if authorFilter != "" {
		slug += "_by_" + slugReplacer.Replace(authorFilter)
	}
	return slug
}
