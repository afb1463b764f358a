package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/DavidFarrell/render-mcp-arxiv/internal/domain"
	"github.com/DavidFarrell/render-mcp-arxiv/internal/observability"
	"github.com/DavidFarrell/render-mcp-arxiv/internal/papersources"
	"github.com/DavidFarrell/render-mcp-arxiv/internal/store"
)

// Tool names as exposed over JSON-RPC.
const (
	ToolSearchPapers       = "search_papers"
	ToolSearchByAuthor     = "search_by_author"
	ToolSearchRecentPapers = "search_recent_papers"
	ToolExtractInfo        = "extract_info"
)

// Default request parameters, matching the tool descriptors.
const (
	DefaultMaxResults       = 5
	DefaultAuthorMaxResults = 10
	DefaultRecentMaxResults = 10
	DefaultDaysBack         = 7
)

// Service executes the four tool operations: it builds provider queries,
// runs them against a paper source, and merges results into the topic cache.
type Service struct {
	source  papersources.PaperSource
	store   *store.Store
	logger  zerolog.Logger
	metrics *observability.Metrics

	// now is swappable for recency-window tests.
	now func() time.Time
}

// NewService creates a tool service. metrics may be nil to disable metric
// recording.
func NewService(source papersources.PaperSource, st *store.Store, logger zerolog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		source:  source,
		store:   st,
		logger:  logger.With().Str("component", "search-service").Logger(),
		metrics: metrics,
		now:     time.Now,
	}
}

// SearchPapers runs a provider search and merges the results into the
// topic cache derived from the request's query and author filter.
func (s *Service) SearchPapers(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	start := time.Now()
	s.searchStarted(ToolSearchPapers)
	result, err := s.searchAndMerge(ctx, req)
	s.searchFinished(ToolSearchPapers, result, err, time.Since(start))
	return result, err
}

// SearchByAuthor is an author-only search: a wildcard term restricted to the
// author field with the author filter set, sorted by submission date.
func (s *Service) SearchByAuthor(ctx context.Context, authorName string, maxResults int, sortBy string) (*domain.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = DefaultAuthorMaxResults
	}
	if sortBy == "" {
		sortBy = string(domain.SortSubmittedDate)
	}

	start := time.Now()
	s.searchStarted(ToolSearchByAuthor)
	result, err := s.searchAndMerge(ctx, domain.SearchRequest{
		Query:        "*",
		MaxResults:   maxResults,
		SortBy:       sortBy,
		SearchField:  "author",
		AuthorFilter: authorName,
	})
	s.searchFinished(ToolSearchByAuthor, result, err, time.Since(start))
	return result, err
}

// SearchRecentPapers searches a topic within the last daysBack days, newest
// first.
func (s *Service) SearchRecentPapers(ctx context.Context, topic string, daysBack, maxResults int) (*domain.SearchResult, error) {
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}
	if maxResults <= 0 {
		maxResults = DefaultRecentMaxResults
	}

	end := s.now()
	begin := end.AddDate(0, 0, -daysBack)

	start := time.Now()
	s.searchStarted(ToolSearchRecentPapers)
	result, err := s.searchAndMerge(ctx, domain.SearchRequest{
		Query:      topic,
		MaxResults: maxResults,
		SortBy:     string(domain.SortSubmittedDate),
		SortOrder:  string(domain.OrderDescending),
		DateFrom:   begin.Format("20060102"),
		DateTo:     end.Format("20060102"),
	})
	s.searchFinished(ToolSearchRecentPapers, result, err, time.Since(start))
	return result, err
}

// ExtractInfo looks a paper up across every topic cache. It never consults
// the provider. A miss is reported via found=false, not an error.
func (s *Service) ExtractInfo(ctx context.Context, paperID string) (*domain.PaperRecord, bool, error) {
	rec, err := s.store.FindPaper(paperID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if s.metrics != nil {
				s.metrics.RecordLookup(false)
			}
			s.logger.Debug().Str("paper_id", paperID).Msg("paper not found in any topic cache")
			return nil, false, nil
		}
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.RecordLookup(true)
	}
	return rec, true, nil
}

// searchAndMerge is the shared pipeline: resolve sorts, build the provider
// query and topic slug, fetch, attach provenance, merge, summarize.
func (s *Service) searchAndMerge(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	if req.MaxResults <= 0 {
		req.MaxResults = DefaultMaxResults
	}

	providerQuery := BuildProviderQuery(req)
	slug := TopicSlug(req.Query, req.AuthorFilter)
	logger := observability.WithSearchContext(s.logger, slug, providerQuery)

	result, err := s.source.Search(ctx, papersources.SearchParams{
		Query:      providerQuery,
		MaxResults: req.MaxResults,
		SortBy:     ResolveSortCriterion(req.SortBy),
		SortOrder:  ResolveSortOrder(req.SortOrder),
	})
	if err != nil {
		logger.Error().Err(err).Msg("provider search failed")
		return nil, fmt.Errorf("searching %s: %w", s.source.Name(), err)
	}

	provenance := &domain.Provenance{
		Query:        req.Query,
		SortBy:       req.SortBy,
		SearchField:  req.SearchField,
		AuthorSearch: req.AuthorFilter,
		DateRange:    req.DateRange(),
	}
	for _, rec := range result.Papers {
		rec.SearchParams = provenance
	}

	merged, err := s.store.Merge(slug, result.Papers)
	if err != nil {
		logger.Error().Err(err).Msg("cache merge failed")
		return nil, fmt.Errorf("merging topic %q: %w", slug, err)
	}

	logger.Info().
		Int("total_found", len(merged.PaperIDs)).
		Int("new_papers", merged.NewPapers).
		Msg("search completed")

	return &domain.SearchResult{
		PaperIDs:    merged.PaperIDs,
		TotalFound:  len(merged.PaperIDs),
		NewPapers:   merged.NewPapers,
		SearchQuery: providerQuery,
		SearchParameters: domain.SearchParameters{
			OriginalQuery: req.Query,
			SortBy:        req.SortBy,
			SortOrder:     req.SortOrder,
			SearchField:   req.SearchField,
			AuthorSearch:  req.AuthorFilter,
			DateFrom:      req.DateFrom,
			DateTo:        req.DateTo,
			MaxResults:    req.MaxResults,
		},
		StoragePath: merged.Path,
		Message: fmt.Sprintf("Found %d papers (%d new). Results saved to %s",
			len(merged.PaperIDs), merged.NewPapers, merged.Path),
	}, nil
}

func (s *Service) searchStarted(tool string) {
	if s.metrics != nil {
		s.metrics.RecordSearchStarted(tool)
	}
}

// searchFinished updates the outcome metrics for one tool invocation.
func (s *Service) searchFinished(tool string, result *domain.SearchResult, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	if err != nil {
		s.metrics.RecordSearchFailed(tool, elapsed.Seconds())
		return
	}
	s.metrics.RecordSearchCompleted(tool, result.TotalFound, result.NewPapers, elapsed.Seconds())
}
