// Package store persists fetched paper records as per-topic JSON documents
// under a configured root directory.
//
// Each topic slug gets its own subdirectory holding a single papers_info.json
// document that maps short arXiv IDs to records. Documents are loaded
// permissively: a missing or malformed file is treated as an empty cache and
// never surfaced to callers.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/DavidFarrell/render-mcp-arxiv/internal/domain"
	"github.com/DavidFarrell/render-mcp-arxiv/internal/observability"
)

// documentName is the cache document filename inside each topic directory.
const documentName = "papers_info.json"

// Store is a file-backed cache of paper records grouped by topic slug.
// The read-modify-write sequence for a topic is serialized per slug, so
// concurrent merges into the same topic within one process cannot lose
// updates.
type Store struct {
	root    string
	logger  zerolog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// MergeResult reports the outcome of merging one provider result set into a
// topic cache.
type MergeResult struct {
	// PaperIDs lists every ID in the merged set, in provider rank order.
	PaperIDs []string

	// NewPapers counts the IDs that were not already cached.
	NewPapers int

	// Path is the cache document that was written.
	Path string
}

// New creates a store rooted at the given directory. The directory is
// created lazily on first merge. metrics may be nil to disable metric
// recording.
func New(root string, logger zerolog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		root:    root,
		logger:  logger.With().Str("component", "store").Logger(),
		metrics: metrics,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// DocumentPath returns the cache document path for a topic slug.
func (s *Store) DocumentPath(slug string) string {
	return filepath.Join(s.root, slug, documentName)
}

// topicLock returns the mutex guarding a topic's read-modify-write block.
func (s *Store) topicLock(slug string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[slug]
	if !ok {
		l = &sync.Mutex{}
		s.locks[slug] = l
	}
	return l
}

// Merge inserts the given records into the topic's cache document in order.
// Records whose ID is already cached are left untouched (first-write-wins);
// only absent IDs are inserted. The document is written even when nothing
// changed, so a topic touched for the first time always gets a file.
func (s *Store) Merge(slug string, records []*domain.PaperRecord) (*MergeResult, error) {
	lock := s.topicLock(slug)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Join(s.root, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating topic directory: %w", err)
	}

	path := filepath.Join(dir, documentName)
	cached := s.loadDocument(path)

	result := &MergeResult{
		PaperIDs: make([]string, 0, len(records)),
		Path:     path,
	}
	for _, rec := range records {
		result.PaperIDs = append(result.PaperIDs, rec.ID)
		if _, exists := cached[rec.ID]; exists {
			continue
		}
		cached[rec.ID] = rec
		result.NewPapers++
	}

	if err := s.writeDocument(path, cached); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("topic", slug).
		Int("returned", len(result.PaperIDs)).
		Int("new", result.NewPapers).
		Msg("merged papers into topic cache")

	return result, nil
}

// FindPaper scans every topic document under the root for the given paper ID
// and returns the first matching record as stored, provenance included.
// Malformed documents are skipped. Scan order is not guaranteed. Returns a
// domain.NotFoundError when no document contains the ID.
func (s *Store) FindPaper(id string) (*domain.PaperRecord, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewNotFoundError("paper", id)
		}
		return nil, fmt.Errorf("reading storage root: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.root, entry.Name(), documentName)
		records, err := readDocument(path)
		if err != nil {
			if !os.IsNotExist(err) {
				s.recordLoadFailure()
				s.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable topic document")
			}
			continue
		}
		if rec, ok := records[id]; ok {
			rec.ID = id
			return rec, nil
		}
	}

	return nil, domain.NewNotFoundError("paper", id)
}

// loadDocument reads a topic document, treating a missing or malformed file
// as an empty cache. Parse failures are logged and never propagated.
func (s *Store) loadDocument(path string) map[string]*domain.PaperRecord {
	records, err := readDocument(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.recordLoadFailure()
			s.logger.Warn().Err(err).Str("path", path).Msg("topic document unreadable, starting empty")
		}
		return make(map[string]*domain.PaperRecord)
	}
	return records
}

// recordLoadFailure bumps the cache load failure counter when metrics are
// enabled.
func (s *Store) recordLoadFailure() {
	if s.metrics != nil {
		s.metrics.RecordCacheLoadFailure()
	}
}

// readDocument parses a topic document from disk.
func readDocument(path string) (map[string]*domain.PaperRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records map[string]*domain.PaperRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if records == nil {
		records = make(map[string]*domain.PaperRecord)
	}
	return records, nil
}

// writeDocument persists a topic document atomically: the content is written
// to a temp file in the same directory and renamed over the previous one, so
// readers never observe a partial write.
func (s *Store) writeDocument(path string, records map[string]*domain.PaperRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding topic document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), documentName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp document: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp document: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing topic document: %w", err)
	}
	return nil
}
