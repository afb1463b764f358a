package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/DavidFarrell/render-mcp-arxiv/internal/domain"
)

// TopicInfo summarizes one topic directory under the storage root.
type TopicInfo struct {
	// Slug is the topic directory name.
	Slug string `json:"slug"`

	// PaperCount is the number of records in the topic document, zero when
	// the document is malformed.
	PaperCount int `json:"paper_count"`
}

// ListTopics returns every topic that has a cache document, sorted by slug.
// A missing root yields an empty list.
func (s *Store) ListTopics() ([]TopicInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading storage root: %w", err)
	}

	var topics []TopicInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.root, entry.Name(), documentName)
		records, err := readDocument(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			s.recordLoadFailure()
			s.logger.Warn().Err(err).Str("path", path).Msg("counting malformed topic document as empty")
			topics = append(topics, TopicInfo{Slug: entry.Name()})
			continue
		}
		topics = append(topics, TopicInfo{Slug: entry.Name(), PaperCount: len(records)})
	}

	sort.Slice(topics, func(i, j int) bool { return topics[i].Slug < topics[j].Slug })
	return topics, nil
}

// FoldersReport renders a markdown overview of all cached topics.
func (s *Store) FoldersReport() (string, error) {
	topics, err := s.ListTopics()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Available Research Topics\n\n")
	if len(topics) == 0 {
		fmt.Fprintf(&b, "No research topics found in `%s`.\n", s.root)
		b.WriteString("Use the `search_papers` tool to start collecting papers.\n")
		return b.String(), nil
	}

	fmt.Fprintf(&b, "**Storage Location**: `%s`\n\n", s.root)
	b.WriteString("| Topic | Paper Count | Access |\n")
	b.WriteString("|-------|-------------|--------|\n")
	for _, t := range topics {
		readable := titleCase(strings.ReplaceAll(t.Slug, "_", " "))
		fmt.Fprintf(&b, "| %s | %d papers | `@%s` |\n", readable, t.PaperCount, t.Slug)
	}
	fmt.Fprintf(&b, "\n**Total Topics**: %d\n", len(topics))
	b.WriteString("\n*Use @topic_name to access papers in that topic.*\n")
	return b.String(), nil
}

// topicReplacer normalizes a topic name into a slug. Path separators are
// replaced alongside spaces so a caller-supplied topic can never resolve to
// a document outside the storage root.
var topicReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// TopicReport renders a markdown report of all papers cached for one topic,
// grouped by publication year in descending order. The topic may be given as
// a slug or as a human-readable name with spaces.
func (s *Store) TopicReport(topic string) (string, error) {
	slug := topicReplacer.Replace(strings.ToLower(topic))
	path := s.DocumentPath(slug)

	records, err := readDocument(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("# No papers found for topic: %s\n\nTry searching for papers on this topic first using the `search_papers` tool.", topic), nil
		}
		return "", fmt.Errorf("reading topic document: %w", err)
	}

	type entry struct {
		id  string
		rec *domain.PaperRecord
	}
	byYear := make(map[string][]entry)
	for id, rec := range records {
		year := "unknown"
		if len(rec.Published) >= 4 {
			year = rec.Published[:4]
		}
		byYear[year] = append(byYear[year], entry{id: id, rec: rec})
	}

	years := make([]string, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))

	var b strings.Builder
	fmt.Fprintf(&b, "# Papers on %s\n\n", titleCase(strings.ReplaceAll(slug, "_", " ")))
	fmt.Fprintf(&b, "**Total papers**: %d\n", len(records))
	fmt.Fprintf(&b, "**Storage location**: `%s`\n\n", path)

	for _, year := range years {
		entries := byYear[year]
		sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
		fmt.Fprintf(&b, "## %s (%d papers)\n\n", year, len(entries))

		for _, e := range entries {
			rec := e.rec
			fmt.Fprintf(&b, "### %s\n", rec.Title)
			fmt.Fprintf(&b, "- **Paper ID**: `%s`\n", e.id)
			fmt.Fprintf(&b, "- **Authors**: %s", formatAuthors(rec.Authors))
			b.WriteString("\n")
			fmt.Fprintf(&b, "- **Published**: %s", rec.Published)
			if rec.Updated != "" && rec.Updated != rec.Published {
				fmt.Fprintf(&b, " (Updated: %s)", rec.Updated)
			}
			b.WriteString("\n")
			fmt.Fprintf(&b, "- **Category**: %s\n", valueOr(rec.PrimaryCategory, "N/A"))
			fmt.Fprintf(&b, "- **PDF**: [Download PDF](%s)\n", rec.PDFURL)
			fmt.Fprintf(&b, "- **arXiv**: [View on arXiv](%s)\n\n", valueOr(rec.EntryID, "#"))
			fmt.Fprintf(&b, "**Abstract**: %s\n\n", truncate(rec.Summary, 300))
			b.WriteString("---\n\n")
		}
	}

	return b.String(), nil
}

// formatAuthors renders up to three author names with an et-al marker.
func formatAuthors(authors []string) string {
	if len(authors) <= 3 {
		return strings.Join(authors, ", ")
	}
	return fmt.Sprintf("%s *et al.* (%d total)", strings.Join(authors[:3], ", "), len(authors))
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// titleCase upper-cases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
