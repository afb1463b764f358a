package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidFarrell/render-mcp-arxiv/internal/domain"
)

func TestStore_ListTopics(t *testing.T) {
	t.Run("sorted by slug with counts", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Merge("zebra_stripes", []*domain.PaperRecord{paper("id-a", "A")})
		require.NoError(t, err)
		_, err = s.Merge("ant_colonies", []*domain.PaperRecord{paper("id-b", "B"), paper("id-c", "C")})
		require.NoError(t, err)

		topics, err := s.ListTopics()
		require.NoError(t, err)
		require.Len(t, topics, 2)
		assert.Equal(t, TopicInfo{Slug: "ant_colonies", PaperCount: 2}, topics[0])
		assert.Equal(t, TopicInfo{Slug: "zebra_stripes", PaperCount: 1}, topics[1])
	})

	t.Run("missing root yields empty list", func(t *testing.T) {
		s := New("does_not_exist_anywhere", zerolog.Nop(), nil)

		topics, err := s.ListTopics()
		require.NoError(t, err)
		assert.Empty(t, topics)
	})
}

func TestStore_FoldersReport(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		s := newTestStore(t)

		report, err := s.FoldersReport()
		require.NoError(t, err)
		assert.Contains(t, report, "# Available Research Topics")
		assert.Contains(t, report, "No research topics found")
	})

	t.Run("lists topics as a table", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Merge("machine_learning", []*domain.PaperRecord{paper("id-a", "A"), paper("id-b", "B")})
		require.NoError(t, err)

		report, err := s.FoldersReport()
		require.NoError(t, err)
		assert.Contains(t, report, "| Machine Learning | 2 papers | `@machine_learning` |")
		assert.Contains(t, report, "**Total Topics**: 1")
	})
}

func TestStore_TopicReport(t *testing.T) {
	t.Run("unknown topic suggests searching", func(t *testing.T) {
		s := newTestStore(t)

		report, err := s.TopicReport("quantum computing")
		require.NoError(t, err)
		assert.Contains(t, report, "# No papers found for topic: quantum computing")
		assert.Contains(t, report, "`search_papers`")
	})

	t.Run("groups papers by year descending", func(t *testing.T) {
		s := newTestStore(t)
		older := paper("id-old", "Older Paper")
		older.Published = "2019-03-01"
		newer := paper("id-new", "Newer Paper")
		newer.Published = "2024-01-15"
		_, err := s.Merge("quantum_computing", []*domain.PaperRecord{older, newer})
		require.NoError(t, err)

		report, err := s.TopicReport("quantum computing")
		require.NoError(t, err)

		assert.Contains(t, report, "# Papers on Quantum Computing")
		assert.Contains(t, report, "**Total papers**: 2")
		pos2024 := strings.Index(report, "## 2024")
		pos2019 := strings.Index(report, "## 2019")
		require.GreaterOrEqual(t, pos2024, 0)
		require.GreaterOrEqual(t, pos2019, 0)
		assert.Less(t, pos2024, pos2019)
	})

	t.Run("topic cannot escape the storage root", func(t *testing.T) {
		base := t.TempDir()
		s := New(filepath.Join(base, "papers"), zerolog.Nop(), nil)

		outsideDir := filepath.Join(base, "secret")
		require.NoError(t, os.MkdirAll(outsideDir, 0o755))
		outside := map[string]*domain.PaperRecord{
			"id-x": {Title: "Outside Root", Published: "2024-01-01"},
		}
		data, err := json.Marshal(outside)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(outsideDir, "papers_info.json"), data, 0o644))

		for _, topic := range []string{"../secret", `..\secret`, "../../secret"} {
			report, err := s.TopicReport(topic)
			require.NoError(t, err)
			assert.NotContains(t, report, "Outside Root")
			assert.Contains(t, report, "No papers found for topic")
		}
	})

	t.Run("truncates long abstracts", func(t *testing.T) {
		s := newTestStore(t)
		p := paper("id-a", "A")
		p.Summary = strings.Repeat("x", 500)
		_, err := s.Merge("quantum", []*domain.PaperRecord{p})
		require.NoError(t, err)

		report, err := s.TopicReport("quantum")
		require.NoError(t, err)
		assert.Contains(t, report, strings.Repeat("x", 300)+"...")
		assert.NotContains(t, report, strings.Repeat("x", 301))
	})

	t.Run("abbreviates long author lists", func(t *testing.T) {
		s := newTestStore(t)
		p := paper("id-a", "A")
		p.Authors = []string{"One", "Two", "Three", "Four", "Five"}
		_, err := s.Merge("quantum", []*domain.PaperRecord{p})
		require.NoError(t, err)

		report, err := s.TopicReport("quantum")
		require.NoError(t, err)
		assert.Contains(t, report, "One, Two, Three")
		assert.Contains(t, report, "et al.")
		assert.NotContains(t, report, "Four")
	})
}
