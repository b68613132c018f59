package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()

	idx, err := NewIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func seedBooks(t *testing.T, idx *Index) {
	t.Helper()

	now := time.Now()
	books := []*domain.Book{
		{
			ID:     "book-dune",
			Title:  "Dune",
			Author: "Frank Herbert",
			Format: domain.FormatEPUB,
			Chapters: []domain.Chapter{
				{Title: "Chapter 1"},
				{Title: "Chapter 2"},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:       "book-journey",
			Title:    "西游记",
			Author:   "吴承恩",
			Format:   domain.FormatText,
			Language: "zh",
			Chapters: []domain.Chapter{
				{Title: "第一回 灵根育孕源流出"},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "book-whales",
			Title:       "Leviathan",
			Author:      "Sam Roberts",
			Description: "A natural history of whales",
			Format:      domain.FormatEPUB,
			Chapters: []domain.Chapter{
				{Title: "The Deep Sound Channel"},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	require.NoError(t, idx.IndexBooks(context.Background(), books))
}

func TestSearch_ByTitle(t *testing.T) {
	idx := newTestIndex(t)
	seedBooks(t, idx)

	result, err := idx.Search(context.Background(), Params{Query: "dune", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "book-dune", result.Hits[0].ID)
	assert.Equal(t, "Dune", result.Hits[0].Title)
	assert.Equal(t, "Frank Herbert", result.Hits[0].Author)
}

func TestSearch_ByAuthor(t *testing.T) {
	idx := newTestIndex(t)
	seedBooks(t, idx)

	result, err := idx.Search(context.Background(), Params{Query: "herbert", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "book-dune", result.Hits[0].ID)
}

func TestSearch_ByChapterTitle(t *testing.T) {
	idx := newTestIndex(t)
	seedBooks(t, idx)

	result, err := idx.Search(context.Background(), Params{Query: "channel", Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "book-whales", result.Hits[0].ID)
}

func TestSearch_FormatFilter(t *testing.T) {
	idx := newTestIndex(t)
	seedBooks(t, idx)

	result, err := idx.Search(context.Background(), Params{Format: domain.FormatText, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "book-journey", result.Hits[0].ID)
}

func TestSearch_MatchAllWhenEmpty(t *testing.T) {
	idx := newTestIndex(t)
	seedBooks(t, idx)

	result, err := idx.Search(context.Background(), Params{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), result.Total)
}

func TestDeleteBook(t *testing.T) {
	idx := newTestIndex(t)
	seedBooks(t, idx)

	require.NoError(t, idx.DeleteBook(context.Background(), "book-dune"))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestRebuild_EmptiesIndex(t *testing.T) {
	idx := newTestIndex(t)
	seedBooks(t, idx)

	require.NoError(t, idx.Rebuild())

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
