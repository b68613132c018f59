package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testBook(id, path string) *domain.Book {
	return &domain.Book{
		ID:     id,
		Title:  "Test Book " + id,
		Author: "Test Author",
		Format: domain.FormatText,
		Path:   path,
		Chapters: []domain.Chapter{
			{Title: "Chapter 1", Content: "content one", StartLine: 0},
			{Title: "Chapter 2", Content: "content two", StartLine: 10},
		},
	}
}

func TestCreateAndGetBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := testBook("book-1", "/library/one.txt")
	require.NoError(t, s.CreateBook(ctx, book))
	assert.False(t, book.CreatedAt.IsZero())

	got, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, book.Title, got.Title)
	assert.Equal(t, book.Path, got.Path)
	require.Len(t, got.Chapters, 2)
	assert.Equal(t, "content one", got.Chapters[0].Content)
}

func TestCreateBook_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, testBook("book-1", "/library/one.txt")))

	err := s.CreateBook(ctx, testBook("book-1", "/library/other.txt"))
	assert.ErrorIs(t, err, ErrBookExists)
}

func TestGetBook_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetBook(context.Background(), "book-missing")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestGetBookByPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, testBook("book-1", "/library/one.txt")))

	got, err := s.GetBookByPath(ctx, "/library/one.txt")
	require.NoError(t, err)
	assert.Equal(t, "book-1", got.ID)

	_, err = s.GetBookByPath(ctx, "/library/missing.txt")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestUpdateBook_PathIndexMoves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := testBook("book-1", "/library/old.txt")
	require.NoError(t, s.CreateBook(ctx, book))

	book.Path = "/library/new.txt"
	require.NoError(t, s.UpdateBook(ctx, book))

	got, err := s.GetBookByPath(ctx, "/library/new.txt")
	require.NoError(t, err)
	assert.Equal(t, "book-1", got.ID)

	_, err = s.GetBookByPath(ctx, "/library/old.txt")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestDeleteBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, testBook("book-1", "/library/one.txt")))
	require.NoError(t, s.DeleteBook(ctx, "book-1"))

	_, err := s.GetBook(ctx, "book-1")
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = s.GetBookByPath(ctx, "/library/one.txt")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestListBooks_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("book-%02d", i)
		path := fmt.Sprintf("/library/%02d.txt", i)
		require.NoError(t, s.CreateBook(ctx, testBook(id, path)))
	}

	page1, err := s.ListBooks(ctx, PaginationParams{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page1.Items, 2)
	assert.True(t, page1.HasMore)
	require.NotEmpty(t, page1.NextCursor)

	page2, err := s.ListBooks(ctx, PaginationParams{Limit: 2, Cursor: page1.NextCursor})
	require.NoError(t, err)
	assert.Len(t, page2.Items, 2)
	assert.True(t, page2.HasMore)

	page3, err := s.ListBooks(ctx, PaginationParams{Limit: 2, Cursor: page2.NextCursor})
	require.NoError(t, err)
	assert.Len(t, page3.Items, 1)
	assert.False(t, page3.HasMore)

	seen := make(map[string]bool)
	for _, page := range []*PaginatedResult[domain.Book]{page1, page2, page3} {
		for _, b := range page.Items {
			assert.False(t, seen[b.ID], "book %s returned twice", b.ID)
			seen[b.ID] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestListBooks_StripsChapterContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, testBook("book-1", "/library/one.txt")))

	page, err := s.ListBooks(ctx, DefaultPaginationParams())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Len(t, page.Items[0].Chapters, 2)
	assert.Empty(t, page.Items[0].Chapters[0].Content)
	assert.Equal(t, "Chapter 1", page.Items[0].Chapters[0].Title)
}

func TestAllBookPaths(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, testBook("book-1", "/library/one.txt")))
	require.NoError(t, s.CreateBook(ctx, testBook("book-2", "/library/two.txt")))

	paths, err := s.AllBookPaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"book-1": "/library/one.txt",
		"book-2": "/library/two.txt",
	}, paths)
}
