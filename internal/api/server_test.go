package api

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/http/response"
	"github.com/inkwellapp/inkwell-server/internal/ingest"
	"github.com/inkwellapp/inkwell-server/internal/ratelimit"
	"github.com/inkwellapp/inkwell-server/internal/scanner"
	"github.com/inkwellapp/inkwell-server/internal/search"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testEnv struct {
	server  *Server
	store   *store.Store
	search  *search.Index
	library string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := testLogger()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idx, err := search.NewIndex(search.Options{DataPath: t.TempDir(), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	library := t.TempDir()
	sc := scanner.NewScanner(st, ingest.New(nil, logger), nil, logger)

	server := NewServer(Options{
		Store:       st,
		SearchIndex: idx,
		Scanner:     sc,
		LibraryPath: library,
		Logger:      logger,
	})

	return &testEnv{server: server, store: st, search: idx, library: library}
}

func (e *testEnv) seedBook(t *testing.T, id, title string) *domain.Book {
	t.Helper()

	book := &domain.Book{
		ID:     id,
		Title:  title,
		Author: "Test Author",
		Format: domain.FormatText,
		Path:   "/library/" + id + ".txt",
		Chapters: []domain.Chapter{
			{Title: "Chapter 1", Content: "first chapter text", StartLine: 0},
			{Title: "Chapter 2", Content: "second chapter text", StartLine: 5},
		},
	}
	require.NoError(t, e.store.CreateBook(context.Background(), book))
	require.NoError(t, e.search.IndexBook(context.Background(), book))
	return book
}

func (e *testEnv) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	env2 := decodeEnvelope(t, rec)
	assert.True(t, env2.Success)
}

func TestListBooks(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, "book-1", "First")
	env.seedBook(t, "book-2", "Second")

	rec := env.do(t, http.MethodGet, "/api/v1/books")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data struct {
			Items []domain.Book `json:"items"`
		} `json:"data"`
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.True(t, payload.Success)
	assert.Len(t, payload.Data.Items, 2)
	// List responses strip chapter contents.
	require.NotEmpty(t, payload.Data.Items[0].Chapters)
	assert.Empty(t, payload.Data.Items[0].Chapters[0].Content)
}

func TestListBooks_InvalidLimit(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/books?limit=banana")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBook(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, "book-1", "First")

	rec := env.do(t, http.MethodGet, "/api/v1/books/book-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data domain.Book `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "First", payload.Data.Title)
	assert.Equal(t, "first chapter text", payload.Data.Chapters[0].Content)
}

func TestGetBook_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/books/book-missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env2 := decodeEnvelope(t, rec)
	assert.False(t, env2.Success)
	assert.NotEmpty(t, env2.Error)
}

func TestDeleteBook(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, "book-1", "First")

	rec := env.do(t, http.MethodDelete, "/api/v1/books/book-1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/books/book-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListChapters(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, "book-1", "First")

	rec := env.do(t, http.MethodGet, "/api/v1/books/book-1/chapters")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data []ChapterSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Data, 2)
	assert.Equal(t, 0, payload.Data[0].Index)
	assert.Equal(t, "Chapter 1", payload.Data[0].Title)
	assert.Equal(t, 5, payload.Data[1].StartLine)
}

func TestGetChapter(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, "book-1", "First")

	rec := env.do(t, http.MethodGet, "/api/v1/books/book-1/chapters/1")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data domain.Chapter `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "second chapter text", payload.Data.Content)
}

func TestGetChapter_OutOfRange(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, "book-1", "First")

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/books/book-1/chapters/7").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/books/book-1/chapters/x").Code)
}

func TestGetCover_Missing(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, "book-1", "First")

	rec := env.do(t, http.MethodGet, "/api/v1/books/book-1/cover")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook(t, "book-1", "The Silent Ocean")
	env.seedBook(t, "book-2", "Mountain Paths")

	rec := env.do(t, http.MethodGet, "/api/v1/search?q=ocean")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data search.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Data.Hits)
	assert.Equal(t, "book-1", payload.Data.Hits[0].ID)
}

func TestSearch_InvalidLimit(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/search?q=x&limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/search?q=x&offset=-1").Code)
}

func TestTriggerScan(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/library/scan")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/library/scan")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t)

	limited := NewServer(Options{
		Store:       env.store,
		SearchIndex: env.search,
		Scanner:     scanner.NewScanner(env.store, ingest.New(nil, testLogger()), nil, testLogger()),
		LibraryPath: env.library,
		Limiter:     ratelimit.New(1, 2),
		Logger:      testLogger(),
	})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/library/scan", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2], fmt.Sprintf("codes: %v", codes))

	// Routes outside the library group are not throttled.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
