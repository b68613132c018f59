package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/http/response"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// handleListBooks returns a paginated list of books without chapter contents.
// Query params: limit (default 100), cursor (opaque, from a previous page).
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	params := store.DefaultPaginationParams()
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(w, "Invalid limit parameter", s.logger)
			return
		}
		params.Limit = limit
	}
	params.Cursor = r.URL.Query().Get("cursor")

	page, err := s.store.ListBooks(r.Context(), params)
	if err != nil {
		s.logger.Error("Failed to list books", "error", err)
		response.InternalError(w, "Failed to list books", s.logger)
		return
	}

	response.Success(w, page, s.logger)
}

// handleGetBook returns a full book including chapter contents.
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, ok := s.bookFromRequest(w, r)
	if !ok {
		return
	}
	response.Success(w, book, s.logger)
}

// handleDeleteBook removes a book from the library database. The file on
// disk is left untouched.
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	if err := s.store.DeleteBook(r.Context(), bookID); err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			response.NotFound(w, "Book not found", s.logger)
			return
		}
		s.logger.Error("Failed to delete book", "error", err, "book_id", bookID)
		response.InternalError(w, "Failed to delete book", s.logger)
		return
	}

	response.NoContent(w)
}

// ChapterSummary is a chapter without its content, for listing.
type ChapterSummary struct {
	Index     int    `json:"index"`
	Title     string `json:"title"`
	StartLine int    `json:"startLine"`
}

// handleListChapters returns the chapter listing of a book.
func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	book, ok := s.bookFromRequest(w, r)
	if !ok {
		return
	}

	summaries := make([]ChapterSummary, len(book.Chapters))
	for i, ch := range book.Chapters {
		summaries[i] = ChapterSummary{
			Index:     i,
			Title:     ch.Title,
			StartLine: ch.StartLine,
		}
	}
	response.Success(w, summaries, s.logger)
}

// handleGetChapter returns one chapter with its content.
func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	book, ok := s.bookFromRequest(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		response.BadRequest(w, "Invalid chapter index", s.logger)
		return
	}
	if index < 0 || index >= len(book.Chapters) {
		response.NotFound(w, "Chapter not found", s.logger)
		return
	}

	response.Success(w, book.Chapters[index], s.logger)
}

// handleGetCover serves the stored cover image file.
func (s *Server) handleGetCover(w http.ResponseWriter, r *http.Request) {
	book, ok := s.bookFromRequest(w, r)
	if !ok {
		return
	}

	if book.CoverPath == "" {
		response.NotFound(w, "Book has no cover", s.logger)
		return
	}

	http.ServeFile(w, r, book.CoverPath)
}

// bookFromRequest loads the book named by the {id} URL parameter, writing
// the error response itself on failure.
func (s *Server) bookFromRequest(w http.ResponseWriter, r *http.Request) (*domain.Book, bool) {
	bookID := chi.URLParam(r, "id")
	if bookID == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return nil, false
	}

	book, err := s.store.GetBook(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			response.NotFound(w, "Book not found", s.logger)
			return nil, false
		}
		s.logger.Error("Failed to get book", "error", err, "book_id", bookID)
		response.InternalError(w, "Failed to retrieve book", s.logger)
		return nil, false
	}
	return book, true
}
