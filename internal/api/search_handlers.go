package api

import (
	"net/http"
	"strconv"

	"github.com/inkwellapp/inkwell-server/internal/http/response"
	"github.com/inkwellapp/inkwell-server/internal/search"
)

// handleSearch runs a full-text query over the library.
// Query params: q, format, language, limit, offset, sort, order.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := search.DefaultParams()
	params.Query = q.Get("q")
	params.Format = q.Get("format")
	params.Language = q.Get("language")

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 100 {
			response.BadRequest(w, "Invalid limit parameter", s.logger)
			return
		}
		params.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			response.BadRequest(w, "Invalid offset parameter", s.logger)
			return
		}
		params.Offset = offset
	}
	if v := q.Get("sort"); v != "" {
		params.SortBy = v
	}
	if v := q.Get("order"); v != "" {
		params.SortOrder = v
	}

	result, err := s.searchIndex.Search(r.Context(), params)
	if err != nil {
		s.logger.Error("Search failed", "error", err, "query", params.Query)
		response.InternalError(w, "Search failed", s.logger)
		return
	}

	response.Success(w, result, s.logger)
}
