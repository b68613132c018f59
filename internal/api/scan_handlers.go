package api

import (
	"context"
	"net/http"

	"github.com/inkwellapp/inkwell-server/internal/http/response"
	"github.com/inkwellapp/inkwell-server/internal/scanner"
)

// ScanStatusResponse reports whether a scan is in progress.
type ScanStatusResponse struct {
	Running bool `json:"running"`
}

// handleTriggerScan starts a library scan in the background.
// Query params: force=true re-ingests unchanged files.
func (s *Server) handleTriggerScan(w http.ResponseWriter, r *http.Request) {
	if s.scanner.Running() {
		response.Error(w, http.StatusConflict, "Scan already in progress", s.logger)
		return
	}

	force := r.URL.Query().Get("force") == "true"

	go func() {
		// Detached from the request; a scan outlives the HTTP call.
		result, err := s.scanner.Scan(context.Background(), s.libraryPath, scanner.ScanOptions{Force: force})
		if err != nil {
			s.logger.Error("Background scan failed", "error", err)
			return
		}
		s.logger.Info("Background scan finished",
			"added", result.Added,
			"updated", result.Updated,
			"removed", result.Removed,
		)
	}()

	response.JSON(w, http.StatusAccepted, ScanStatusResponse{Running: true}, s.logger)
}

// handleScanStatus reports whether a scan is running.
func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	response.Success(w, ScanStatusResponse{Running: s.scanner.Running()}, s.logger)
}
