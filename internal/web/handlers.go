package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/sheetnotify/internal/core"
	"github.com/JonMunkholm/sheetnotify/internal/logging"
)

// handleHealthz reports liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePreview returns the current table with row positions.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	preview, err := s.service.Preview(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleExecute runs one reconciliation pass and returns its result.
//
// The run is detached from client cancellation: a browser closing the tab
// must not stop a run between a send and its marker write. The service's
// run timeout still bounds it.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := withRunMetadata(context.WithoutCancel(r.Context()), r)

	result, err := s.service.Execute(ctx)
	if err != nil {
		// A run cut short by its timeout still reports what it did.
		var partial *core.RunResult
		if result != nil && !core.IsRunFatal(err) && !errors.Is(err, core.ErrRunInProgress) {
			partial = result
			logging.FromContext(r.Context()).Warn("run ended early",
				"run_id", result.RunID,
				"processed", result.Processed,
				"error", err,
			)
		}
		s.writeError(w, r, executeStatusFor(err), err, partial)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleStatus returns whether a run is active and the last run's outcome.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Status())
}
