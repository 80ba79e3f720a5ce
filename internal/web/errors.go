package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with full technical detail and the request id, then
// returned to the client as a mapped core.UserMessage. Raw error text never
// reaches the client.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/sheetnotify/internal/core"
	"github.com/JonMunkholm/sheetnotify/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
// A run that stopped part way also reports what it got through.
type ErrorResponse struct {
	Error     string               `json:"error"`
	Message   string               `json:"message"`
	Action    string               `json:"action,omitempty"`
	Code      string               `json:"code"`
	Missing   []string             `json:"missing,omitempty"`
	RunID     string               `json:"runId,omitempty"`
	Processed *int                 `json:"processed,omitempty"`
	Failures  []core.RecordFailure `json:"failures,omitempty"`
}

func newErrorResponse(msg core.UserMessage) ErrorResponse {
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// statusFor picks the HTTP status for a run or preview error.
func statusFor(err error) int {
	var mce *core.MissingColumnError
	var re *core.ReadError
	switch {
	case errors.As(err, &mce):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrRunInProgress):
		return http.StatusConflict
	case errors.As(err, &re):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// executeStatusFor picks the HTTP status for a failed run. Read failures are
// reported as 500 on this route; only missing columns are a client error.
func executeStatusFor(err error) int {
	var re *core.ReadError
	if errors.As(err, &re) {
		return http.StatusInternalServerError
	}
	return statusFor(err)
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, statusFor(err), err, nil)
}

// writeError logs err and writes the mapped user message with status.
// partial, when set, is the result of a run that ended early.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error, partial *core.RunResult) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	resp := newErrorResponse(userMsg)
	var mce *core.MissingColumnError
	if errors.As(err, &mce) {
		resp.Error = mce.Error()
		resp.Missing = mce.Missing
	}
	if partial != nil {
		processed := partial.Processed
		resp.RunID = partial.RunID
		resp.Processed = &processed
		resp.Failures = partial.Failures
	}
	if status == http.StatusConflict {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, resp)
}
