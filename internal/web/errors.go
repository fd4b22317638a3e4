package web

// errors.go provides unified error responses for the API.
//
// Every error is logged server-side with its technical cause and request ID,
// and the client receives the mapped user message from core.MapError. The
// top-level "error" field carries the endpoint's fixed message so existing
// clients keep working.

import (
	"net/http"

	"github.com/JonMunkholm/roster/internal/core"
	"github.com/JonMunkholm/roster/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code,omitempty"`
}

// respondError logs err and writes a JSON error. summary replaces the
// mapped message in the "error" field when non-empty.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int, summary string) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if summary == "" {
		summary = userMsg.Message
	}
	writeJSON(w, status, ErrorResponse{
		Error:   summary,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}
