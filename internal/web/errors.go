package web

// errors.go turns service errors into responses. Every error is logged with
// its technical detail and the request id, then answered with the
// user-facing message from core.MapError as JSON, or as an HTML fragment
// for HTMX requests. Parse and serialize failures also carry the engine's
// own message, which names the row and column or line and column.

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/dialect/internal/core"
	"github.com/JonMunkholm/dialect/internal/logging"
	"github.com/JonMunkholm/dialect/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
// Error is the engine's location-bearing message when there is one and
// Message otherwise.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// codeStatus overrides the status for codes that are not client input errors.
var codeStatus = map[string]int{
	"DB001":  http.StatusServiceUnavailable,
	"DB003":  http.StatusNotFound,
	"DB006":  http.StatusServiceUnavailable,
	"JOB001": http.StatusServiceUnavailable,
	"JOB002": http.StatusServiceUnavailable,
	"JOB003": http.StatusGatewayTimeout,
	"JOB004": http.StatusRequestEntityTooLarge,
	"ERR000": http.StatusInternalServerError,
}

// statusFor picks the HTTP status for an error code. Parse, serialize,
// encoding, option and table validation codes are client errors.
func statusFor(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	for _, prefix := range []string{"CSV", "XML", "ENC", "CFG", "DB"} {
		if strings.HasPrefix(code, prefix) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorResponse(w, r, err, isHTMX(r))
}

// respondPartialError is respondError that always answers with the HTML
// error fragment.
func (s *Server) respondPartialError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorResponse(w, r, err, true)
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, err error, partial bool) {
	userMsg := core.MapError(err)
	status := statusFor(userMsg.Code)
	detail := core.ErrorDetail(err)

	logger := logging.WithFields(r.Context(),
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", userMsg.Code,
		"error", err.Error(),
	)
	if status >= http.StatusInternalServerError {
		logger.Error("request error")
	} else {
		logger.Warn("request error")
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	if partial {
		renderErrorPartial(w, r, userMsg, detail, status)
		return
	}
	errText := detail
	if errText == "" {
		errText = userMsg.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, ErrorResponse{
		Error:   errText,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, detail string, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorAlert(msg.Message, detail, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error partial", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
