package web

// errors.go maps errors to user-facing responses.
//
// Handlers call respondError with the error they got. The error is logged
// with its technical detail and request ID, then rendered for the client as
// an alert fragment (htmx), JSON (API) or plain text.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvtable/internal/logging"
	"github.com/JonMunkholm/csvtable/internal/table"
)

var (
	errUnknownTable = errors.New("unknown table")
	errNotLoaded    = errors.New("table data not loaded yet")
	errBadPage      = errors.New("page index is not a number")
	errSourceFailed = errors.New("source read failed")
)

// UserMessage is the client-facing side of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Reference code
	Status  int
}

// ErrorResponse is the JSON body for API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errorMessages is checked in order; the first sentinel err wraps wins.
var errorMessages = []struct {
	target error
	msg    UserMessage
}{
	{errUnknownTable, UserMessage{
		Message: "That table does not exist",
		Action:  "Pick a table from the list",
		Code:    "TBL001",
		Status:  http.StatusNotFound,
	}},
	{table.ErrUnknownColumn, UserMessage{
		Message: "That column cannot be sorted",
		Action:  "Click one of the column headers",
		Code:    "TBL002",
		Status:  http.StatusBadRequest,
	}},
	{errNotLoaded, UserMessage{
		Message: "The table is still loading",
		Action:  "Try again in a moment",
		Code:    "TBL003",
		Status:  http.StatusServiceUnavailable,
	}},
	{errBadPage, UserMessage{
		Message: "That page does not exist",
		Action:  "Use the page links below the table",
		Code:    "TBL004",
		Status:  http.StatusBadRequest,
	}},
	{errSourceFailed, UserMessage{
		Message: "The table's data file could not be read",
		Action:  "Check the server logs and the data directory",
		Code:    "SRC001",
		Status:  http.StatusInternalServerError,
	}},
}

var defaultMessage = UserMessage{
	Message: "Something went wrong",
	Action:  "Try again; if it keeps happening, check the server logs",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

// MapError converts err to a user message.
func MapError(err error) UserMessage {
	for _, m := range errorMessages {
		if errors.Is(err, m.target) {
			return m.msg
		}
	}
	return defaultMessage
}

// respondError logs err and writes the mapped message in the format the
// client expects.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{"path", r.URL.Path, "method", r.Method, "status", msg.Status, "code", msg.Code, "error", err.Error()}
	if msg.Status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(msg.Status)
		ErrorAlert(msg).Render(r.Context(), w)
	case wantsJSON(r):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(msg.Status)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
	default:
		http.Error(w, msg.Message+" ("+msg.Code+")", msg.Status)
	}
}

// isHTMX checks if the request is an htmx swap.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
