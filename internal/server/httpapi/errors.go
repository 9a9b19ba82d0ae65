package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophtodo/internal/common"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeWeakPassword   = "weak_password"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

// Fixed messages for failures whose underlying error must not reach the
// client.
const (
	msgNotAuthenticated   = "You are not authenticated."
	msgInvalidCredentials = "Invalid username or password."
	msgInternal           = "internal server error"
)

// response is the envelope of every successful response.
type response struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeData writes the success envelope.
func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, response{Message: message, Data: data})
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, msgInternal)
}

// writeServiceError maps a service error onto its HTTP status. Messages of
// client errors are produced by the services themselves; authentication
// failures and unexpected errors get fixed messages and are logged instead.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorUnauthenticated):
		s.logger.Debug(r.Context(), "authentication failed", "error", err, "request_id", requestID(r))
		writeUnauthorized(w, msgNotAuthenticated)
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeUnauthorized(w, msgInvalidCredentials)
	case errors.Is(err, common.ErrorWeakCredentials):
		writeError(w, http.StatusBadRequest, ErrCodeWeakPassword, err.Error())
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, common.ErrorConflict):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		s.logger.Error(r.Context(), "request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID(r),
		)
		writeInternalError(w)
	}
}
