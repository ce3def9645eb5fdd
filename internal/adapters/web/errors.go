package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"livestock-ops/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeDomainError maps the core error taxonomy onto HTTP statuses:
// validation 400, not-found 404, invalid-state 409, forbidden 403,
// everything else 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case core.IsNotFound(err):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case core.IsInvalidState(err):
		writeError(w, r, err.Error(), "INVALID_STATE", http.StatusConflict)
	case errors.Is(err, core.ErrForbidden):
		writeError(w, r, "operation not permitted for this role", "FORBIDDEN", http.StatusForbidden)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
