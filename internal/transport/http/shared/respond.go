// Package shared holds response helpers used by every HTTP handler so error
// envelopes and JSON encoding stay uniform across the API surface.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "bulletin/pkg/domain-errors"
)

// errorResponse is the wire shape of every error the API returns.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError maps err onto an HTTP status and writes the error envelope.
// Client errors carry the domain message; server errors carry a generic one
// so internals never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	resp := errorResponse{Error: string(code)}
	if status < http.StatusInternalServerError {
		resp.Message = dErrors.MessageOf(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
