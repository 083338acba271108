package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"embedd/internal/embed"
	"embedd/internal/manager"
	"embedd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// badRequest is a validation failure detected in the request layer.
type badRequest struct{ msg string }

func (e badRequest) Error() string   { return e.msg }
func (e badRequest) StatusCode() int { return http.StatusBadRequest }

// errShuttingDown rejects work that has not reached the model by the time
// the server starts draining.
var errShuttingDown = shuttingDown{}

type shuttingDown struct{}

func (shuttingDown) Error() string   { return "server shutting down" }
func (shuttingDown) StatusCode() int { return http.StatusServiceUnavailable }

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode()
	case manager.IsLoadFailure(err), manager.IsDependencyUnavailable(err):
		return http.StatusServiceUnavailable
	case embed.IsInferenceFailure(err):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeJSON writes v with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
