package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Invalid:
		return http.StatusBadRequest
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.Unavailable:
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

// Error writes err as a JSON error body. Errors without a kind are logged
// and reported as a bare internal error.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == "" {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		JSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal error"})

		return
	}

	if kind == apperr.Unavailable {
		slog.Warn("dependency unavailable", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	JSON(w, StatusFor(kind), errorResponse{Error: string(kind), Message: apperr.Message(err)})
}

func Unauthorized(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: msg})
}

func Forbidden(w http.ResponseWriter) {
	JSON(w, http.StatusForbidden, errorResponse{Error: "forbidden", Message: "not allowed"})
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(apperr.Invalid, err, "invalid request body")
	}

	return nil
}

// ID parses the named URL parameter as a UUID.
func ID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Newf(apperr.Invalid, "invalid %s", name)
	}

	return id, nil
}

// QueryID parses an optional UUID query parameter.
func QueryID(r *http.Request, name string) (*uuid.UUID, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return nil, apperr.Newf(apperr.Invalid, "invalid %s", name)
	}

	return &id, nil
}

// QueryDate parses an optional YYYY-MM-DD query parameter.
func QueryDate(r *http.Request, name string) (*time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, apperr.Newf(apperr.Invalid, "invalid %s, expected YYYY-MM-DD", name)
	}

	return &t, nil
}

// QueryInt parses an optional integer query parameter, returning 0 when absent.
func QueryInt(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Newf(apperr.Invalid, "invalid %s", name)
	}

	return n, nil
}
