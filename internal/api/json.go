package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/vaultql/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// errorStatus maps a service error to its HTTP status and a stable code.
// Unknown errors map to 500 and must not leak their text.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrReadOnly):
		return http.StatusForbidden, "read_only"
	case errors.Is(err, apperr.ErrPathNotFound), errors.Is(err, apperr.ErrIO):
		return http.StatusServiceUnavailable, "vault_unavailable"
	case apperr.IsArgument(err):
		return http.StatusBadRequest, "invalid_argument"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError writes err with the status from errorStatus. msg replaces the
// error text in the body when set. Server-side failures never carry the error
// text, which names vault paths.
func writeError(w http.ResponseWriter, err error, msg string) {
	status, code := errorStatus(err)
	if msg == "" {
		switch status {
		case http.StatusServiceUnavailable:
			msg = "vault unavailable"
		case http.StatusInternalServerError:
			msg = "internal error"
		default:
			msg = err.Error()
		}
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", slog.String("code", code), slog.String("error", err.Error()))
	}
	writeJSON(w, status, errResponse{Error: msg, Code: code})
}
