package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultql/internal/apperr"
	"github.com/starford/vaultql/internal/noteservice"
)

// maxQueryBody bounds POST /query request bodies.
const maxQueryBody = 64 << 10

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL (everything after /notes/).
// Supports encoded slashes (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNotes handles GET /api/notes.
//
//	@Summary	List notes in scan order
//	@Tags		notes
//	@Produce	json
//	@Param		limit	query		int	false	"Maximum rows"
//	@Success	200		{object}	NoteListResponse
//	@Security	BearerAuth
//	@Router		/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.svc.ListNotes(r.Context(), limit)
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary	Get a single note by its file_path
//	@Tags		notes
//	@Produce	json
//	@Param		path	path		string	true	"Note path"
//	@Success	200		{object}	NoteDetail
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Query handles POST /api/query.
//
//	@Summary	Run a read-only SQL statement
//	@Tags		query
//	@Accept		json
//	@Produce	json
//	@Param		body	body		QueryRequest	true	"Statement"
//	@Success	200		{object}	QueryResponse
//	@Failure	400		{object}	errResponse
//	@Failure	403		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/query [post]
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxQueryBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("sql is required"))
		return
	}
	res, err := h.svc.Query(r.Context(), req.SQL)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrReadOnly):
			writeError(w, err, "only read-only statements are allowed")
			return
		case errors.Is(err, apperr.ErrIO), errors.Is(err, apperr.ErrPathNotFound):
			writeError(w, err, "")
			return
		}
		// Anything else is a SQL error in the caller's statement.
		slog.Warn("query failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errResponse{Error: err.Error(), Code: "invalid_query"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Schema handles GET /api/schema.
//
//	@Summary	Describe the notes table
//	@Tags		query
//	@Produce	json
//	@Success	200	{object}	SchemaResponse
//	@Security	BearerAuth
//	@Router		/schema [get]
func (h *Handler) Schema(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Describe(r.Context())
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, info)
}
