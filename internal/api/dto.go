package api

import (
	"github.com/starford/vaultql/internal/noteservice"
	"github.com/starford/vaultql/internal/store"
)

// QueryRequest is the request body for POST /query.
type QueryRequest struct {
	SQL string `json:"sql" example:"SELECT file_path FROM notes" validate:"required"`
}

// QueryResponse is a materialized query result.
type QueryResponse = store.Result

// NoteDetail is one note (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response.
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
}

// SchemaResponse describes the notes table.
type SchemaResponse = noteservice.TableInfo
