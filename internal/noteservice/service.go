// Package noteservice answers note lookups and ad-hoc SQL over the notes
// table for the HTTP and MCP frontends.
package noteservice

import (
	"context"
	"fmt"

	"github.com/starford/vaultql/internal/apperr"
	"github.com/starford/vaultql/internal/models"
	"github.com/starford/vaultql/internal/store"
)

// DefaultLimit caps list responses when the caller gives no limit.
const DefaultLimit = 100

// NoteDetail is one row of the notes table, base columns split out.
type NoteDetail struct {
	Path       string            `json:"path"`
	Content    string            `json:"content"`
	Properties map[string]string `json:"properties,omitempty"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path       string            `json:"path"`
	Properties map[string]string `json:"properties,omitempty"`
}

// TableInfo describes the notes table.
type TableInfo struct {
	Table   string         `json:"table"`
	Columns []store.Column `json:"columns"`
	Version string         `json:"version"`
}

// Querier is the subset of *store.DB the service depends on.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*store.Result, error)
	Notes(ctx context.Context, limit int) (*store.Result, error)
	Columns(ctx context.Context) ([]store.Column, error)
	Version(ctx context.Context) (string, error)
	Table() string
}

var _ Querier = (*store.DB)(nil)

// Service runs read-only lookups against the notes table.
type Service struct {
	db Querier
}

// NewService creates a new note service.
func NewService(db Querier) *Service {
	return &Service{db: db}
}

// ListNotes returns up to limit notes in scan order.
func (s *Service) ListNotes(ctx context.Context, limit int) ([]NoteListItem, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	res, err := s.db.Notes(ctx, limit)
	if err != nil {
		return nil, err
	}
	recs := res.Records()
	items := make([]NoteListItem, len(recs))
	for i, rec := range recs {
		d := toDetail(rec)
		items[i] = NoteListItem{Path: d.Path, Properties: d.Properties}
	}
	return items, nil
}

// GetNote returns the note whose file_path equals path. The table is still
// scanned in full; SQLite applies the predicate.
func (s *Service) GetNote(ctx context.Context, path string) (*NoteDetail, error) {
	q := fmt.Sprintf(`SELECT * FROM %s WHERE %s = ? LIMIT 1`, store.QuoteIdent(s.db.Table()), models.ColumnFilePath)
	res, err := s.db.Query(ctx, q, path)
	if err != nil {
		return nil, err
	}
	recs := res.Records()
	if len(recs) == 0 {
		return nil, apperr.ErrNotFound
	}
	d := toDetail(recs[0])
	return &d, nil
}

// Query runs an arbitrary read-only statement.
func (s *Service) Query(ctx context.Context, query string) (*store.Result, error) {
	return s.db.Query(ctx, query)
}

// Describe reports the table name, its columns and the module version.
func (s *Service) Describe(ctx context.Context) (*TableInfo, error) {
	cols, err := s.db.Columns(ctx)
	if err != nil {
		return nil, err
	}
	v, err := s.db.Version(ctx)
	if err != nil {
		return nil, err
	}
	return &TableInfo{Table: s.db.Table(), Columns: cols, Version: v}, nil
}

func toDetail(rec map[string]any) NoteDetail {
	var d NoteDetail
	for col, v := range rec {
		s, ok := v.(string)
		if !ok {
			if v == nil {
				continue
			}
			s = fmt.Sprint(v)
		}
		switch col {
		case models.ColumnFilePath:
			d.Path = s
		case models.ColumnFileContents:
			d.Content = s
		default:
			if d.Properties == nil {
				d.Properties = make(map[string]string)
			}
			d.Properties[col] = s
		}
	}
	return d
}
