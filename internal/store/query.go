package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/vaultql/internal/apperr"
)

// Result is a fully materialized query result.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Records returns the rows keyed by column name.
func (r *Result) Records() []map[string]any {
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		rec := make(map[string]any, len(r.Columns))
		for j, col := range r.Columns {
			rec[col] = row[j]
		}
		out[i] = rec
	}
	return out
}

// Column describes one column of the notes table.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

var readOnlyPrefixes = []string{"SELECT", "WITH", "VALUES", "EXPLAIN"}

// Query runs a read-only statement and materializes every row.
func (db *DB) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	if !isReadOnly(query) {
		return nil, fmt.Errorf("%w: %.40q", apperr.ErrReadOnly, query)
	}
	_ = db.takeScanErr()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.queryErr(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("store: columns: %w", err)
	}
	res := &Result{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, db.queryErr(err)
	}
	return res, nil
}

// queryErr prefers the typed error of a vault scan that failed during the
// query over the text SQLite relays for it.
func (db *DB) queryErr(err error) error {
	if scanErr := db.takeScanErr(); scanErr != nil {
		return fmt.Errorf("store: query: %w", scanErr)
	}
	return fmt.Errorf("store: query: %w", err)
}

// Notes returns up to limit rows of the notes table in scan order.
// A non-positive limit returns every row.
func (db *DB) Notes(ctx context.Context, limit int) (*Result, error) {
	q := fmt.Sprintf(`SELECT * FROM %s`, QuoteIdent(db.table))
	if limit > 0 {
		return db.Query(ctx, q+` LIMIT ?`, limit)
	}
	return db.Query(ctx, q)
}

// Columns describes the declared columns of the notes table.
func (db *DB) Columns(ctx context.Context) ([]Column, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT name, type FROM pragma_table_info(?, 'temp')`, db.table)
	if err != nil {
		return nil, fmt.Errorf("store: table info: %w", err)
	}
	defer rows.Close()

	var out []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Version returns the module version reported by SQL.
func (db *DB) Version(ctx context.Context) (string, error) {
	var v string
	if err := db.conn.QueryRowContext(ctx, `SELECT vaultql_version()`).Scan(&v); err != nil {
		return "", fmt.Errorf("store: version: %w", err)
	}
	return v, nil
}

func isReadOnly(query string) bool {
	q := strings.TrimSpace(query)
	for strings.HasPrefix(q, "--") {
		nl := strings.IndexByte(q, '\n')
		if nl < 0 {
			return false
		}
		q = strings.TrimSpace(q[nl+1:])
	}
	upper := strings.ToUpper(q)
	for _, p := range readOnlyPrefixes {
		if strings.HasPrefix(upper, p) && (len(upper) == len(p) || !isWordByte(upper[len(p)])) {
			return true
		}
	}
	return false
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

