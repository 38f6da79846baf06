// Package cursor implements the forward-only row iterator driven by the
// SQLite host.
package cursor

import (
	"fmt"

	"github.com/starford/vaultql/internal/apperr"
	"github.com/starford/vaultql/internal/models"
	"github.com/starford/vaultql/internal/notes"
)

// Cursor walks a materialized record list once, top to bottom.
//
// position is 1-based once iteration has started. The constructor performs
// the first advance, so a new Cursor is either on row 1 or exhausted.
// A Cursor is not safe for concurrent use.
type Cursor struct {
	headers  models.Headers
	records  []models.RawNote
	position int64
	eof      bool
}

// New takes ownership of records and positions the cursor on the first row.
// A nil headers slice selects models.BaseHeaders.
func New(records []models.RawNote, headers models.Headers) *Cursor {
	if headers == nil {
		headers = models.BaseHeaders()
	}
	c := &Cursor{
		headers: headers,
		records: records,
	}
	c.Next()
	return c
}

// Next advances by one row. Once exhausted it stays exhausted.
func (c *Cursor) Next() {
	if c.eof {
		return
	}
	if c.position == int64(len(c.records)) {
		c.eof = true
		return
	}
	c.position++
}

// EOF reports whether every record has been consumed.
func (c *Cursor) EOF() bool {
	return c.eof
}

// Rowid returns the current 1-based position. It is stable for the life of
// this cursor only.
func (c *Cursor) Rowid() int64 {
	return c.position
}

// Headers returns the column names reported positionally.
func (c *Cursor) Headers() models.Headers {
	return c.headers
}

// Column resolves the zero-based column index against the current record.
// ok is false when the value is null: the position addresses no record or
// the record has no value for the column.
func (c *Cursor) Column(idx int) (value string, ok bool, err error) {
	if idx < 0 || idx >= len(c.headers) {
		return "", false, fmt.Errorf("%w: column index out of bounds: %d", apperr.ErrColumnIndexOutOfRange, idx)
	}
	row := c.position - 1
	if row < 0 || row >= int64(len(c.records)) {
		return "", false, nil
	}
	value, ok = notes.Flatten(c.records[row])[c.headers[idx]]
	return value, ok, nil
}
