//go:build sqlite_vtable

package vtab

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/vaultql/internal/argparse"
	"github.com/starford/vaultql/internal/cursor"
	"github.com/starford/vaultql/internal/models"
	"github.com/starford/vaultql/internal/notes"
)

// Supported reports whether the module is compiled in.
const Supported = true

// SQLite passes the module, database and table names ahead of the user
// arguments.
const hostArgs = 3

func registerModule(conn *sqlite3.SQLiteConn, o options) error {
	if err := conn.CreateModule(ModuleName, &Module{opts: o}); err != nil {
		return fmt.Errorf("vtab: create module: %w", err)
	}
	return nil
}

// Module implements sqlite3.Module.
type Module struct {
	opts options
}

// Create implements sqlite3.Module. The relation owns no storage, so create
// and connect are the same operation.
func (m *Module) Create(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	return m.Connect(c, args)
}

// Connect implements sqlite3.Module.
func (m *Module) Connect(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	if len(args) < hostArgs {
		return nil, fmt.Errorf("vtab: expected at least %d arguments, got %d", hostArgs, len(args))
	}
	cfg, err := argparse.Parse(args[hostArgs:])
	if err != nil {
		return nil, err
	}
	if err := c.DeclareVTab(m.opts.schemaText()); err != nil {
		return nil, fmt.Errorf("vtab: declare: %w", err)
	}
	m.opts.logger.Debug("vtab: connected",
		slog.String("table", args[2]),
		slog.String("dirname", cfg.Dirname))
	return &Table{
		name:        args[2],
		dirname:     cfg.Dirname,
		scanner:     notes.NewScanner(m.opts.scanOpts...),
		headers:     m.opts.headers(),
		logger:      m.opts.logger,
		onScanError: m.opts.onScanError,
	}, nil
}

// DestroyModule implements sqlite3.Module.
func (m *Module) DestroyModule() {}

// Table is one vault_notes relation.
type Table struct {
	name    string
	dirname string
	scanner *notes.Scanner
	headers models.Headers
	logger  *slog.Logger

	onScanError func(error)
}

// BestIndex always plans a full scan: no constraint is consumed and the cost
// and row estimates are fixed.
func (t *Table) BestIndex(cst []sqlite3.InfoConstraint, _ []sqlite3.InfoOrderBy) (*sqlite3.IndexResult, error) {
	return &sqlite3.IndexResult{
		Used:          make([]bool, len(cst)),
		IdxNum:        1,
		EstimatedCost: EstimatedCost,
		EstimatedRows: EstimatedRows,
	}, nil
}

// Disconnect implements sqlite3.VTab.
func (t *Table) Disconnect() error { return nil }

// Destroy implements sqlite3.VTab.
func (t *Table) Destroy() error { return nil }

// Open scans the directory and returns a cursor over the result. The scan is
// complete before Open returns. A scan error is reported by the cursor's
// Filter: go-sqlite3 drops errors returned from Open.
func (t *Table) Open() (sqlite3.VTabCursor, error) {
	start := time.Now()
	records, err := t.scanner.Scan(t.dirname)
	if err != nil {
		t.logger.Debug("vtab: scan failed",
			slog.String("table", t.name),
			slog.String("error", err.Error()))
		if t.onScanError != nil {
			t.onScanError(err)
		}
		return &rowCursor{err: err}, nil
	}
	t.logger.Debug("vtab: scan complete",
		slog.String("table", t.name),
		slog.Int("notes", len(records)),
		slog.Duration("elapsed", time.Since(start)))
	return &rowCursor{records: records, headers: t.headers, c: cursor.New(records, t.headers)}, nil
}

// rowCursor adapts cursor.Cursor to sqlite3.VTabCursor. The scan result is
// fixed at Open; each Filter starts a fresh cursor over it. A cursor whose
// scan failed has no core cursor and holds err instead.
type rowCursor struct {
	records []models.RawNote
	headers models.Headers
	c       *cursor.Cursor
	err     error
}

func (r *rowCursor) Close() error { return nil }

// Filter ignores every constraint; rows are always produced in scan order.
// SQLite calls it again on the inner side of a nested loop join.
func (r *rowCursor) Filter(_ int, _ string, _ []any) error {
	if r.err != nil {
		return r.err
	}
	r.c = cursor.New(r.records, r.headers)
	return nil
}

func (r *rowCursor) Next() error {
	if r.c == nil {
		return r.err
	}
	r.c.Next()
	return nil
}

func (r *rowCursor) EOF() bool { return r.c == nil || r.c.EOF() }

func (r *rowCursor) Column(ctx *sqlite3.SQLiteContext, col int) error {
	if r.c == nil {
		return r.err
	}
	v, ok, err := r.c.Column(col)
	if err != nil {
		return err
	}
	if !ok {
		ctx.ResultNull()
		return nil
	}
	ctx.ResultText(v)
	return nil
}

func (r *rowCursor) Rowid() (int64, error) {
	if r.c == nil {
		return 0, r.err
	}
	return r.c.Rowid(), nil
}
