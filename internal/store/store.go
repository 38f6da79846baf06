// Package store opens a SQLite connection with a vault_notes table over the
// configured vault and runs read-only queries against it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/starford/vaultql/internal/apperr"
	"github.com/starford/vaultql/internal/argparse"
	"github.com/starford/vaultql/internal/vtab"
)

// Config names the vault and the table it is exposed as.
type Config struct {
	// DSN is the SQLite database the table lives next to, ":memory:" by default.
	DSN string
	// Table is the name of the virtual table, created in the temp schema.
	Table string
	// Dirname is the vault directory passed as the dirname argument.
	Dirname string
}

// DB wraps a single SQLite connection carrying the notes table.
type DB struct {
	conn  *sql.DB
	table string

	mu      sync.Mutex
	scanErr error
}

var driverSeq atomic.Int64

// Open registers a driver with opts, creates the virtual table and switches
// the connection to query_only.
func Open(ctx context.Context, cfg Config, opts ...vtab.Option) (*DB, error) {
	if !vtab.Supported {
		return nil, apperr.ErrVTabUnsupported
	}
	if cfg.DSN == "" {
		cfg.DSN = ":memory:"
	}
	if cfg.Table == "" {
		cfg.Table = "notes"
	}
	arg := "dirname=" + quoteLiteral(cfg.Dirname)

	// Validate up front so callers get typed errors; SQLite only relays text.
	if _, err := argparse.Parse([]string{arg}); err != nil {
		return nil, err
	}

	db := &DB{table: cfg.Table}
	opts = append(opts[:len(opts):len(opts)], vtab.WithScanErrorHook(db.setScanErr))

	driver := fmt.Sprintf("vaultql-%d", driverSeq.Add(1))
	if err := vtab.Register(driver, opts...); err != nil {
		return nil, err
	}
	conn, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	// The temp schema is per connection.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)
	conn.SetConnMaxIdleTime(0)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	stmt := fmt.Sprintf(`CREATE VIRTUAL TABLE temp.%s USING %s(%s)`, QuoteIdent(cfg.Table), vtab.ModuleName, arg)
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: create table: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `PRAGMA query_only = ON`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: query_only: %w", err)
	}
	db.conn = conn
	return db, nil
}

func (db *DB) setScanErr(err error) {
	db.mu.Lock()
	db.scanErr = err
	db.mu.Unlock()
}

// takeScanErr returns and clears the error of the last failed scan.
func (db *DB) takeScanErr() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	err := db.scanErr
	db.scanErr = nil
	return err
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Table returns the name of the notes table.
func (db *DB) Table() string {
	return db.table
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdent quotes s as a SQL identifier.
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
