// Package vtab exposes a vault directory to SQLite as the vault_notes
// virtual table module.
//
// The module itself needs go-sqlite3's virtual table support, compiled in
// with the sqlite_vtable build tag. Without it the driver still registers
// but CREATE VIRTUAL TABLE fails with "no such module".
package vtab

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/vaultql/internal/models"
	"github.com/starford/vaultql/internal/notes"
	"github.com/starford/vaultql/internal/schema"
)

const (
	// ModuleName is the name used in CREATE VIRTUAL TABLE ... USING.
	ModuleName = "vault_notes"
	// VersionFunc is the scalar SQL function reporting the module version.
	VersionFunc = "vaultql_version"

	version = "0.1.0"
)

// Fixed planner hints: every scan is a full scan.
const (
	EstimatedCost = 10000.0
	EstimatedRows = 10000
)

// Version returns the module version as reported by vaultql_version().
func Version() string {
	return "v" + version
}

// Option configures the tables created by a registered driver.
type Option func(*options)

type options struct {
	scanOpts   []notes.ScanOption
	properties map[string]string
	logger     *slog.Logger

	onScanError func(error)
}

// WithExtension sets the note extension matched by scans.
func WithExtension(ext string) Option {
	return func(o *options) {
		o.scanOpts = append(o.scanOpts, notes.WithExtension(ext))
	}
}

// WithExtractor sets the collaborator that populates note properties.
func WithExtractor(e notes.PropertyExtractor) Option {
	return func(o *options) {
		o.scanOpts = append(o.scanOpts, notes.WithExtractor(e))
	}
}

// WithProperties declares extra property columns and their SQL types.
// The base columns are always TEXT regardless of what is declared here.
func WithProperties(props map[string]string) Option {
	return func(o *options) {
		o.properties = props
	}
}

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithScanErrorHook sets fn to receive the typed error of a failed scan.
// SQLite relays only the error text to the caller of the query.
func WithScanErrorHook(fn func(error)) Option {
	return func(o *options) {
		o.onScanError = fn
	}
}

func newOptions(opts ...Option) options {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// schemaText returns the table definition declared to SQLite.
func (o options) schemaText() string {
	return schema.FromProperties(o.properties)
}

// headers returns the cursor headers, in schema declaration order so that
// SQLite's positional column indices resolve to the declared names.
func (o options) headers() models.Headers {
	return schema.Columns(o.properties)
}

var (
	registerMu sync.Mutex
	registered = make(map[string]struct{})
)

// Register installs a database/sql driver under driverName whose connections
// carry the vault_notes module and the vaultql_version() function.
func Register(driverName string, opts ...Option) error {
	registerMu.Lock()
	defer registerMu.Unlock()

	if _, ok := registered[driverName]; ok {
		return fmt.Errorf("vtab: driver %q already registered", driverName)
	}
	o := newOptions(opts...)
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc(VersionFunc, Version, true); err != nil {
				return fmt.Errorf("vtab: register %s: %w", VersionFunc, err)
			}
			return registerModule(conn, o)
		},
	})
	registered[driverName] = struct{}{}
	return nil
}
