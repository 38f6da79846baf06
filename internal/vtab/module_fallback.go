//go:build !sqlite_vtable

package vtab

import "github.com/mattn/go-sqlite3"

// Supported reports whether the module is compiled in.
const Supported = false

func registerModule(_ *sqlite3.SQLiteConn, _ options) error {
	// go-sqlite3 built without sqlite_vtable has no module API.
	return nil
}
