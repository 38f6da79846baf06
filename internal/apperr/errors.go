// Package apperr defines the sentinel errors surfaced to the SQLite host and
// the HTTP/MCP frontends.
package apperr

import "errors"

var (
	// ErrMissingArgument is returned when a required table argument is absent.
	ErrMissingArgument = errors.New("missing argument")
	// ErrInvalidConfigValue is returned for a table argument with an unusable value.
	ErrInvalidConfigValue = errors.New("invalid config value")
	// ErrMalformedArgument is returned for a table argument that is not key=value.
	ErrMalformedArgument = errors.New("malformed argument")
	// ErrPathNotFound is returned when the vault directory does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrIO is returned when the vault cannot be walked or a note cannot be read.
	ErrIO = errors.New("io failure")
	// ErrColumnIndexOutOfRange is returned for a column beyond the declared headers.
	ErrColumnIndexOutOfRange = errors.New("column index out of range")
	// ErrNotFound is returned when a requested note is not in the vault.
	ErrNotFound = errors.New("not found")

	// ErrVTabUnsupported is returned when the binary was built without the
	// sqlite_vtable tag and the virtual table module cannot be registered.
	ErrVTabUnsupported = errors.New("sqlite virtual tables not compiled in")
	// ErrReadOnly is returned for a statement that could modify the database.
	ErrReadOnly = errors.New("statement is not read-only")
)

// IsArgument reports whether err came from relation-creation argument handling.
func IsArgument(err error) bool {
	return errors.Is(err, ErrMissingArgument) ||
		errors.Is(err, ErrInvalidConfigValue) ||
		errors.Is(err, ErrMalformedArgument) ||
		errors.Is(err, ErrPathNotFound)
}
