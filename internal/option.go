package internal

import "io"

// Mode selects the frontend the application runs.
type Mode string

// Application modes.
const (
	ModeQuery Mode = "query"
	ModeServe Mode = "serve"
	ModeMCP   Mode = "mcp"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	mode   Mode
	query  string
	watch  bool
	out    io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode sets the frontend to run. Defaults to ModeServe.
func WithMode(m Mode) Option {
	return func(a *application) {
		a.mode = m
	}
}

// WithQuery sets the statement executed in ModeQuery.
func WithQuery(q string) Option {
	return func(a *application) {
		a.query = q
	}
}

// WithWatch re-runs the query whenever a note changes.
func WithWatch(watch bool) Option {
	return func(a *application) {
		a.watch = watch
	}
}

// WithOutput sets where query results are written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}
