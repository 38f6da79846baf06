//go:build sqlite_vtable

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/vaultql/internal/apperr"
	"github.com/starford/vaultql/internal/parser"
	"github.com/starford/vaultql/internal/vtab"
)

func testStore(t *testing.T, dir string, opts ...vtab.Option) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Dirname: dir}, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func write(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestOpen_TypedArgumentErrors(t *testing.T) {
	_, err := Open(context.Background(), Config{Dirname: "/definitely/does/not/exist"})
	if !errors.Is(err, apperr.ErrPathNotFound) {
		t.Fatalf("err = %v, want ErrPathNotFound", err)
	}
}

func TestOpen_DirnameWithQuote(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "it's")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	write(t, dir, "a.md", "a")
	db := testStore(t, dir)
	res, err := db.Notes(context.Background(), 0)
	if err != nil {
		t.Fatalf("Notes: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Errorf("rows = %d, want 1", len(res.Rows))
	}
}

func TestQuery_ReturnsColumnsAndRows(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.md", "alpha")
	write(t, dir, "b.md", "beta")
	db := testStore(t, dir)

	res, err := db.Query(context.Background(), `SELECT file_contents FROM notes ORDER BY file_contents DESC`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	want := &Result{
		Columns: []string{"file_contents"},
		Rows:    [][]any{{"beta"}, {"alpha"}},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestQuery_VaultRemovedIsTypedIOError(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.md", "alpha")
	db := testStore(t, dir)
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	_, err := db.Query(context.Background(), `SELECT * FROM notes`)
	if !errors.Is(err, apperr.ErrIO) {
		t.Fatalf("err = %v, want ErrIO", err)
	}

	// A later failure unrelated to the vault must not pick up the stale scan error.
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	_, err = db.Query(context.Background(), `SELECT nope FROM notes`)
	if err == nil || errors.Is(err, apperr.ErrIO) {
		t.Errorf("err = %v, want a plain SQL error", err)
	}
}

func TestQuery_RejectsWrites(t *testing.T) {
	db := testStore(t, t.TempDir())
	for _, q := range []string{
		`DELETE FROM notes`,
		`PRAGMA query_only = OFF`,
		`CREATE TABLE t(x)`,
		`-- comment only`,
	} {
		if _, err := db.Query(context.Background(), q); !errors.Is(err, apperr.ErrReadOnly) {
			t.Errorf("Query(%q) err = %v, want ErrReadOnly", q, err)
		}
	}
}

func TestIsReadOnly(t *testing.T) {
	cases := map[string]bool{
		"SELECT 1":                       true,
		"  select * from notes":          true,
		"WITH x AS (SELECT 1) SELECT *":  true,
		"-- hi\nSELECT 1":                true,
		"SELECTED":                       false,
		"INSERT INTO notes VALUES (1,2)": false,
		"":                               false,
	}
	for q, want := range cases {
		if got := isReadOnly(q); got != want {
			t.Errorf("isReadOnly(%q) = %v, want %v", q, got, want)
		}
	}
}

func TestColumnsAndVersion(t *testing.T) {
	db := testStore(t, t.TempDir(),
		vtab.WithExtractor(parser.Extractor{}),
		vtab.WithProperties(map[string]string{"title": "TEXT", "priority": "INTEGER"}))

	cols, err := db.Columns(context.Background())
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	want := []Column{
		{Name: "file_contents", Type: "TEXT"},
		{Name: "file_path", Type: "TEXT"},
		{Name: "priority", Type: "INTEGER"},
		{Name: "title", Type: "TEXT"},
	}
	if diff := cmp.Diff(want, cols); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}

	v, err := db.Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != vtab.Version() {
		t.Errorf("version = %q", v)
	}
}

func TestResult_Records(t *testing.T) {
	r := &Result{Columns: []string{"a", "b"}, Rows: [][]any{{"1", nil}}}
	want := []map[string]any{{"a": "1", "b": nil}}
	if diff := cmp.Diff(want, r.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}
