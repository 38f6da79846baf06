//go:build sqlite_vtable

package vtab

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mattn/go-sqlite3"

	"github.com/starford/vaultql/internal/apperr"
	"github.com/starford/vaultql/internal/models"
	"github.com/starford/vaultql/internal/notes"
	"github.com/starford/vaultql/internal/parser"
)

var driverSeq atomic.Int64

// openDB registers a fresh driver and returns a single-connection in-memory DB.
func openDB(t *testing.T, opts ...Option) *sql.DB {
	t.Helper()
	name := fmt.Sprintf("vaultql-vtab-test-%d", driverSeq.Add(1))
	if err := Register(name, opts...); err != nil {
		t.Fatalf("Register: %v", err)
	}
	db, err := sql.Open(name, ":memory:")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeNote(t *testing.T, dir, rel, body string) string {
	t.Helper()
	p := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func createTable(t *testing.T, db *sql.DB, dir string) {
	t.Helper()
	stmt := fmt.Sprintf(`CREATE VIRTUAL TABLE notes USING %s(dirname="%s")`, ModuleName, dir)
	if _, err := db.Exec(stmt); err != nil {
		t.Fatalf("create table: %v", err)
	}
}

func TestVTab_SelectsNotes(t *testing.T) {
	dir := t.TempDir()
	a := writeNote(t, dir, "a.md", "alpha")
	b := writeNote(t, dir, "sub/b.md", "beta")
	writeNote(t, dir, "skip.txt", "nope")

	db := openDB(t)
	createTable(t, db, dir)

	rows, err := db.Query(`SELECT rowid, file_path, file_contents FROM notes`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	type row struct {
		ID       int64
		Path     string
		Contents string
	}
	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.ID, &r.Path, &r.Contents); err != nil {
			t.Fatal(err)
		}
		got = append(got, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	want := []row{{1, a, "alpha"}, {2, b, "beta"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestVTab_EmptyDirectory(t *testing.T) {
	db := openDB(t)
	createTable(t, db, t.TempDir())

	var n int
	if err := db.QueryRow(`SELECT count(*) FROM notes`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestVTab_ScanSeesNewFilesOnEachQuery(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "a.md", "a")
	db := openDB(t)
	createTable(t, db, dir)

	count := func() int {
		var n int
		if err := db.QueryRow(`SELECT count(*) FROM notes`).Scan(&n); err != nil {
			t.Fatalf("count: %v", err)
		}
		return n
	}
	if n := count(); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	writeNote(t, dir, "b.md", "b")
	if n := count(); n != 2 {
		t.Errorf("count after new file = %d, want 2", n)
	}
}

func TestVTab_PredicatesAppliedByHost(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "a.md", "keep me")
	writeNote(t, dir, "b.md", "drop me")
	db := openDB(t)
	createTable(t, db, dir)

	var path string
	if err := db.QueryRow(`SELECT file_path FROM notes WHERE file_contents LIKE 'keep%'`).Scan(&path); err != nil {
		t.Fatalf("query: %v", err)
	}
	if filepath.Base(path) != "a.md" {
		t.Errorf("path = %q, want a.md", path)
	}
}

func TestVTab_SelfJoin(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "a.md", "a")
	writeNote(t, dir, "b.md", "b")
	writeNote(t, dir, "c.md", "c")
	db := openDB(t)
	createTable(t, db, dir)

	var pairs, diagonal int
	err := db.QueryRow(`SELECT count(*), sum(x.file_path = y.file_path) FROM notes x, notes y`).Scan(&pairs, &diagonal)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if pairs != 9 || diagonal != 3 {
		t.Errorf("pairs = %d, diagonal = %d, want 9 and 3", pairs, diagonal)
	}
}

func TestVTab_CreateErrors(t *testing.T) {
	db := openDB(t)
	cases := []struct {
		args string
		want string
	}{
		{``, "no dirname given"},
		{`dirname=vault`, "must be a string"},
		{`dirname="/definitely/does/not/exist"`, "does not exist"},
		{`dirname='a' 'b'`, "malformed argument"},
	}
	for i, tc := range cases {
		stmt := fmt.Sprintf(`CREATE VIRTUAL TABLE bad%d USING %s(%s)`, i, ModuleName, tc.args)
		_, err := db.Exec(stmt)
		if err == nil {
			t.Errorf("%s: expected error", stmt)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: err = %v, want substring %q", stmt, err, tc.want)
		}
	}
}

func TestVTab_ScanFailureFailsQuery(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "bad.md", string([]byte{0xff, 0xfe}))
	db := openDB(t)
	createTable(t, db, dir)

	rows, err := db.Query(`SELECT file_path FROM notes`)
	if err == nil {
		for rows.Next() {
		}
		err = rows.Err()
		rows.Close()
	}
	if err == nil {
		t.Error("expected the query to fail when a note cannot be read")
	}
}

func TestVTab_VaultRemovedFailsQuery(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "a.md", "alpha")

	var hooked error
	db := openDB(t, WithScanErrorHook(func(err error) { hooked = err }))
	createTable(t, db, dir)
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	rows, err := db.Query(`SELECT file_path FROM notes`)
	if err == nil {
		for rows.Next() {
		}
		err = rows.Err()
		rows.Close()
	}
	if err == nil {
		t.Fatal("expected the query to fail after the vault was removed")
	}
	if !errors.Is(hooked, apperr.ErrIO) {
		t.Errorf("hooked error = %v, want ErrIO", hooked)
	}
}

func TestTable_OpenDefersScanErrorToFilter(t *testing.T) {
	tbl := &Table{
		name:    "notes",
		dirname: filepath.Join(t.TempDir(), "missing"),
		scanner: notes.NewScanner(),
		headers: models.BaseHeaders(),
		logger:  slog.New(slog.DiscardHandler),
	}
	vc, err := tbl.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	c := vc.(*rowCursor)
	if err := c.Filter(1, "", nil); !errors.Is(err, apperr.ErrIO) {
		t.Fatalf("Filter err = %v, want ErrIO", err)
	}
	if !c.EOF() {
		t.Error("cursor with a failed scan should be at EOF")
	}
	if err := c.Next(); err == nil {
		t.Error("Next should report the scan error")
	}
	if _, err := c.Rowid(); err == nil {
		t.Error("Rowid should report the scan error")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestVTab_DeclaredPropertiesAndExtractor(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "a.md", "---\nstatus: done\n---\nbody\n")
	writeNote(t, dir, "b.md", "no frontmatter\n")

	db := openDB(t,
		WithExtractor(parser.Extractor{}),
		WithProperties(map[string]string{"status": "TEXT"}))
	createTable(t, db, dir)

	rows, err := db.Query(`SELECT status FROM notes ORDER BY file_path`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	var got []sql.NullString
	for rows.Next() {
		var s sql.NullString
		if err := rows.Scan(&s); err != nil {
			t.Fatal(err)
		}
		got = append(got, s)
	}
	want := []sql.NullString{{String: "done", Valid: true}, {}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestVersionFunc(t *testing.T) {
	db := openDB(t)
	var v string
	if err := db.QueryRow(`SELECT ` + VersionFunc + `()`).Scan(&v); err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != Version() {
		t.Errorf("version = %q, want %q", v, Version())
	}
}

func TestRegister_DuplicateName(t *testing.T) {
	name := fmt.Sprintf("vaultql-vtab-dup-%d", driverSeq.Add(1))
	if err := Register(name); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register(name); err == nil {
		t.Error("expected error registering the same driver twice")
	}
}

func TestBestIndex_FixedFullScan(t *testing.T) {
	tbl := &Table{}
	res, err := tbl.BestIndex(make([]sqlite3.InfoConstraint, 2), nil)
	if err != nil {
		t.Fatalf("BestIndex: %v", err)
	}
	if res.EstimatedCost != EstimatedCost || res.EstimatedRows != EstimatedRows {
		t.Errorf("estimates = (%v, %v)", res.EstimatedCost, res.EstimatedRows)
	}
	for i, used := range res.Used {
		if used {
			t.Errorf("constraint %d consumed", i)
		}
	}
}
