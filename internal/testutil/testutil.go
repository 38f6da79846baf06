// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/vaultql/internal/store"
	"github.com/starford/vaultql/internal/vtab"
)

// TestVault creates a temporary vault directory holding files, keyed by
// slash-separated relative path.
func TestVault(t *testing.T, files map[string]string) string {
	t.Helper()
	vaultDir := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(vaultDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return vaultDir
}

// TestDB opens a store over vaultDir that is automatically closed.
func TestDB(t *testing.T, vaultDir string, opts ...vtab.Option) *store.DB {
	t.Helper()
	db, err := store.Open(context.Background(), store.Config{Dirname: vaultDir}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
