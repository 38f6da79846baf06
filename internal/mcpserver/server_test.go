//go:build sqlite_vtable

package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/vaultql/internal/noteservice"
	"github.com/starford/vaultql/internal/testutil"
	"github.com/starford/vaultql/internal/vtab"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	vaultDir := testutil.TestVault(t, map[string]string{
		"a.md": "# A\nalpha TODO",
		"b.md": "# B\nbeta",
	})
	db := testutil.TestDB(t, vaultDir)
	return New(noteservice.NewService(db), vtab.Version()), vaultDir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper; call the handlers.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "query_notes":
		result, err = srv.queryNotes(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "describe_table":
		result, err = srv.describeTable(ctx, req)
	case "get_query_guide":
		result, err = srv.getQueryGuide(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestQueryNotes(t *testing.T) {
	srv, vaultDir := testServer(t)
	r := callTool(t, srv, "query_notes", map[string]interface{}{
		"sql": "SELECT file_path FROM notes WHERE file_contents LIKE '%TODO%'",
	})
	if r.IsError {
		t.Fatalf("query failed: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, filepath.Join(vaultDir, "a.md")) || strings.Contains(text, "b.md") {
		t.Errorf("query result = %q", text)
	}
}

func TestQueryNotes_RejectsWrites(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "query_notes", map[string]interface{}{"sql": "DROP TABLE notes"})
	if !r.IsError {
		t.Error("expected error for write statement")
	}
}

func TestQueryNotes_VaultRemoved(t *testing.T) {
	srv, vaultDir := testServer(t)
	if err := os.RemoveAll(vaultDir); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		tool string
		args map[string]interface{}
	}{
		{"query_notes", map[string]interface{}{"sql": "SELECT * FROM notes"}},
		{"list_notes", map[string]interface{}{}},
	} {
		r := callTool(t, srv, tc.tool, tc.args)
		if !r.IsError {
			t.Errorf("%s: expected error after vault removal", tc.tool)
			continue
		}
		if text := resultText(r); text != "vault unavailable" {
			t.Errorf("%s: error = %q, want %q", tc.tool, text, "vault unavailable")
		}
	}
}

func TestListAndReadNote(t *testing.T) {
	srv, vaultDir := testServer(t)

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	lines := strings.Split(resultText(r), "\n")
	if len(lines) != 2 {
		t.Fatalf("list = %q, want 2 paths", resultText(r))
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{"path": filepath.Join(vaultDir, "b.md")})
	if text := resultText(r); text != "# B\nbeta" {
		t.Errorf("read result = %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestDescribeTableAndGuide(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "describe_table", nil))
	if !strings.Contains(text, `"file_contents"`) || !strings.Contains(text, vtab.Version()) {
		t.Errorf("describe = %q", text)
	}
	if resultText(callTool(t, srv, "get_query_guide", nil)) != QueryGuide {
		t.Error("guide text mismatch")
	}
}
