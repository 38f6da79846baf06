package cursor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/starford/vaultql/internal/apperr"
	"github.com/starford/vaultql/internal/models"
)

func records(n int) []models.RawNote {
	out := make([]models.RawNote, n)
	for i := range out {
		out[i] = models.RawNote{
			Path:     fmt.Sprintf("vault/%d.md", i+1),
			Contents: fmt.Sprintf("note %d", i+1),
		}
	}
	return out
}

func TestNew_EmptyIsExhaustedImmediately(t *testing.T) {
	c := New(nil, nil)
	if !c.EOF() {
		t.Fatal("cursor over zero records should be at end after construction")
	}
	v, ok, err := c.Column(0)
	if err != nil || ok || v != "" {
		t.Errorf("Column on empty cursor = (%q, %v, %v), want null", v, ok, err)
	}
}

func TestNext_ExhaustsAfterNAdvances(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		c := New(records(n), nil)
		for i := 1; i <= n; i++ {
			if c.EOF() {
				t.Fatalf("n=%d: EOF before row %d", n, i)
			}
			if c.Rowid() != int64(i) {
				t.Errorf("n=%d: rowid = %d, want %d", n, c.Rowid(), i)
			}
			c.Next()
		}
		if !c.EOF() {
			t.Errorf("n=%d: expected EOF after %d advances", n, n)
		}
	}
}

func TestNext_IdempotentOnceExhausted(t *testing.T) {
	c := New(records(1), nil)
	c.Next()
	rowid := c.Rowid()
	for range 3 {
		c.Next()
		if !c.EOF() {
			t.Fatal("cursor left the exhausted state")
		}
	}
	if c.Rowid() != rowid {
		t.Errorf("rowid moved after exhaustion: %d -> %d", rowid, c.Rowid())
	}
}

func TestColumn_BaseColumns(t *testing.T) {
	c := New(records(2), nil)
	c.Next()

	path, ok, err := c.Column(0)
	if err != nil || !ok || path != "vault/2.md" {
		t.Errorf("Column(0) = (%q, %v, %v)", path, ok, err)
	}
	contents, ok, err := c.Column(1)
	if err != nil || !ok || contents != "note 2" {
		t.Errorf("Column(1) = (%q, %v, %v)", contents, ok, err)
	}
}

func TestColumn_OutOfRange(t *testing.T) {
	c := New(records(1), nil)
	for _, idx := range []int{-1, 2, 100} {
		if _, _, err := c.Column(idx); !errors.Is(err, apperr.ErrColumnIndexOutOfRange) {
			t.Errorf("Column(%d) err = %v, want ErrColumnIndexOutOfRange", idx, err)
		}
	}
}

func TestColumn_MissingPropertyIsNull(t *testing.T) {
	recs := []models.RawNote{
		{Path: "a.md", Contents: "a", Properties: map[string]string{"status": "done"}},
		{Path: "b.md", Contents: "b"},
	}
	c := New(recs, models.Headers{"file_contents", "file_path", "status"})

	v, ok, err := c.Column(2)
	if err != nil || !ok || v != "done" {
		t.Errorf("row 1 status = (%q, %v, %v), want done", v, ok, err)
	}
	c.Next()
	v, ok, err = c.Column(2)
	if err != nil || ok {
		t.Errorf("row 2 status = (%q, %v, %v), want null", v, ok, err)
	}
}

func TestColumn_BasePathWinsOverProperty(t *testing.T) {
	recs := []models.RawNote{
		{Path: "real.md", Contents: "x", Properties: map[string]string{"file_path": "fake.md"}},
	}
	c := New(recs, nil)
	v, _, _ := c.Column(0)
	if v != "real.md" {
		t.Errorf("file_path = %q, want real.md", v)
	}
}
