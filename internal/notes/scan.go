// Package notes scans a vault directory into raw notes and flattens them into
// rows.
package notes

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/starford/vaultql/internal/apperr"
	"github.com/starford/vaultql/internal/models"
)

// DefaultExtension is the note file extension matched when none is configured.
const DefaultExtension = "md"

// PropertyExtractor derives flat key/value properties from a note's content.
// A nil map means the note contributes no properties.
type PropertyExtractor interface {
	Extract(path, contents string) map[string]string
}

// Scanner walks a directory tree and materializes every matching note.
type Scanner struct {
	extension string
	extractor PropertyExtractor
}

// ScanOption configures a Scanner.
type ScanOption func(*Scanner)

// WithExtension sets the note extension, with or without a leading dot.
// An empty value keeps the default.
func WithExtension(ext string) ScanOption {
	return func(s *Scanner) {
		ext = strings.TrimPrefix(ext, ".")
		if ext != "" {
			s.extension = ext
		}
	}
}

// WithExtractor sets the collaborator that populates RawNote.Properties.
func WithExtractor(e PropertyExtractor) ScanOption {
	return func(s *Scanner) {
		s.extractor = e
	}
}

// NewScanner returns a Scanner matching DefaultExtension unless overridden.
func NewScanner(opts ...ScanOption) *Scanner {
	s := &Scanner{extension: DefaultExtension}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extension returns the matched extension without the leading dot.
func (s *Scanner) Extension() string {
	return s.extension
}

// Matches reports whether the base name of path carries the note extension.
// A bare ".md" has no stem and does not match.
func (s *Scanner) Matches(path string) bool {
	name := filepath.Base(path)
	suffix := "." + s.extension
	return strings.HasSuffix(name, suffix) && len(name) > len(suffix)
}

// Scan walks dir depth-first in lexical order and reads every regular file
// whose extension matches. A symlinked dir is resolved first; reported paths
// keep the dir prefix. Any walk or read failure aborts the whole scan.
func (s *Scanner) Scan(dir string) ([]models.RawNote, error) {
	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, fmt.Errorf("notes: scan %s: %w: resolve: %w", dir, apperr.ErrIO, err)
	}

	var out []models.RawNote
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("%w: walk %s: %w", apperr.ErrIO, p, walkErr)
		}
		if !d.Type().IsRegular() || !s.Matches(p) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("%w: %w", apperr.ErrIO, err)
		}
		note, err := s.read(p, filepath.Join(dir, rel))
		if err != nil {
			return err
		}
		out = append(out, note)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("notes: scan %s: %w", dir, err)
	}
	return out, nil
}

// read loads the file at p and reports it under path.
func (s *Scanner) read(p, path string) (models.RawNote, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return models.RawNote{}, fmt.Errorf("%w: read %s: %w", apperr.ErrIO, path, err)
	}
	if !utf8.Valid(data) {
		return models.RawNote{}, fmt.Errorf("%w: read %s: invalid UTF-8", apperr.ErrIO, path)
	}
	note := models.RawNote{
		Path:     path,
		Contents: string(data),
	}
	if s.extractor != nil {
		note.Properties = s.extractor.Extract(path, note.Contents)
	}
	return note, nil
}
