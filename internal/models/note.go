// Package models defines the domain types shared by the scanner, the cursor
// and the frontends.
package models

// Base column names present in every row.
const (
	ColumnFilePath     = "file_path"
	ColumnFileContents = "file_contents"
)

// RawNote is one scanned file prior to projection into a Row.
// Properties is nil unless a property extractor populated it.
type RawNote struct {
	Path       string
	Contents   string
	Properties map[string]string
}

// Row is the flattened column-name to value projection of a RawNote.
type Row map[string]string

// Headers is the ordered list of column names a cursor reports positionally.
type Headers []string

// BaseHeaders returns the default cursor headers.
func BaseHeaders() Headers {
	return Headers{ColumnFilePath, ColumnFileContents}
}
