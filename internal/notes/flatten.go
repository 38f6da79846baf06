package notes

import "github.com/starford/vaultql/internal/models"

// Flatten projects a note into a row. Extracted properties come first and the
// base columns are written last so they can never be shadowed.
func Flatten(n models.RawNote) models.Row {
	row := make(models.Row, len(n.Properties)+2)
	for k, v := range n.Properties {
		row[k] = v
	}
	row[models.ColumnFilePath] = n.Path
	row[models.ColumnFileContents] = n.Contents
	return row
}
