// Package schema renders the declared shape of the notes relation.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/vaultql/internal/models"
)

// TypeText is the SQLite type of the base columns.
const TypeText = "TEXT"

// withBase copies properties and forces the base columns to TEXT.
func withBase(properties map[string]string) map[string]string {
	props := make(map[string]string, len(properties)+2)
	for name, typ := range properties {
		props[name] = typ
	}
	props[models.ColumnFilePath] = TypeText
	props[models.ColumnFileContents] = TypeText
	return props
}

// Columns returns the column names of the relation in declaration order.
func Columns(properties map[string]string) models.Headers {
	props := withBase(properties)
	names := make(models.Headers, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromProperties returns the CREATE TABLE statement for the relation.
// Column clauses are sorted by name so the output does not depend on map
// iteration order. The table name x is a placeholder SQLite ignores.
func FromProperties(properties map[string]string) string {
	props := withBase(properties)
	names := Columns(properties)
	clauses := make([]string, len(names))
	for i, name := range names {
		clauses[i] = fmt.Sprintf("%s %s", quoteIdent(name), props[name])
	}
	return "CREATE TABLE x(\n    " + strings.Join(clauses, ",\n    ") + "\n);"
}

// quoteIdent wraps name in double quotes, doubling any embedded quote.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
