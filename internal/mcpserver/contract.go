package mcpserver

// QueryGuide tells LLM consumers how the notes table is shaped and how to
// query it.
const QueryGuide = `# vaultql Query Guide

The vault is exposed as a read-only SQLite virtual table. Every query scans
the whole vault directory from disk, so results always reflect the files as
they are right now.

## Columns

- ` + "`file_path`" + ` TEXT: path of the note, the vault directory joined with the
  note's relative path.
- ` + "`file_contents`" + ` TEXT: full Markdown source including frontmatter.
- Declared property columns (see the describe_table tool). They come from
  YAML frontmatter and are NULL when a note does not set them. Lists and maps
  are stored as JSON text; use json_each() / json_extract() to unpack them.

## Rules

1. Only SELECT, WITH, VALUES and EXPLAIN statements are accepted.
2. Predicates are evaluated by SQLite after a full scan; there are no indexes.
3. ` + "`rowid`" + ` is the 1-based position of a note in the current scan and is not
   stable between queries.

## Examples

` + "```" + `sql
SELECT file_path FROM notes WHERE file_contents LIKE '%TODO%';

SELECT file_path, value AS tag
FROM notes, json_each(notes.tags)
WHERE tags IS NOT NULL;
` + "```" + `
`
