// Package parser extracts frontmatter, wikilinks, and tags from Markdown
// content and exposes them as flat note properties.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Derived property names added on top of the frontmatter keys.
const (
	PropertyTitle = "title"
	PropertyTags  = "tags"
	PropertyLinks = "links"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Document is a parsed Markdown note.
type Document struct {
	Frontmatter map[string]any
	Body        string
	Links       []string
	Tags        []string
	Title       string
}

// Parse splits data into frontmatter and body and derives title, tags and
// wikilinks. Malformed frontmatter is treated as body text.
func Parse(data []byte) *Document {
	fm, body := splitFrontmatter(data)
	return &Document{
		Frontmatter: fm,
		Body:        body,
		Links:       extractLinks(body),
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}
}

// Properties flattens the document to text values. Scalars are rendered as
// text, lists and maps as JSON, nulls are dropped. The derived title, tags
// and links are set when non-empty and replace frontmatter keys of the same
// name.
func (d *Document) Properties() map[string]string {
	props := make(map[string]string, len(d.Frontmatter)+3)
	for k, v := range d.Frontmatter {
		if s, ok := toText(v); ok {
			props[k] = s
		}
	}
	if d.Title != "" {
		props[PropertyTitle] = d.Title
	}
	if len(d.Tags) > 0 {
		props[PropertyTags] = mustJSON(d.Tags)
	}
	if len(d.Links) > 0 {
		props[PropertyLinks] = mustJSON(d.Links)
	}
	return props
}

// Extractor populates note properties from frontmatter and derived fields.
type Extractor struct{}

// Extract implements notes.PropertyExtractor.
func (Extractor) Extract(_, contents string) map[string]string {
	return Parse([]byte(contents)).Properties()
}

// splitFrontmatter separates a leading YAML block delimited by --- lines from
// the body. Without a closing delimiter, or with invalid YAML, the whole
// input is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}

	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body
}

// extractLinks returns deduplicated wikilink targets in order of appearance.
// Aliases, heading and block anchors are stripped: [[Note#Part|alias]] is Note.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.IndexAny(target, "|#^"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects the frontmatter "tags" field, a list or a comma or
// space separated string, followed by inline #tags from the body.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimPrefix(strings.TrimSpace(s), "#")
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	switch v := fm["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		for _, s := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			add(s)
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the frontmatter title, else the first H1 heading.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

func toText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly), true
		}
		return t.Format(time.RFC3339), true
	case []any, map[string]any:
		return mustJSON(t), true
	default:
		return fmt.Sprint(t), true
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
