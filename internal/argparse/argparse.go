// Package argparse turns the raw arguments of a
// CREATE VIRTUAL TABLE ... USING vault_notes(...) statement into a validated
// configuration.
package argparse

import (
	"fmt"
	"os"
	"strings"

	"github.com/starford/vaultql/internal/apperr"
)

// KeyDirname is the only configuration key the relation understands.
const KeyDirname = "dirname"

// ValueKind describes the syntactic shape of a config value.
type ValueKind uint8

const (
	// ValueQuoted is a single- or double-quoted string literal.
	ValueQuoted ValueKind = iota
	// ValueParameter is a SQL parameter reference such as :vault or @vault.
	ValueParameter
	// ValueBareword is anything else: identifiers, numbers.
	ValueBareword
)

func (k ValueKind) String() string {
	switch k {
	case ValueQuoted:
		return "quoted"
	case ValueParameter:
		return "parameter"
	default:
		return "bareword"
	}
}

// ConfigValue is the right-hand side of a key=value argument. Text is
// unquoted for ValueQuoted and carries the raw token otherwise.
type ConfigValue struct {
	Kind ValueKind
	Text string
}

// Argument is one parsed fragment. Key is empty for column declarations,
// in which case Column holds the declaration text.
type Argument struct {
	Key    string
	Value  ConfigValue
	Column string
}

// IsConfig reports whether the argument is a key=value directive.
func (a Argument) IsConfig() bool {
	return a.Key != ""
}

// Config is the validated relation configuration.
type Config struct {
	Dirname string
}

// Parse validates the ordered argument fragments into a Config.
// Unknown keys and column declarations are ignored. When dirname is given
// more than once the last occurrence wins.
func Parse(fragments []string) (*Config, error) {
	var (
		dirname string
		found   bool
	)
	for _, frag := range fragments {
		arg, err := ParseArgument(frag)
		if err != nil {
			return nil, err
		}
		if !arg.IsConfig() {
			continue
		}
		switch arg.Key {
		case KeyDirname:
			p, err := parsePath(arg.Value)
			if err != nil {
				return nil, err
			}
			dirname = p
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: no dirname given. Specify a path to a directory containing notes to read from. E.g. 'dirname=\"my_vault\"'",
			apperr.ErrMissingArgument)
	}
	return &Config{Dirname: dirname}, nil
}

// parsePath accepts only quoted literals and requires the path to exist.
// SQL parameter indirection is rejected along with every other shape.
func parsePath(v ConfigValue) (string, error) {
	if v.Kind != ValueQuoted {
		return "", fmt.Errorf("%w: 'dirname' value must be a string. Wrap in single or double quotes (got %s %q)",
			apperr.ErrInvalidConfigValue, v.Kind, v.Text)
	}
	if _, err := os.Stat(v.Text); err != nil {
		return "", fmt.Errorf("%w: dir '%s' does not exist", apperr.ErrPathNotFound, v.Text)
	}
	return v.Text, nil
}

// ParseArgument parses one raw fragment. A fragment whose text before the
// first '=' is an identifier is a config directive; anything else is a
// column declaration.
func ParseArgument(raw string) (Argument, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Argument{}, malformed("empty argument")
	}

	idx := strings.IndexByte(s, '=')
	if idx == 0 {
		return Argument{}, malformed(fmt.Sprintf("missing key in %q", s))
	}
	if idx < 0 {
		return Argument{Column: s}, nil
	}

	key := strings.TrimSpace(s[:idx])
	if !isIdentifier(key) {
		return Argument{Column: s}, nil
	}

	value, err := parseValue(strings.TrimSpace(s[idx+1:]))
	if err != nil {
		return Argument{}, malformed(fmt.Sprintf("%s: %s", key, err.Error()))
	}
	return Argument{Key: key, Value: value}, nil
}

func parseValue(s string) (ConfigValue, error) {
	if s == "" {
		return ConfigValue{}, fmt.Errorf("missing value")
	}
	switch s[0] {
	case '\'', '"':
		text, err := unquote(s)
		if err != nil {
			return ConfigValue{}, err
		}
		return ConfigValue{Kind: ValueQuoted, Text: text}, nil
	case ':', '@', '$':
		if !isIdentifier(s[1:]) {
			return ConfigValue{}, fmt.Errorf("invalid parameter name %q", s)
		}
		return ConfigValue{Kind: ValueParameter, Text: s}, nil
	}
	if strings.ContainsAny(s, " \t'\"") {
		return ConfigValue{}, fmt.Errorf("unexpected characters in value %q", s)
	}
	return ConfigValue{Kind: ValueBareword, Text: s}, nil
}

// unquote strips matching SQL quotes. A doubled quote inside the literal
// stands for one quote character.
func unquote(s string) (string, error) {
	q := s[0]
	if len(s) < 2 || s[len(s)-1] != q {
		return "", fmt.Errorf("unterminated quoted value %s", s)
	}
	inner := s[1 : len(s)-1]
	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != q {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(inner) && inner[i+1] == q {
			b.WriteByte(q)
			i++
			continue
		}
		return "", fmt.Errorf("stray quote in value %s", s)
	}
	return b.String(), nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func malformed(msg string) error {
	return fmt.Errorf("%w: %s", apperr.ErrMalformedArgument, msg)
}
