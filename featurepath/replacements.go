package featurepath

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/julielab/jcore/errors"
)

// ReplacementTable maps primitive values, in their string form, to the
// value that replaces them. It is read-only after construction and may be
// shared between goroutines.
type ReplacementTable struct {
	values          map[string]string
	replaceUnmapped bool
	defaultValue    string
}

// TableOption configures a ReplacementTable.
type TableOption func(*ReplacementTable)

// ReplaceUnmapped makes values without an entry take the default value.
func ReplaceUnmapped(enabled bool) TableOption {
	return func(t *ReplacementTable) { t.replaceUnmapped = enabled }
}

// DefaultValue sets the substitute for unmapped values. It only has an
// effect together with ReplaceUnmapped(true).
func DefaultValue(v string) TableOption {
	return func(t *ReplacementTable) { t.defaultValue = v }
}

// NewReplacementTable builds a table from an in-memory map. The map is copied.
func NewReplacementTable(values map[string]string, opts ...TableOption) *ReplacementTable {
	t := &ReplacementTable{values: make(map[string]string, len(values))}
	for k, v := range values {
		t.values[k] = v
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// LoadReplacements reads a replacement file, see ReadReplacements.
func LoadReplacements(path string, opts ...TableOption) (*ReplacementTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open replacements file %s", path)
	}
	defer f.Close()

	t, err := ReadReplacements(f, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "replacements file %s", path)
	}
	return t, nil
}

// ReadReplacements parses lines of the form originalValue=replacementValue.
// Blank lines and lines starting with # are skipped. Keys and values are
// trimmed. Any other number of columns is an error.
func ReadReplacements(r io.Reader, opts ...TableOption) (*ReplacementTable, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Split(line, "=")
		for len(cols) > 0 && cols[len(cols)-1] == "" {
			cols = cols[:len(cols)-1]
		}
		if len(cols) != 2 {
			return nil, errors.WithHint(
				errors.Mark(errors.Newf("line %d: %q has %d columns", lineNo, line, len(cols)), errors.ErrParse),
				"expected format is 'originalValue=replacementValue'")
		}
		values[strings.TrimSpace(cols[0])] = strings.TrimSpace(cols[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read replacements")
	}
	t := NewReplacementTable(nil, opts...)
	t.values = values
	return t, nil
}

// Len is the number of explicit entries.
func (t *ReplacementTable) Len() int { return len(t.values) }

// Lookup returns the explicit replacement for key.
func (t *ReplacementTable) Lookup(key string) (string, bool) {
	v, ok := t.values[key]
	return v, ok
}

// ReplacesUnmapped reports whether unmapped values take the default value.
func (t *ReplacementTable) ReplacesUnmapped() bool { return t.replaceUnmapped }

// Default returns the substitute for unmapped values.
func (t *ReplacementTable) Default() string { return t.defaultValue }

// replacementFor returns the value v should be replaced with, if any.
// An unset value never matches an entry but does take the default.
func (t *ReplacementTable) replacementFor(v any) (string, bool) {
	if v != nil {
		if r, ok := t.values[FormatValue(v)]; ok {
			return r, true
		}
	}
	if t.replaceUnmapped {
		return t.defaultValue, true
	}
	return "", false
}
