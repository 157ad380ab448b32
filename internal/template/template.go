// Package template resolves ${name} placeholders in user format strings.
package template

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Placeholder names understood by the series formatter.
const (
	KeyPosition = "position"
	KeyTitle    = "title"
	KeySeries   = "series"
)

// ErrUnknownPlaceholder is matched by every UnknownPlaceholderError.
var ErrUnknownPlaceholder = errors.New("unknown placeholder")

// UnknownPlaceholderError reports a ${name} token with no value.
type UnknownPlaceholderError struct {
	Name string
}

func (e *UnknownPlaceholderError) Error() string {
	return fmt.Sprintf("unknown placeholder ${%s}", e.Name)
}

func (e *UnknownPlaceholderError) Is(target error) bool {
	return target == ErrUnknownPlaceholder
}

type token struct {
	start, end int // byte range of "${name}" in the template
	name       string
}

// scan splits tmpl into placeholder tokens. An unterminated "${" yields
// a token whose name is the remainder of the template.
func scan(tmpl string) []token {
	var toks []token
	i := 0
	for {
		j := strings.Index(tmpl[i:], "${")
		if j < 0 {
			return toks
		}
		start := i + j
		k := strings.IndexByte(tmpl[start+2:], '}')
		if k < 0 {
			return append(toks, token{start: start, end: len(tmpl), name: tmpl[start+2:]})
		}
		end := start + 2 + k + 1
		toks = append(toks, token{start: start, end: end, name: tmpl[start+2 : end-1]})
		i = end
	}
}

// Placeholders returns placeholder names in order of appearance.
func Placeholders(tmpl string) []string {
	toks := scan(tmpl)
	names := make([]string, 0, len(toks))
	for _, t := range toks {
		names = append(names, t.name)
	}
	return names
}

// Validate checks that every placeholder in tmpl is one of known.
func Validate(tmpl string, known ...string) error {
	for _, t := range scan(tmpl) {
		found := false
		for _, k := range known {
			if t.name == k {
				found = true
				break
			}
		}
		if !found {
			return &UnknownPlaceholderError{Name: t.name}
		}
	}
	return nil
}

// Substitute replaces every ${name} in tmpl with values[name] in a single
// left-to-right pass. Replacement text is never scanned again. If any
// placeholder has no entry in values nothing is substituted and an
// *UnknownPlaceholderError is returned.
func Substitute(tmpl string, values map[string]string) (string, error) {
	toks := scan(tmpl)
	for _, t := range toks {
		if _, ok := values[t.name]; !ok {
			return "", &UnknownPlaceholderError{Name: t.name}
		}
	}

	var b strings.Builder
	b.Grow(len(tmpl))
	last := 0
	for _, t := range toks {
		b.WriteString(tmpl[last:t.start])
		b.WriteString(values[t.name])
		last = t.end
	}
	b.WriteString(tmpl[last:])
	return b.String(), nil
}

// FormatPosition turns a 0-based index into a 1-based position padded to
// at least two digits.
func FormatPosition(index int) string {
	s := strconv.Itoa(index + 1)
	if len(s) < 2 {
		s = "0" + s
	}
	return s
}

// BookValues builds the substitution table for one book of a series.
func BookValues(series, title string, index int) map[string]string {
	return map[string]string{
		KeyPosition: FormatPosition(index),
		KeyTitle:    title,
		KeySeries:   series,
	}
}
