// Package normalization maps loosely written option values onto their
// canonical names.
package normalization

import (
	"sort"
	"strings"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

// Enum is a closed set of named values.
type Enum[T comparable] struct {
	name   string
	values map[string]T
	keys   []string
}

// NewEnum builds an Enum; keys are cleaned the same way input is.
func NewEnum[T comparable](name string, values map[string]T) *Enum[T] {
	e := &Enum[T]{name: name, values: make(map[string]T, len(values))}
	for k, v := range values {
		c := clean(k)
		e.values[c] = v
		e.keys = append(e.keys, c)
	}
	sort.Strings(e.keys)
	return e
}

// Names builds an Enum whose values are the canonical names themselves.
func Names(name string, names ...string) *Enum[string] {
	values := make(map[string]string, len(names))
	for _, n := range names {
		values[n] = n
	}
	return NewEnum(name, values)
}

// Lookup returns the value for raw after cleaning.
func (e *Enum[T]) Lookup(raw string) (T, bool) {
	v, ok := e.values[clean(raw)]
	return v, ok
}

// Normalize is Lookup with a validation error naming the accepted values.
func (e *Enum[T]) Normalize(raw string) (T, error) {
	if v, ok := e.Lookup(raw); ok {
		return v, nil
	}
	var zero T
	return zero, errors.ValidationError("invalid "+e.name).
		WithContext("value", raw).
		WithContext("valid", strings.Join(e.keys, ", ")).Build()
}

// Keys lists the accepted names, sorted.
func (e *Enum[T]) Keys() []string {
	return append([]string(nil), e.keys...)
}

// clean lowercases, trims and treats spaces and underscores as hyphens, so
// "Top_Down" and "top down" both read as "top-down".
func clean(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if r == '_' || r == ' ' {
			return '-'
		}
		return r
	}, s)
}
