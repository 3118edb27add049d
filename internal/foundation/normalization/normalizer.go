// Package normalization maps loosely written configuration values onto typed enums.
package normalization

import (
	"sort"
	"strings"
)

// Normalizer maps case- and whitespace-insensitive strings to enum values.
type Normalizer[T ~string] struct {
	name   string
	values map[string]T
	keys   []string
}

// New creates a normalizer over the given enum values. The name is used in messages.
func New[T ~string](name string, values ...T) *Normalizer[T] {
	n := &Normalizer[T]{name: name, values: make(map[string]T, len(values))}
	for _, v := range values {
		k := clean(string(v))
		n.values[k] = v
		n.keys = append(n.keys, k)
	}
	sort.Strings(n.keys)
	return n
}

// Alias registers an additional spelling for an existing value.
func (n *Normalizer[T]) Alias(alias string, v T) *Normalizer[T] {
	n.values[clean(alias)] = v
	return n
}

// Normalize returns the canonical value for raw. Unknown input is returned unchanged
// with ok=false so validation can report it verbatim.
func (n *Normalizer[T]) Normalize(raw T) (T, bool) {
	if v, ok := n.values[clean(string(raw))]; ok {
		return v, true
	}
	return raw, false
}

// Name is the field name the normalizer was created for.
func (n *Normalizer[T]) Name() string { return n.name }

// Valid lists the canonical spellings, sorted.
func (n *Normalizer[T]) Valid() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Describe renders the valid values as "a, b or c".
func (n *Normalizer[T]) Describe() string {
	switch len(n.keys) {
	case 0:
		return ""
	case 1:
		return n.keys[0]
	}
	return strings.Join(n.keys[:len(n.keys)-1], ", ") + " or " + n.keys[len(n.keys)-1]
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
