// Package check holds the assertion primitives used by step definitions.
// Every check returns nil on success or an error carrying the failure message.
package check

import (
	"fmt"
	"sort"
	"strings"
)

// Fields splits a comma-separated list of field names, trimming whitespace
// and surrounding quotes. Empty entries are dropped.
func Fields(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Accessor reads one logical field of a record as text.
type Accessor[T any] func(T) string

// Accessors maps logical field names to accessors. Names are matched
// case-insensitively.
type Accessors[T any] map[string]Accessor[T]

// Lookup returns the accessor registered under name.
func (a Accessors[T]) Lookup(name string) (Accessor[T], error) {
	if fn, ok := a[name]; ok {
		return fn, nil
	}
	for k, fn := range a {
		if strings.EqualFold(k, name) {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("%s (known fields: %s)", FieldMissing(name), strings.Join(a.Names(), ", "))
}

// Names returns the registered field names, sorted.
func (a Accessors[T]) Names() []string {
	names := make([]string, 0, len(a))
	for k := range a {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Values reads field from every record.
func (a Accessors[T]) Values(records []T, field string) ([]string, error) {
	fn, err := a.Lookup(field)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = fn(r)
	}
	return out, nil
}

// RequireFields fails when any of fields has no accessor.
func RequireFields[T any](a Accessors[T], fields []string) error {
	for _, f := range fields {
		if _, err := a.Lookup(f); err != nil {
			return err
		}
	}
	return nil
}

// EachRecord applies fn to field of every record and reports the first failure
// with the offending index.
func EachRecord[T any](a Accessors[T], records []T, field string, fn func(string) error) error {
	values, err := a.Values(records, field)
	if err != nil {
		return err
	}
	for i, v := range values {
		if err := fn(v); err != nil {
			return fmt.Errorf("item %d %s: %w", i, field, err)
		}
	}
	return nil
}
