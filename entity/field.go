package entity

import (
	"fmt"
	"strings"
)

// Field describes one filterable/orderable field of an entity: the name
// it is exposed under, the storage column behind it, its value kind, and
// whether its values are unique (eligible as a pagination tiebreaker).
type Field struct {
	Name   string
	Column string
	Kind   FieldKind
	Unique bool
}

// FieldMap is the closed set of fields an entity exposes for filtering
// and ordering. Fields that are not in the map cannot be referenced at
// all; the map is the only place field names meet column metadata.
type FieldMap struct {
	fields map[string]Field
	names  []string
}

// NewFieldMap builds a FieldMap from the given fields. Field names are
// case-insensitive; duplicates and invalid kinds are rejected.
func NewFieldMap(fields ...Field) (*FieldMap, error) {
	m := &FieldMap{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		name := strings.ToLower(f.Name)
		if name == "" {
			return nil, fmt.Errorf("entity: field with empty name")
		}
		if f.Column == "" {
			return nil, fmt.Errorf("entity: field %q has no column", f.Name)
		}
		if f.Kind == KindInvalid {
			return nil, fmt.Errorf("entity: field %q has no kind", f.Name)
		}
		if _, ok := m.fields[name]; ok {
			return nil, fmt.Errorf("entity: duplicate field %q", f.Name)
		}
		m.fields[name] = f
		m.names = append(m.names, name)
	}
	return m, nil
}

// MustFieldMap is like NewFieldMap but panics on error. Intended for
// package-level variables in generated code.
func MustFieldMap(fields ...Field) *FieldMap {
	m, err := NewFieldMap(fields...)
	if err != nil {
		panic(err)
	}
	return m
}

// Lookup returns the field exposed under the given (case-insensitive) name.
func (m *FieldMap) Lookup(name string) (Field, bool) {
	f, ok := m.fields[strings.ToLower(name)]
	return f, ok
}

// Names returns the exposed field names in declaration order.
func (m *FieldMap) Names() []string {
	return append([]string(nil), m.names...)
}

// Len returns the number of fields in the map.
func (m *FieldMap) Len() int { return len(m.fields) }
