package entity

import (
	"fmt"

	"github.com/hypernetix/hyperspot-sub000/dialect/sql"
)

// Spec binds one record type T to its storage metadata: table, columns,
// scope declaration, filterable fields, and the functions that scan a
// row into T and read a column value back out of T (used to mint cursor
// positions from returned rows).
type Spec[T any] struct {
	// Label names the entity in error messages, e.g. "order".
	Label string
	// Table is the storage table.
	Table string
	// Columns are the columns selected for T, in ScanRow order.
	Columns []string
	// Scope declares how T participates in access scoping.
	Scope ScopeSpec
	// Fields is the closed filterable/orderable field set.
	Fields *FieldMap
	// ScanRow scans the current row into a new T.
	ScanRow func(sql.ColumnScanner) (*T, error)
	// Value returns the value of the given column from a scanned T.
	Value func(t *T, column string) (any, error)
}

// Validate checks the spec is complete and its scope declaration is
// well formed.
func (s *Spec[T]) Validate() error {
	if s == nil {
		return fmt.Errorf("entity: nil spec")
	}
	if s.Table == "" {
		return fmt.Errorf("entity: spec %q has no table", s.Label)
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("entity: spec %q has no columns", s.Label)
	}
	if s.ScanRow == nil {
		return fmt.Errorf("entity: spec %q has no row scanner", s.Label)
	}
	if s.Value == nil {
		return fmt.Errorf("entity: spec %q has no column value accessor", s.Label)
	}
	if err := s.Scope.Validate(); err != nil {
		return fmt.Errorf("entity: spec %q: %w", s.Label, err)
	}
	return nil
}
