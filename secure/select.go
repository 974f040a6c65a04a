package secure

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hypernetix/hyperspot-sub000/dialect"
	"github.com/hypernetix/hyperspot-sub000/dialect/sql"
	"github.com/hypernetix/hyperspot-sub000/entity"
	"github.com/hypernetix/hyperspot-sub000/filter"
	"github.com/hypernetix/hyperspot-sub000/security"
)

// Select is an unscoped read over entity T. It deliberately has no
// execution methods; the only way to reach storage is through
// ApplyScope, which returns a Scoped value.
type Select[T any] struct {
	drv  dialect.Driver
	spec *entity.Spec[T]
}

// Query starts an unscoped read over T.
func Query[T any](drv dialect.Driver, spec *entity.Spec[T]) *Select[T] {
	return &Select[T]{drv: drv, spec: spec}
}

// ApplyScope binds the caller's access scope into the query, producing
// the only executable form of it. It fails only when the entity's scope
// declaration is malformed; a scope that resolves to deny-all still
// produces a Scoped query, one that matches zero rows.
func ApplyScope[T any](q *Select[T], scope security.AccessScope) (*Scoped[T], error) {
	if err := q.spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScope, err)
	}
	pred, decision := scopePredicate(q.spec.Label, q.spec.Table, "query", q.spec.Scope, scope)
	sel := sql.Select(q.spec.Columns...).
		From(q.spec.Table).
		Dialect(q.drv.Dialect()).
		Where(pred)
	return &Scoped[T]{
		drv:      q.drv,
		spec:     q.spec,
		sel:      sel,
		decision: decision,
	}, nil
}

// Scoped is a read over entity T bound to an access scope. All chaining
// methods narrow the result set; the scope predicate attached by
// ApplyScope cannot be removed or widened.
type Scoped[T any] struct {
	drv      dialect.Driver
	spec     *entity.Spec[T]
	sel      *sql.Selector
	decision Decision
	err      error
}

// Decision returns the scope decision this query was built under.
func (s *Scoped[T]) Decision() Decision { return s.decision }

// Spec returns the entity spec the query reads.
func (s *Scoped[T]) Spec() *entity.Spec[T] { return s.spec }

func (s *Scoped[T]) fail(err error) *Scoped[T] {
	if s.err == nil {
		s.err = err
	}
	return s
}

// Filter narrows the query with the given filter tree. Compile errors
// are deferred to execution.
func (s *Scoped[T]) Filter(n *filter.Node[T]) *Scoped[T] {
	p, err := filter.Compile(n, s.spec.Fields)
	if err != nil {
		return s.fail(err)
	}
	if p != nil {
		s.sel.Where(p)
	}
	return s
}

// Where applies raw selector predicates. Predicates combine with AND,
// so they can only narrow the scoped result set.
func (s *Scoped[T]) Where(ps ...func(*sql.Selector)) *Scoped[T] {
	for _, p := range ps {
		p(s.sel)
	}
	return s
}

// AndID narrows the query to a single resource by its identifier. The
// entity must declare a resource column.
func (s *Scoped[T]) AndID(id uuid.UUID) *Scoped[T] {
	col, ok := s.spec.Scope.Resource()
	if !ok {
		return s.fail(&UnsupportedDimensionError{Entity: s.spec.Label, Dimension: "resource"})
	}
	s.sel.Where(sql.EQ(col, id.String()))
	return s
}

// AndScopeFor additionally applies another entity's scope declaration to
// this query, using that declaration's columns. Used when a table
// carries denormalized attribution of a related entity and both must
// hold.
func (s *Scoped[T]) AndScopeFor(label string, spec entity.ScopeSpec, scope security.AccessScope) *Scoped[T] {
	if err := spec.Validate(); err != nil {
		return s.fail(fmt.Errorf("%w: %v", ErrInvalidScope, err))
	}
	pred, _ := scopePredicate(label, s.spec.Table, "query", spec, scope)
	s.sel.Where(pred)
	return s
}

// OrderAsc appends an ascending order term on the given exposed field.
func (s *Scoped[T]) OrderAsc(field string) *Scoped[T] {
	return s.order(field, false)
}

// OrderDesc appends a descending order term on the given exposed field.
func (s *Scoped[T]) OrderDesc(field string) *Scoped[T] {
	return s.order(field, true)
}

func (s *Scoped[T]) order(field string, desc bool) *Scoped[T] {
	f, ok := s.spec.Fields.Lookup(field)
	if !ok {
		return s.fail(fmt.Errorf("%w: %q", filter.ErrUnknownField, field))
	}
	if desc {
		s.sel.OrderDesc(f.Column)
	} else {
		s.sel.OrderBy(f.Column)
	}
	return s
}

// Limit bounds the number of rows returned by All.
func (s *Scoped[T]) Limit(n int) *Scoped[T] {
	s.sel.Limit(n)
	return s
}

// All executes the query and returns all matching rows.
func (s *Scoped[T]) All(ctx context.Context) ([]*T, error) {
	return s.fetch(ctx, s.sel)
}

// One executes the query and returns the single matching row. It
// returns a NotFoundError when no row matches and a NotSingularError
// when more than one does.
func (s *Scoped[T]) One(ctx context.Context) (*T, error) {
	items, err := s.fetch(ctx, s.sel.Clone().Limit(2))
	if err != nil {
		return nil, err
	}
	switch len(items) {
	case 1:
		return items[0], nil
	case 0:
		return nil, &NotFoundError{label: s.spec.Label}
	default:
		return nil, &NotSingularError{label: s.spec.Label}
	}
}

// Count executes the COUNT form of the query.
func (s *Scoped[T]) Count(ctx context.Context) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	query, args, err := s.sel.CountQuery()
	if err != nil {
		return 0, fmt.Errorf("secure: counting %s: %w", s.spec.Label, err)
	}
	var rows sql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return 0, fmt.Errorf("secure: counting %s: %w", s.spec.Label, err)
	}
	defer rows.Close()
	n := 0
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("secure: counting %s: %w", s.spec.Label, err)
		}
	}
	return n, rows.Err()
}

// Exist reports whether at least one row matches the query.
func (s *Scoped[T]) Exist(ctx context.Context) (bool, error) {
	items, err := s.fetch(ctx, s.sel.Clone().Limit(1))
	if err != nil {
		return false, err
	}
	return len(items) > 0, nil
}

// fetch executes a selector derived from the scoped statement and scans
// the rows through the entity spec.
func (s *Scoped[T]) fetch(ctx context.Context, sel *sql.Selector) ([]*T, error) {
	if s.err != nil {
		return nil, s.err
	}
	query, args, err := sel.Query()
	if err != nil {
		return nil, fmt.Errorf("secure: querying %s: %w", s.spec.Label, err)
	}
	var rows sql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("secure: querying %s: %w", s.spec.Label, err)
	}
	defer rows.Close()
	var items []*T
	for rows.Next() {
		item, err := s.spec.ScanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("secure: scanning %s: %w", s.spec.Label, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("secure: querying %s: %w", s.spec.Label, err)
	}
	return items, nil
}
