package secure

import (
	"context"

	"github.com/hypernetix/hyperspot-sub000/filter"
	"github.com/hypernetix/hyperspot-sub000/paginate"
)

// Paginate executes one page of the scoped query. The request's filter,
// order and cursor are validated and resolved by the paginate package;
// the scope predicate attached by ApplyScope is always part of the
// statement, so no cursor or filter manipulation can surface rows
// outside the caller's scope.
func (s *Scoped[T]) Paginate(ctx context.Context, req paginate.Request[T], limits paginate.Limits, opts paginate.Options) (*paginate.Page[T], error) {
	if s.err != nil {
		return nil, s.err
	}
	plan, err := paginate.Prepare(req, s.spec.Fields, limits, opts)
	if err != nil {
		return nil, err
	}
	sel := s.sel.Clone()
	pred, err := filter.Compile(req.Filter, s.spec.Fields)
	if err != nil {
		return nil, err
	}
	if pred != nil {
		sel.Where(pred)
	}
	plan.Apply(sel)
	items, err := s.fetch(ctx, sel)
	if err != nil {
		return nil, err
	}
	return plan.BuildPage(items, func(t *T, column string) (any, error) {
		return s.spec.Value(t, column)
	})
}
