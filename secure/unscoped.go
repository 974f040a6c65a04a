package secure

import (
	"sync/atomic"

	"github.com/hypernetix/hyperspot-sub000/dialect/sql"
)

// unscopedAccess gates the raw escape hatch. Disabled by default;
// intended solely for migrations and admin tooling.
var unscopedAccess atomic.Bool

// EnableUnscopedAccess toggles the raw escape hatch process-wide.
func EnableUnscopedAccess(enabled bool) {
	unscopedAccess.Store(enabled)
}

// WithUnscopedAccess turns an unscoped query executable without binding
// an access scope. It fails with ErrUnscopedDisabled unless the escape
// hatch was explicitly enabled, and logs a warning on every use.
func WithUnscopedAccess[T any](q *Select[T]) (*Scoped[T], error) {
	if !unscopedAccess.Load() {
		return nil, ErrUnscopedDisabled
	}
	if err := q.spec.Validate(); err != nil {
		return nil, err
	}
	log().Warn("executing query without access scope",
		"entity", q.spec.Label, "table", q.spec.Table)
	d := Decision{Entity: q.spec.Label, Table: q.spec.Table, Op: "query", Outcome: OutcomeUnscoped}
	notify(d)
	sel := sql.Select(q.spec.Columns...).
		From(q.spec.Table).
		Dialect(q.drv.Dialect()).
		Where(sql.True())
	return &Scoped[T]{
		drv:      q.drv,
		spec:     q.spec,
		sel:      sel,
		decision: d,
	}, nil
}
