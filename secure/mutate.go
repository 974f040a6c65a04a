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

// Insert is an unscoped single-row insert of entity T. It has no
// execution methods; Apply validates the payload attribution against an
// access scope and returns the executable form.
type Insert[T any] struct {
	drv  dialect.Driver
	spec *entity.Spec[T]
	ins  *sql.Inserter
}

// InsertOne starts an insert of one T.
func InsertOne[T any](drv dialect.Driver, spec *entity.Spec[T]) *Insert[T] {
	return &Insert[T]{
		drv:  drv,
		spec: spec,
		ins:  sql.Insert(spec.Table).Dialect(drv.Dialect()),
	}
}

// Set assigns a column value on the new row.
func (i *Insert[T]) Set(column string, v any) *Insert[T] {
	i.ins.Set(column, v)
	return i
}

// Apply validates the payload against the caller's scope. A row whose
// tenant, owner or type attribution falls outside the scope is rejected
// with ErrAttributionMismatch before reaching storage; the value is
// never silently corrected.
func (i *Insert[T]) Apply(scope security.AccessScope) (*ScopedInsert[T], error) {
	if err := i.spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScope, err)
	}
	spec := i.spec.Scope
	if !spec.IsUnrestricted() {
		if scope.IsEmpty() {
			return nil, fmt.Errorf("%w: cannot attribute insert into %s", ErrEmptyScope, i.spec.Label)
		}
		if col, ok := spec.Tenant(); ok {
			v, set := i.ins.Get(col)
			if !set {
				return nil, &AttributionError{Entity: i.spec.Label, Column: col, Value: nil}
			}
			id, ok := asUUID(v)
			if !ok || !scope.HasTenant(id) {
				return nil, &AttributionError{Entity: i.spec.Label, Column: col, Value: v}
			}
		}
		if col, ok := spec.Owner(); ok && len(scope.Owners) > 0 {
			if v, set := i.ins.Get(col); set {
				id, ok := asUUID(v)
				if !ok || !scope.HasOwner(id) {
					return nil, &AttributionError{Entity: i.spec.Label, Column: col, Value: v}
				}
			}
		}
		if col, ok := spec.Type(); ok && len(scope.Types) > 0 {
			if v, set := i.ins.Get(col); set {
				s, _ := v.(string)
				found := false
				for _, t := range scope.Types {
					if t == s {
						found = true
						break
					}
				}
				if !found {
					return nil, &AttributionError{Entity: i.spec.Label, Column: col, Value: v}
				}
			}
		}
	}
	notify(Decision{Entity: i.spec.Label, Table: i.spec.Table, Op: "insert", Outcome: OutcomeScoped})
	return &ScopedInsert[T]{drv: i.drv, spec: i.spec, ins: i.ins}, nil
}

// ScopedInsert is an insert whose payload attribution was validated
// against an access scope.
type ScopedInsert[T any] struct {
	drv  dialect.Driver
	spec *entity.Spec[T]
	ins  *sql.Inserter
}

// Exec writes the row.
func (si *ScopedInsert[T]) Exec(ctx context.Context) error {
	query, args, err := si.ins.Query()
	if err != nil {
		return fmt.Errorf("secure: inserting %s: %w", si.spec.Label, err)
	}
	if err := si.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("secure: inserting %s: %w", si.spec.Label, err)
	}
	return nil
}

// Update is an unscoped bulk update of entity T. It has no execution
// methods; Apply binds the caller's scope as the WHERE restriction, so
// a caller can only mutate rows it could also have read.
type Update[T any] struct {
	drv     dialect.Driver
	spec    *entity.Spec[T]
	upd     *sql.Updater
	touched map[string]struct{}
}

// UpdateMany starts an update over T.
func UpdateMany[T any](drv dialect.Driver, spec *entity.Spec[T]) *Update[T] {
	return &Update[T]{
		drv:     drv,
		spec:    spec,
		upd:     sql.Update(spec.Table).Dialect(drv.Dialect()),
		touched: make(map[string]struct{}),
	}
}

// Set assigns a column value on all matched rows.
func (u *Update[T]) Set(column string, v any) *Update[T] {
	u.upd.Set(column, v)
	u.touched[column] = struct{}{}
	return u
}

// Apply binds the caller's scope into the update. Changing the tenant
// column of a tenant-scoped entity is refused with ErrImmutableTenant.
func (u *Update[T]) Apply(scope security.AccessScope) (*ScopedUpdate[T], error) {
	if err := u.spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScope, err)
	}
	if col, ok := u.spec.Scope.Tenant(); ok {
		if _, touched := u.touched[col]; touched {
			return nil, fmt.Errorf("%w: %s.%s", ErrImmutableTenant, u.spec.Label, col)
		}
	}
	pred, _ := scopePredicate(u.spec.Label, u.spec.Table, "update", u.spec.Scope, scope)
	u.upd.Where(pred)
	return &ScopedUpdate[T]{drv: u.drv, spec: u.spec, upd: u.upd}, nil
}

// ScopedUpdate is an update bound to an access scope.
type ScopedUpdate[T any] struct {
	drv  dialect.Driver
	spec *entity.Spec[T]
	upd  *sql.Updater
}

// Filter narrows the update with a filter tree.
func (su *ScopedUpdate[T]) Filter(n *filter.Node[T]) (*ScopedUpdate[T], error) {
	p, err := filter.Compile(n, su.spec.Fields)
	if err != nil {
		return nil, err
	}
	if p != nil {
		su.upd.Where(p)
	}
	return su, nil
}

// Exec updates all in-scope matched rows and returns how many changed.
func (su *ScopedUpdate[T]) Exec(ctx context.Context) (int64, error) {
	if su.upd.Empty() {
		return 0, fmt.Errorf("secure: updating %s: no assignments", su.spec.Label)
	}
	query, args, err := su.upd.Query()
	if err != nil {
		return 0, fmt.Errorf("secure: updating %s: %w", su.spec.Label, err)
	}
	var res sql.Result
	if err := su.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("secure: updating %s: %w", su.spec.Label, err)
	}
	return res.RowsAffected()
}

// ExecByID updates a single row by its resource identifier. The row
// must exist inside the caller's scope; otherwise a NotFoundError is
// returned and nothing is written.
func (su *ScopedUpdate[T]) ExecByID(ctx context.Context, id uuid.UUID) error {
	col, ok := su.spec.Scope.Resource()
	if !ok {
		return &UnsupportedDimensionError{Entity: su.spec.Label, Dimension: "resource"}
	}
	su.upd.Where(sql.EQ(col, id.String()))
	affected, err := su.Exec(ctx)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &NotFoundError{label: su.spec.Label, id: id}
	}
	return nil
}

// Delete is an unscoped bulk delete of entity T. Apply binds the
// caller's scope as the WHERE restriction.
type Delete[T any] struct {
	drv  dialect.Driver
	spec *entity.Spec[T]
	del  *sql.Deleter
}

// DeleteMany starts a delete over T.
func DeleteMany[T any](drv dialect.Driver, spec *entity.Spec[T]) *Delete[T] {
	return &Delete[T]{
		drv:  drv,
		spec: spec,
		del:  sql.Delete(spec.Table).Dialect(drv.Dialect()),
	}
}

// Apply binds the caller's scope into the delete.
func (d *Delete[T]) Apply(scope security.AccessScope) (*ScopedDelete[T], error) {
	if err := d.spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScope, err)
	}
	pred, _ := scopePredicate(d.spec.Label, d.spec.Table, "delete", d.spec.Scope, scope)
	d.del.Where(pred)
	return &ScopedDelete[T]{drv: d.drv, spec: d.spec, del: d.del}, nil
}

// ScopedDelete is a delete bound to an access scope.
type ScopedDelete[T any] struct {
	drv  dialect.Driver
	spec *entity.Spec[T]
	del  *sql.Deleter
}

// Filter narrows the delete with a filter tree.
func (sd *ScopedDelete[T]) Filter(n *filter.Node[T]) (*ScopedDelete[T], error) {
	p, err := filter.Compile(n, sd.spec.Fields)
	if err != nil {
		return nil, err
	}
	if p != nil {
		sd.del.Where(p)
	}
	return sd, nil
}

// Exec deletes all in-scope matched rows and returns how many were removed.
func (sd *ScopedDelete[T]) Exec(ctx context.Context) (int64, error) {
	query, args, err := sd.del.Query()
	if err != nil {
		return 0, fmt.Errorf("secure: deleting %s: %w", sd.spec.Label, err)
	}
	var res sql.Result
	if err := sd.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("secure: deleting %s: %w", sd.spec.Label, err)
	}
	return res.RowsAffected()
}
