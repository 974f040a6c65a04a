// Package secure is the gate between application code and storage: every
// read and write goes through a scope transition that binds the caller's
// identity-derived access scope into the statement before any execution
// method becomes reachable. Unscoped builders carry no execution methods,
// so an unscoped query is a compile error, not a runtime incident.
package secure

import (
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/hypernetix/hyperspot-sub000/dialect/sql"
	"github.com/hypernetix/hyperspot-sub000/entity"
	"github.com/hypernetix/hyperspot-sub000/security"
)

// Outcome classifies how a scope decision resolved.
type Outcome int8

const (
	// OutcomeScoped means per-dimension predicates were attached.
	OutcomeScoped Outcome = iota + 1
	// OutcomeDenied means the decision resolved to deny-all.
	OutcomeDenied
	// OutcomeUnrestricted means the entity is exempt from scoping.
	OutcomeUnrestricted
	// OutcomeUnscoped means the raw escape hatch was used.
	OutcomeUnscoped
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeScoped:
		return "scoped"
	case OutcomeDenied:
		return "denied"
	case OutcomeUnrestricted:
		return "unrestricted"
	case OutcomeUnscoped:
		return "unscoped"
	default:
		return "invalid"
	}
}

// Decision describes one scope resolution. Decisions are handed to the
// registered observer; an external audit subsystem consumes them.
type Decision struct {
	Entity     string
	Table      string
	Op         string // query, insert, update, delete
	Outcome    Outcome
	Reason     string   // populated for denials
	Dimensions []string // dimensions that contributed predicates
}

// Observer receives every scope decision. It must be fast and must not
// block; it runs on the request path.
type Observer func(Decision)

var observer atomic.Pointer[Observer]

// SetObserver registers the scope decision observer. Passing nil removes it.
func SetObserver(fn Observer) {
	if fn == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&fn)
}

func notify(d Decision) {
	if fn := observer.Load(); fn != nil {
		(*fn)(d)
	}
}

var logger atomic.Pointer[slog.Logger]

// SetLogger sets the logger used for configuration smells and escape
// hatch warnings. Defaults to slog.Default.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func log() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// scopePredicate composes the access predicate for one entity and scope.
// The composition is fixed and deny-by-default:
//
//   - unrestricted entity: TRUE, scope ignored entirely
//   - empty scope (no tenants, no resources): FALSE
//   - requested dimension with a declared column: column IN (ids)
//   - requested dimension without a declared column: FALSE
//   - multiple dimensions: AND of the fragments
func scopePredicate(label, table, op string, spec entity.ScopeSpec, scope security.AccessScope) (*sql.Predicate, Decision) {
	d := Decision{Entity: label, Table: table, Op: op}
	if spec.IsUnrestricted() {
		d.Outcome = OutcomeUnrestricted
		notify(d)
		return sql.True(), d
	}
	if scope.IsEmpty() {
		d.Outcome = OutcomeDenied
		d.Reason = "empty scope"
		notify(d)
		return sql.False(), d
	}
	var preds []*sql.Predicate
	deny := func(dimension string) (*sql.Predicate, Decision) {
		d.Outcome = OutcomeDenied
		d.Reason = dimension + " scoping requested but entity declares no " + dimension + " column"
		log().Warn("scope dimension not supported by entity, denying all",
			"entity", label, "dimension", dimension)
		notify(d)
		return sql.False(), d
	}
	if len(scope.Tenants) > 0 {
		col, ok := spec.Tenant()
		if !ok {
			return deny("tenant")
		}
		preds = append(preds, sql.In(col, uuidArgs(scope.Tenants)...))
		d.Dimensions = append(d.Dimensions, "tenant")
	}
	if len(scope.Resources) > 0 {
		col, ok := spec.Resource()
		if !ok {
			return deny("resource")
		}
		preds = append(preds, sql.In(col, uuidArgs(scope.Resources)...))
		d.Dimensions = append(d.Dimensions, "resource")
	}
	if len(scope.Owners) > 0 {
		col, ok := spec.Owner()
		if !ok {
			return deny("owner")
		}
		preds = append(preds, sql.In(col, uuidArgs(scope.Owners)...))
		d.Dimensions = append(d.Dimensions, "owner")
	}
	if len(scope.Types) > 0 {
		col, ok := spec.Type()
		if !ok {
			return deny("type")
		}
		args := make([]any, len(scope.Types))
		for i, t := range scope.Types {
			args[i] = t
		}
		preds = append(preds, sql.In(col, args...))
		d.Dimensions = append(d.Dimensions, "type")
	}
	d.Outcome = OutcomeScoped
	notify(d)
	return sql.And(preds...), d
}

func uuidArgs(ids []uuid.UUID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	return args
}

func asUUID(v any) (uuid.UUID, bool) {
	switch id := v.(type) {
	case uuid.UUID:
		return id, true
	case string:
		parsed, err := uuid.Parse(id)
		if err != nil {
			return uuid.Nil, false
		}
		return parsed, true
	default:
		return uuid.Nil, false
	}
}
