package filter

import (
	"errors"
	"fmt"

	"github.com/hypernetix/hyperspot-sub000/dialect/sql"
	"github.com/hypernetix/hyperspot-sub000/entity"
)

// ErrUnknownField is returned when a filter references a field the
// entity does not expose.
var ErrUnknownField = errors.New("filter: unknown field")

// ErrKindMismatch is returned when a filter value does not match the
// declared kind of its field, or an operator does not apply to the kind.
var ErrKindMismatch = errors.New("filter: value kind mismatch")

// Compile maps the filter tree onto a SQL predicate using the entity's
// field map. Every leaf is resolved to its storage column and its value
// validated against the field's declared kind. A nil tree compiles to a
// nil predicate (no filter).
func Compile[E any](n *Node[E], fm *entity.FieldMap) (*sql.Predicate, error) {
	if n == nil {
		return nil, nil
	}
	if fm == nil {
		return nil, fmt.Errorf("filter: nil field map")
	}
	return compile(n, fm)
}

func compile[E any](n *Node[E], fm *entity.FieldMap) (*sql.Predicate, error) {
	switch n.kind {
	case kindAnd, kindOr:
		preds := make([]*sql.Predicate, 0, len(n.kids))
		for _, k := range n.kids {
			p, err := compile(k, fm)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		}
		if n.kind == kindAnd {
			return sql.And(preds...), nil
		}
		return sql.Or(preds...), nil
	case kindNot:
		p, err := compile(n.kids[0], fm)
		if err != nil {
			return nil, err
		}
		return sql.Not(p), nil
	case kindCmp:
		return compileCmp(n, fm)
	default:
		return nil, fmt.Errorf("filter: malformed node")
	}
}

func compileCmp[E any](n *Node[E], fm *entity.FieldMap) (*sql.Predicate, error) {
	f, ok := fm.Lookup(n.field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, n.field)
	}
	if n.op == OpIn {
		vs := make([]any, 0, len(n.values))
		for _, v := range n.values {
			cv, err := f.Kind.Coerce(v)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %v", ErrKindMismatch, n.field, err)
			}
			vs = append(vs, cv)
		}
		return sql.In(f.Column, vs...), nil
	}
	if err := opApplies(n.op, f.Kind); err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrKindMismatch, n.field, err)
	}
	cv, err := f.Kind.Coerce(n.value)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrKindMismatch, n.field, err)
	}
	switch n.op {
	case OpEQ:
		return sql.EQ(f.Column, cv), nil
	case OpNEQ:
		return sql.NEQ(f.Column, cv), nil
	case OpGT:
		return sql.GT(f.Column, cv), nil
	case OpGTE:
		return sql.GTE(f.Column, cv), nil
	case OpLT:
		return sql.LT(f.Column, cv), nil
	case OpLTE:
		return sql.LTE(f.Column, cv), nil
	case OpContains:
		return sql.Contains(f.Column, cv.(string)), nil
	case OpStartsWith:
		return sql.HasPrefix(f.Column, cv.(string)), nil
	case OpEndsWith:
		return sql.HasSuffix(f.Column, cv.(string)), nil
	default:
		return nil, fmt.Errorf("filter: unsupported operator %s", n.op)
	}
}

func opApplies(op Op, k entity.FieldKind) error {
	switch op {
	case OpContains, OpStartsWith, OpEndsWith:
		if k != entity.KindString {
			return fmt.Errorf("operator %s requires a string field, got %s", op, k)
		}
	case OpGT, OpGTE, OpLT, OpLTE:
		if k == entity.KindBool {
			return fmt.Errorf("operator %s does not apply to bool fields", op)
		}
	}
	return nil
}
