// Package filter provides the typed filter expression tree callers attach
// to scoped queries. Leaves reference fields through per-entity typed refs
// (generated from annotations), so a filter over fields an entity does not
// expose cannot be constructed. Compile maps a tree onto a SQL predicate,
// validating every value against the field's declared kind on the way.
package filter

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Op is a comparison operator.
type Op int8

const (
	OpEQ Op = iota + 1
	OpNEQ
	OpGT
	OpGTE
	OpLT
	OpLTE
	OpIn
	OpContains
	OpStartsWith
	OpEndsWith
)

// String returns the operator name used in fingerprints and errors.
func (o Op) String() string {
	switch o {
	case OpEQ:
		return "eq"
	case OpNEQ:
		return "ne"
	case OpGT:
		return "gt"
	case OpGTE:
		return "ge"
	case OpLT:
		return "lt"
	case OpLTE:
		return "le"
	case OpIn:
		return "in"
	case OpContains:
		return "contains"
	case OpStartsWith:
		return "startswith"
	case OpEndsWith:
		return "endswith"
	default:
		return "invalid"
	}
}

type nodeKind int8

const (
	kindAnd nodeKind = iota + 1
	kindOr
	kindNot
	kindCmp
)

// Node is a filter expression over entity E. The type parameter keeps
// trees of different entities from mixing: a node built from one
// entity's field refs cannot be attached to another entity's query.
type Node[E any] struct {
	kind   nodeKind
	kids   []*Node[E]
	field  string
	op     Op
	value  any
	values []any
}

// And combines the given nodes conjunctively. Nil children are dropped;
// And of nothing is nil (no filter).
func And[E any](nodes ...*Node[E]) *Node[E] {
	return combine(kindAnd, nodes)
}

// Or combines the given nodes disjunctively.
func Or[E any](nodes ...*Node[E]) *Node[E] {
	return combine(kindOr, nodes)
}

func combine[E any](k nodeKind, nodes []*Node[E]) *Node[E] {
	kids := make([]*Node[E], 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			kids = append(kids, n)
		}
	}
	switch len(kids) {
	case 0:
		return nil
	case 1:
		return kids[0]
	default:
		return &Node[E]{kind: k, kids: kids}
	}
}

// Not negates the given node.
func Not[E any](n *Node[E]) *Node[E] {
	if n == nil {
		return nil
	}
	return &Node[E]{kind: kindNot, kids: []*Node[E]{n}}
}

func cmp[E any](field string, op Op, value any) *Node[E] {
	return &Node[E]{kind: kindCmp, field: field, op: op, value: value}
}

func in[E any](field string, values []any) *Node[E] {
	return &Node[E]{kind: kindCmp, field: field, op: OpIn, values: values}
}

// Depth returns the maximum nesting depth of the tree. Used to enforce
// request input limits.
func Depth[E any](n *Node[E]) int {
	if n == nil {
		return 0
	}
	max := 0
	for _, k := range n.kids {
		if d := Depth(k); d > max {
			max = d
		}
	}
	return max + 1
}

// StringRef is a typed reference to a string field of entity E.
type StringRef[E any] string

func (f StringRef[E]) EQ(v string) *Node[E]  { return cmp[E](string(f), OpEQ, v) }
func (f StringRef[E]) NEQ(v string) *Node[E] { return cmp[E](string(f), OpNEQ, v) }
func (f StringRef[E]) GT(v string) *Node[E]  { return cmp[E](string(f), OpGT, v) }
func (f StringRef[E]) GTE(v string) *Node[E] { return cmp[E](string(f), OpGTE, v) }
func (f StringRef[E]) LT(v string) *Node[E]  { return cmp[E](string(f), OpLT, v) }
func (f StringRef[E]) LTE(v string) *Node[E] { return cmp[E](string(f), OpLTE, v) }
func (f StringRef[E]) In(vs ...string) *Node[E] {
	return in[E](string(f), anySlice(vs))
}
func (f StringRef[E]) Contains(v string) *Node[E]   { return cmp[E](string(f), OpContains, v) }
func (f StringRef[E]) StartsWith(v string) *Node[E] { return cmp[E](string(f), OpStartsWith, v) }
func (f StringRef[E]) EndsWith(v string) *Node[E]   { return cmp[E](string(f), OpEndsWith, v) }

// Int64Ref is a typed reference to an integer field of entity E.
type Int64Ref[E any] string

func (f Int64Ref[E]) EQ(v int64) *Node[E]     { return cmp[E](string(f), OpEQ, v) }
func (f Int64Ref[E]) NEQ(v int64) *Node[E]    { return cmp[E](string(f), OpNEQ, v) }
func (f Int64Ref[E]) GT(v int64) *Node[E]     { return cmp[E](string(f), OpGT, v) }
func (f Int64Ref[E]) GTE(v int64) *Node[E]    { return cmp[E](string(f), OpGTE, v) }
func (f Int64Ref[E]) LT(v int64) *Node[E]     { return cmp[E](string(f), OpLT, v) }
func (f Int64Ref[E]) LTE(v int64) *Node[E]    { return cmp[E](string(f), OpLTE, v) }
func (f Int64Ref[E]) In(vs ...int64) *Node[E] { return in[E](string(f), anySlice(vs)) }

// Float64Ref is a typed reference to a float field of entity E.
type Float64Ref[E any] string

func (f Float64Ref[E]) EQ(v float64) *Node[E]  { return cmp[E](string(f), OpEQ, v) }
func (f Float64Ref[E]) NEQ(v float64) *Node[E] { return cmp[E](string(f), OpNEQ, v) }
func (f Float64Ref[E]) GT(v float64) *Node[E]  { return cmp[E](string(f), OpGT, v) }
func (f Float64Ref[E]) GTE(v float64) *Node[E] { return cmp[E](string(f), OpGTE, v) }
func (f Float64Ref[E]) LT(v float64) *Node[E]  { return cmp[E](string(f), OpLT, v) }
func (f Float64Ref[E]) LTE(v float64) *Node[E] { return cmp[E](string(f), OpLTE, v) }

// BoolRef is a typed reference to a boolean field of entity E.
type BoolRef[E any] string

func (f BoolRef[E]) EQ(v bool) *Node[E]  { return cmp[E](string(f), OpEQ, v) }
func (f BoolRef[E]) NEQ(v bool) *Node[E] { return cmp[E](string(f), OpNEQ, v) }

// UUIDRef is a typed reference to an identifier field of entity E.
type UUIDRef[E any] string

func (f UUIDRef[E]) EQ(v uuid.UUID) *Node[E]  { return cmp[E](string(f), OpEQ, v) }
func (f UUIDRef[E]) NEQ(v uuid.UUID) *Node[E] { return cmp[E](string(f), OpNEQ, v) }
func (f UUIDRef[E]) In(vs ...uuid.UUID) *Node[E] {
	return in[E](string(f), anySlice(vs))
}

// TimeRef is a typed reference to a timestamp field of entity E.
type TimeRef[E any] string

func (f TimeRef[E]) EQ(v time.Time) *Node[E]  { return cmp[E](string(f), OpEQ, v) }
func (f TimeRef[E]) NEQ(v time.Time) *Node[E] { return cmp[E](string(f), OpNEQ, v) }
func (f TimeRef[E]) GT(v time.Time) *Node[E]  { return cmp[E](string(f), OpGT, v) }
func (f TimeRef[E]) GTE(v time.Time) *Node[E] { return cmp[E](string(f), OpGTE, v) }
func (f TimeRef[E]) LT(v time.Time) *Node[E]  { return cmp[E](string(f), OpLT, v) }
func (f TimeRef[E]) LTE(v time.Time) *Node[E] { return cmp[E](string(f), OpLTE, v) }

// DateRef is a typed reference to a calendar-date field of entity E.
type DateRef[E any] string

func (f DateRef[E]) EQ(v time.Time) *Node[E]  { return cmp[E](string(f), OpEQ, v) }
func (f DateRef[E]) NEQ(v time.Time) *Node[E] { return cmp[E](string(f), OpNEQ, v) }
func (f DateRef[E]) GT(v time.Time) *Node[E]  { return cmp[E](string(f), OpGT, v) }
func (f DateRef[E]) GTE(v time.Time) *Node[E] { return cmp[E](string(f), OpGTE, v) }
func (f DateRef[E]) LT(v time.Time) *Node[E]  { return cmp[E](string(f), OpLT, v) }
func (f DateRef[E]) LTE(v time.Time) *Node[E] { return cmp[E](string(f), OpLTE, v) }

// TimeOfDayRef is a typed reference to a wall-clock-time field of entity E.
// Values use the "15:04:05" form.
type TimeOfDayRef[E any] string

func (f TimeOfDayRef[E]) EQ(v string) *Node[E]  { return cmp[E](string(f), OpEQ, v) }
func (f TimeOfDayRef[E]) GT(v string) *Node[E]  { return cmp[E](string(f), OpGT, v) }
func (f TimeOfDayRef[E]) GTE(v string) *Node[E] { return cmp[E](string(f), OpGTE, v) }
func (f TimeOfDayRef[E]) LT(v string) *Node[E]  { return cmp[E](string(f), OpLT, v) }
func (f TimeOfDayRef[E]) LTE(v string) *Node[E] { return cmp[E](string(f), OpLTE, v) }

// DecimalRef is a typed reference to an exact-decimal field of entity E.
// Values are decimal literals carried as strings.
type DecimalRef[E any] string

func (f DecimalRef[E]) EQ(v string) *Node[E]  { return cmp[E](string(f), OpEQ, v) }
func (f DecimalRef[E]) NEQ(v string) *Node[E] { return cmp[E](string(f), OpNEQ, v) }
func (f DecimalRef[E]) GT(v string) *Node[E]  { return cmp[E](string(f), OpGT, v) }
func (f DecimalRef[E]) GTE(v string) *Node[E] { return cmp[E](string(f), OpGTE, v) }
func (f DecimalRef[E]) LT(v string) *Node[E]  { return cmp[E](string(f), OpLT, v) }
func (f DecimalRef[E]) LTE(v string) *Node[E] { return cmp[E](string(f), OpLTE, v) }

func anySlice[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i := range vs {
		out[i] = vs[i]
	}
	return out
}

// Field constructs an untyped comparison leaf. It exists for protocol
// adapters that parse external filter syntax; field names are still
// validated against the entity's field map at compile time.
func Field[E any](name string, op Op, value any) *Node[E] {
	if op == OpIn {
		vs, ok := value.([]any)
		if !ok {
			vs = []any{value}
		}
		return in[E](name, vs)
	}
	return cmp[E](name, op, value)
}

func (n *Node[E]) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.kind {
	case kindAnd:
		return fmt.Sprintf("and(%d)", len(n.kids))
	case kindOr:
		return fmt.Sprintf("or(%d)", len(n.kids))
	case kindNot:
		return "not"
	default:
		return fmt.Sprintf("%s %s", n.field, n.op)
	}
}
