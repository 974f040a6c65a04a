package sql

import "strings"

// Predicate is a where predicate. Predicates render lazily against the
// builder's dialect, so the same tree can serve postgres, mysql and sqlite.
type Predicate struct {
	fns []func(*Builder)
}

// P creates a new predicate.
func P(fns ...func(*Builder)) *Predicate {
	return &Predicate{fns: fns}
}

// Append appends a new rendering function to the predicate.
func (p *Predicate) Append(f func(*Builder)) *Predicate {
	p.fns = append(p.fns, f)
	return p
}

func (p *Predicate) clone() *Predicate {
	return &Predicate{fns: append([]func(*Builder){}, p.fns...)}
}

func (p *Predicate) render(b *Builder) {
	for _, f := range p.fns {
		f(b)
	}
}

// Query returns the query representation of the predicate for the given
// dialect, mainly for tests and debugging.
func (p *Predicate) Query(dialect string) (string, []any, error) {
	b := NewBuilder(dialect)
	p.render(b)
	return b.String(), b.args, b.Err()
}

// True returns a predicate that always evaluates to true.
func True() *Predicate {
	return P(func(b *Builder) { b.WriteString("1 = 1") })
}

// False returns a predicate that always evaluates to false.
func False() *Predicate {
	return P(func(b *Builder) { b.WriteString("1 = 0") })
}

// And combines the given predicates with AND, parenthesized. Without
// operands it renders as the AND identity, a true predicate.
func And(preds ...*Predicate) *Predicate {
	if len(preds) == 0 {
		return True()
	}
	return nary("AND", preds)
}

// Or combines the given predicates with OR, parenthesized. Without
// operands it renders as the OR identity, a false predicate.
func Or(preds ...*Predicate) *Predicate {
	if len(preds) == 0 {
		return False()
	}
	return nary("OR", preds)
}

func nary(op string, preds []*Predicate) *Predicate {
	if len(preds) == 1 {
		return preds[0]
	}
	return P(func(b *Builder) {
		b.WriteByte('(')
		for i, p := range preds {
			if i > 0 {
				b.WriteByte(' ')
				b.WriteString(op)
				b.WriteByte(' ')
			}
			p.render(b)
		}
		b.WriteByte(')')
	})
}

// Not negates the given predicate.
func Not(p *Predicate) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("NOT (")
		p.render(b)
		b.WriteByte(')')
	})
}

func binary(col, op string, v any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col)
		b.WriteByte(' ')
		b.WriteString(op)
		b.WriteByte(' ')
		b.Arg(v)
	})
}

// EQ returns a "=" predicate.
func EQ(col string, v any) *Predicate { return binary(col, "=", v) }

// NEQ returns a "<>" predicate.
func NEQ(col string, v any) *Predicate { return binary(col, "<>", v) }

// GT returns a ">" predicate.
func GT(col string, v any) *Predicate { return binary(col, ">", v) }

// GTE returns a ">=" predicate.
func GTE(col string, v any) *Predicate { return binary(col, ">=", v) }

// LT returns a "<" predicate.
func LT(col string, v any) *Predicate { return binary(col, "<", v) }

// LTE returns a "<=" predicate.
func LTE(col string, v any) *Predicate { return binary(col, "<=", v) }

// In returns an "IN" predicate. An empty list renders as a false
// predicate, never as invalid SQL.
func In(col string, vs ...any) *Predicate {
	if len(vs) == 0 {
		return False()
	}
	return P(func(b *Builder) {
		b.Ident(col)
		b.WriteString(" IN (")
		b.Args(vs...)
		b.WriteByte(')')
	})
}

// NotIn returns a "NOT IN" predicate. An empty list renders as a true
// predicate.
func NotIn(col string, vs ...any) *Predicate {
	if len(vs) == 0 {
		return True()
	}
	return P(func(b *Builder) {
		b.Ident(col)
		b.WriteString(" NOT IN (")
		b.Args(vs...)
		b.WriteByte(')')
	})
}

// IsNull returns an "IS NULL" predicate.
func IsNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col)
		b.WriteString(" IS NULL")
	})
}

// NotNull returns an "IS NOT NULL" predicate.
func NotNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col)
		b.WriteString(" IS NOT NULL")
	})
}

// Like returns a "LIKE" predicate with a backslash escape clause.
// The pattern must already be escaped with EscapeLike.
func Like(col, pattern string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col)
		b.WriteString(" LIKE ")
		b.Arg(pattern)
		b.WriteString(" ESCAPE ")
		b.Arg(`\`)
	})
}

// EscapeLike escapes the LIKE meta characters in the given string.
func EscapeLike(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	for _, ch := range s {
		switch ch {
		case '%', '_', '\\':
			out.WriteByte('\\')
		}
		out.WriteRune(ch)
	}
	return out.String()
}

// Contains returns a LIKE '%v%' predicate for the given column.
func Contains(col, sub string) *Predicate {
	return Like(col, "%"+EscapeLike(sub)+"%")
}

// HasPrefix returns a LIKE 'v%' predicate for the given column.
func HasPrefix(col, prefix string) *Predicate {
	return Like(col, EscapeLike(prefix)+"%")
}

// HasSuffix returns a LIKE '%v' predicate for the given column.
func HasSuffix(col, suffix string) *Predicate {
	return Like(col, "%"+EscapeLike(suffix))
}

// PredicateFunc is a constraint type for predicate functions.
// It allows generic field types to work with any predicate type that is
// based on func(*Selector).
type PredicateFunc interface {
	~func(*Selector)
}

// FieldEQ returns a selector predicate asserting the field equals v.
func FieldEQ(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(EQ(s.C(name), v)) }
}

// FieldNEQ returns a selector predicate asserting the field does not equal v.
func FieldNEQ(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(NEQ(s.C(name), v)) }
}

// FieldGT returns a selector predicate asserting the field is greater than v.
func FieldGT(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(GT(s.C(name), v)) }
}

// FieldGTE returns a selector predicate asserting the field is greater than
// or equal to v.
func FieldGTE(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(GTE(s.C(name), v)) }
}

// FieldLT returns a selector predicate asserting the field is less than v.
func FieldLT(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(LT(s.C(name), v)) }
}

// FieldLTE returns a selector predicate asserting the field is less than or
// equal to v.
func FieldLTE(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(LTE(s.C(name), v)) }
}

// FieldIn returns a selector predicate asserting the field is in vs.
func FieldIn[T any](name string, vs ...T) func(*Selector) {
	return func(s *Selector) {
		v := make([]any, len(vs))
		for i := range vs {
			v[i] = vs[i]
		}
		s.Where(In(s.C(name), v...))
	}
}

// FieldNotIn returns a selector predicate asserting the field is not in vs.
func FieldNotIn[T any](name string, vs ...T) func(*Selector) {
	return func(s *Selector) {
		v := make([]any, len(vs))
		for i := range vs {
			v[i] = vs[i]
		}
		s.Where(NotIn(s.C(name), v...))
	}
}

// FieldIsNull returns a selector predicate asserting the field is NULL.
func FieldIsNull(name string) func(*Selector) {
	return func(s *Selector) { s.Where(IsNull(s.C(name))) }
}

// FieldNotNull returns a selector predicate asserting the field is not NULL.
func FieldNotNull(name string) func(*Selector) {
	return func(s *Selector) { s.Where(NotNull(s.C(name))) }
}

// FieldContains returns a selector predicate asserting the field contains v.
func FieldContains(name, v string) func(*Selector) {
	return func(s *Selector) { s.Where(Contains(s.C(name), v)) }
}

// FieldHasPrefix returns a selector predicate asserting the field starts with v.
func FieldHasPrefix(name, v string) func(*Selector) {
	return func(s *Selector) { s.Where(HasPrefix(s.C(name), v)) }
}

// FieldHasSuffix returns a selector predicate asserting the field ends with v.
func FieldHasSuffix(name, v string) func(*Selector) {
	return func(s *Selector) { s.Where(HasSuffix(s.C(name), v)) }
}

// Field is a generic comparable field that provides type-safe predicate
// methods. It dramatically reduces generated code by defining predicates
// once via generics.
//
// Usage:
//
//	var CreatedAt = sql.Field[predicate.Order, time.Time]("created_at")
//	query.Where(order.CreatedAt.LT(cutoff))
type Field[P PredicateFunc, T any] string

// Name returns the field name.
func (f Field[P, T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f Field[P, T]) EQ(v T) P { return P(FieldEQ(string(f), v)) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f Field[P, T]) NEQ(v T) P { return P(FieldNEQ(string(f), v)) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f Field[P, T]) GT(v T) P { return P(FieldGT(string(f), v)) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f Field[P, T]) GTE(v T) P { return P(FieldGTE(string(f), v)) }

// LT returns a predicate that checks if the field is less than the given value.
func (f Field[P, T]) LT(v T) P { return P(FieldLT(string(f), v)) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f Field[P, T]) LTE(v T) P { return P(FieldLTE(string(f), v)) }

// In returns a predicate that checks if the field value is in the given list.
func (f Field[P, T]) In(vs ...T) P { return P(FieldIn(string(f), vs...)) }

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f Field[P, T]) NotIn(vs ...T) P { return P(FieldNotIn(string(f), vs...)) }

// IsNull returns a predicate that checks if the field is NULL.
func (f Field[P, T]) IsNull() P { return P(FieldIsNull(string(f))) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f Field[P, T]) NotNull() P { return P(FieldNotNull(string(f))) }

// StringField is a generic string field that provides type-safe predicate
// methods, including string pattern matching.
//
// Usage:
//
//	var Email = sql.StringField[predicate.User]("email")
//	query.Where(user.Email.Contains("@gmail"))
type StringField[P PredicateFunc] string

// Name returns the field name.
func (f StringField[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f StringField[P]) EQ(v string) P { return P(FieldEQ(string(f), v)) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f StringField[P]) NEQ(v string) P { return P(FieldNEQ(string(f), v)) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f StringField[P]) GT(v string) P { return P(FieldGT(string(f), v)) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f StringField[P]) GTE(v string) P { return P(FieldGTE(string(f), v)) }

// LT returns a predicate that checks if the field is less than the given value.
func (f StringField[P]) LT(v string) P { return P(FieldLT(string(f), v)) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f StringField[P]) LTE(v string) P { return P(FieldLTE(string(f), v)) }

// In returns a predicate that checks if the field value is in the given list.
func (f StringField[P]) In(vs ...string) P { return P(FieldIn(string(f), vs...)) }

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f StringField[P]) NotIn(vs ...string) P { return P(FieldNotIn(string(f), vs...)) }

// Contains returns a predicate that checks if the field contains the given substring.
func (f StringField[P]) Contains(v string) P { return P(FieldContains(string(f), v)) }

// HasPrefix returns a predicate that checks if the field has the given prefix.
func (f StringField[P]) HasPrefix(v string) P { return P(FieldHasPrefix(string(f), v)) }

// HasSuffix returns a predicate that checks if the field has the given suffix.
func (f StringField[P]) HasSuffix(v string) P { return P(FieldHasSuffix(string(f), v)) }
