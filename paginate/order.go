// Package paginate implements cursor pagination for scoped queries:
// signed-token orderings with a mandatory unique tiebreaker, a versioned
// opaque cursor binding the sort order and a fingerprint of the active
// filter, keyset continuation predicates, and per-resource page size
// limits. The package is pure; execution stays behind the secure layer.
package paginate

import (
	"fmt"
	"strings"
)

// SortDir is a sort direction.
type SortDir int8

const (
	// Asc sorts ascending, rendered as a "+" token prefix.
	Asc SortDir = iota + 1
	// Desc sorts descending, rendered as a "-" token prefix.
	Desc
)

// String returns the direction name.
func (d SortDir) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// OrderField is one (field, direction) pair of an ordering.
type OrderField struct {
	Field string
	Dir   SortDir
}

// OrderSpec is an ordered list of sort terms. For pagination the last
// term must reference a declared-unique field, guaranteeing a total
// order across pages.
type OrderSpec []OrderField

// ParseOrder parses signed order tokens ("-created_at", "+name", bare
// means ascending) into an OrderSpec.
func ParseOrder(tokens []string) (OrderSpec, error) {
	spec := make(OrderSpec, 0, len(tokens))
	for _, tok := range tokens {
		f := OrderField{Dir: Asc}
		switch {
		case tok == "" || tok == "+" || tok == "-":
			return nil, fmt.Errorf("%w: empty order token", ErrUnknownOrderField)
		case tok[0] == '+':
			f.Field = tok[1:]
		case tok[0] == '-':
			f.Field = tok[1:]
			f.Dir = Desc
		default:
			f.Field = tok
		}
		f.Field = strings.ToLower(f.Field)
		spec = append(spec, f)
	}
	return spec, nil
}

// Tokens renders the spec as signed tokens, always carrying an explicit
// sign so the rendering round-trips byte for byte.
func (o OrderSpec) Tokens() []string {
	tokens := make([]string, len(o))
	for i, f := range o {
		sign := "+"
		if f.Dir == Desc {
			sign = "-"
		}
		tokens[i] = sign + f.Field
	}
	return tokens
}

// Contains reports whether the spec references the given field.
func (o OrderSpec) Contains(field string) bool {
	field = strings.ToLower(field)
	for _, f := range o {
		if f.Field == field {
			return true
		}
	}
	return false
}
