// Package sql provides the relational statement builders the secure layer
// composes scope predicates, filters and keyset pagination on top of.
// The builders render dialect-aware SQL text and collect args; execution
// goes through the dialect.Driver abstraction.
package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hypernetix/hyperspot-sub000/dialect"
)

// Builder is the base query builder for the sql dsl.
// It is used by all builder types (Selector, Inserter, Updater, Deleter)
// to render identifiers, placeholders and collect arguments.
type Builder struct {
	sb      strings.Builder
	dialect string
	args    []any
	errs    []error
}

// NewBuilder returns a Builder for the given dialect.
func NewBuilder(d string) *Builder {
	return &Builder{dialect: d}
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() string { return b.dialect }

// Quote quotes the given identifier with the characters based
// on the configured dialect. It defaults to "`".
func (b *Builder) Quote(ident string) string {
	switch {
	case b.dialect == dialect.MySQL:
		return "`" + ident + "`"
	default:
		// postgres and sqlite.
		return `"` + ident + `"`
	}
}

// Ident writes the given identifier, quoting each dot-separated part so
// that qualified columns ("t"."col") render correctly.
func (b *Builder) Ident(s string) {
	switch {
	case s == "*":
		b.WriteString(s)
	case strings.ContainsRune(s, '.'):
		parts := strings.Split(s, ".")
		for i, p := range parts {
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(b.Quote(p))
		}
	default:
		b.WriteString(b.Quote(s))
	}
}

// Arg appends an input argument to the builder and writes
// the dialect-specific placeholder.
func (b *Builder) Arg(v any) {
	b.args = append(b.args, v)
	if b.dialect == dialect.Postgres {
		b.WriteString("$" + strconv.Itoa(len(b.args)))
		return
	}
	b.WriteByte('?')
}

// Args appends a list of input arguments separated by commas.
func (b *Builder) Args(vs ...any) {
	for i, v := range vs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Arg(v)
	}
}

// WriteString writes the given string to the underlying buffer.
func (b *Builder) WriteString(s string) { b.sb.WriteString(s) }

// WriteByte writes the given byte to the underlying buffer.
func (b *Builder) WriteByte(c byte) { _ = b.sb.WriteByte(c) }

// AddError appends an error to the builder. Rendering continues, but
// Query returns the joined error so malformed statements never execute.
func (b *Builder) AddError(err error) {
	if err != nil {
		b.errs = append(b.errs, err)
	}
}

// Err returns a concatenated error of all errors encountered during
// the query-building, or nil if none.
func (b *Builder) Err() error {
	if len(b.errs) == 0 {
		return nil
	}
	br := strings.Builder{}
	for i := range b.errs {
		if i > 0 {
			br.WriteString("; ")
		}
		br.WriteString(b.errs[i].Error())
	}
	return fmt.Errorf("%s", br.String())
}

// String returns the accumulated SQL text.
func (b *Builder) String() string { return b.sb.String() }

type (
	// querier is the interface implemented by all statement builders.
	querier interface {
		// Query returns the query representation of the
		// element and its arguments (if any).
		Query() (string, []any, error)
	}

	orderTerm struct {
		column string
		desc   bool
	}
)

// Selector is a builder for the `SELECT` statement.
type Selector struct {
	dialect  string
	table    string
	columns  []string
	where    *Predicate
	orderBy  []orderTerm
	limit    *int
	offset   *int
	distinct bool
	forUpd   bool
}

// Select returns a new selector for the given columns.
// An empty column list selects "*".
func Select(columns ...string) *Selector {
	return &Selector{columns: columns}
}

// SelectTable returns a new selector for all columns of the given table.
func SelectTable(table string) *Selector {
	return Select().From(table)
}

// Dialect sets the dialect the statement is rendered for.
func (s *Selector) Dialect(d string) *Selector {
	s.dialect = d
	return s
}

// From sets the source table of the statement.
func (s *Selector) From(table string) *Selector {
	s.table = table
	return s
}

// Table returns the table the selector reads from.
func (s *Selector) Table() string { return s.table }

// Columns replaces the selected columns.
func (s *Selector) Columns(columns ...string) *Selector {
	s.columns = columns
	return s
}

// C returns a reference to the given column, qualified by the selector
// table when one is set.
func (s *Selector) C(column string) string {
	if s.table != "" {
		return s.table + "." + column
	}
	return column
}

// Where sets or appends the given predicate to the statement.
// Consecutive calls are combined with AND, so appended conditions
// can only narrow the result set.
func (s *Selector) Where(p *Predicate) *Selector {
	if s.where != nil {
		s.where = And(s.where, p)
	} else {
		s.where = p
	}
	return s
}

// P returns the predicate of the selector, or nil.
func (s *Selector) P() *Predicate { return s.where }

// Distinct sets the DISTINCT flag.
func (s *Selector) Distinct() *Selector {
	s.distinct = true
	return s
}

// OrderBy appends an ascending order term for the given column.
func (s *Selector) OrderBy(column string) *Selector {
	s.orderBy = append(s.orderBy, orderTerm{column: column})
	return s
}

// OrderDesc appends a descending order term for the given column.
func (s *Selector) OrderDesc(column string) *Selector {
	s.orderBy = append(s.orderBy, orderTerm{column: column, desc: true})
	return s
}

// ClearOrder removes all order terms from the statement.
func (s *Selector) ClearOrder() *Selector {
	s.orderBy = nil
	return s
}

// Limit sets the LIMIT clause.
func (s *Selector) Limit(n int) *Selector {
	s.limit = &n
	return s
}

// Offset sets the OFFSET clause.
func (s *Selector) Offset(n int) *Selector {
	s.offset = &n
	return s
}

// ForUpdate locks the selected rows (ignored on sqlite).
func (s *Selector) ForUpdate() *Selector {
	s.forUpd = true
	return s
}

// Clone returns a duplicate of the selector, including all state.
func (s *Selector) Clone() *Selector {
	if s == nil {
		return nil
	}
	c := *s
	c.columns = append([]string(nil), s.columns...)
	c.orderBy = append([]orderTerm(nil), s.orderBy...)
	if s.where != nil {
		c.where = s.where.clone()
	}
	return &c
}

// CountQuery returns the SELECT COUNT(*) form of the statement,
// dropping order and limits.
func (s *Selector) CountQuery() (string, []any, error) {
	c := s.Clone()
	c.columns = []string{"COUNT(*)"}
	c.orderBy = nil
	c.limit = nil
	c.offset = nil
	return c.Query()
}

// Query returns query representation of a `SELECT` statement.
func (s *Selector) Query() (string, []any, error) {
	b := NewBuilder(s.dialect)
	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	switch {
	case len(s.columns) == 0:
		b.WriteString("*")
	default:
		for i, c := range s.columns {
			if i > 0 {
				b.WriteString(", ")
			}
			if strings.ContainsAny(c, "(*") {
				// Aggregate expressions are written as-is.
				b.WriteString(c)
			} else {
				b.Ident(s.C(c))
			}
		}
	}
	b.WriteString(" FROM ")
	b.Ident(s.table)
	if s.where != nil {
		b.WriteString(" WHERE ")
		s.where.render(b)
	}
	for i, o := range s.orderBy {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.Ident(s.C(o.column))
		if o.desc {
			b.WriteString(" DESC")
		}
	}
	if s.limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(*s.limit))
	}
	if s.offset != nil {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(*s.offset))
	}
	if s.forUpd && s.dialect != dialect.SQLite {
		b.WriteString(" FOR UPDATE")
	}
	return b.String(), b.args, b.Err()
}

// Inserter is a builder for the `INSERT INTO` statement.
type Inserter struct {
	dialect   string
	table     string
	columns   []string
	values    []any
	returning []string
}

// Insert returns a new inserter for the given table.
func Insert(table string) *Inserter {
	return &Inserter{table: table}
}

// Dialect sets the dialect the statement is rendered for.
func (i *Inserter) Dialect(d string) *Inserter {
	i.dialect = d
	return i
}

// Table returns the table the inserter writes to.
func (i *Inserter) Table() string { return i.table }

// Set sets a column to the given value.
func (i *Inserter) Set(column string, v any) *Inserter {
	i.columns = append(i.columns, column)
	i.values = append(i.values, v)
	return i
}

// Get returns the value set for the given column and whether it was set.
func (i *Inserter) Get(column string) (any, bool) {
	for j, c := range i.columns {
		if c == column {
			return i.values[j], true
		}
	}
	return nil, false
}

// Returning adds a RETURNING clause (postgres and sqlite).
func (i *Inserter) Returning(columns ...string) *Inserter {
	i.returning = columns
	return i
}

// Query returns query representation of an `INSERT INTO` statement.
func (i *Inserter) Query() (string, []any, error) {
	b := NewBuilder(i.dialect)
	b.WriteString("INSERT INTO ")
	b.Ident(i.table)
	b.WriteString(" (")
	for j, c := range i.columns {
		if j > 0 {
			b.WriteString(", ")
		}
		b.Ident(c)
	}
	b.WriteString(") VALUES (")
	b.Args(i.values...)
	b.WriteByte(')')
	if len(i.returning) > 0 && i.dialect != dialect.MySQL {
		b.WriteString(" RETURNING ")
		for j, c := range i.returning {
			if j > 0 {
				b.WriteString(", ")
			}
			b.Ident(c)
		}
	}
	return b.String(), b.args, b.Err()
}

// Updater is a builder for the `UPDATE` statement.
type Updater struct {
	dialect string
	table   string
	columns []string
	values  []any
	where   *Predicate
}

// Update returns a new updater for the given table.
func Update(table string) *Updater {
	return &Updater{table: table}
}

// Dialect sets the dialect the statement is rendered for.
func (u *Updater) Dialect(d string) *Updater {
	u.dialect = d
	return u
}

// Table returns the table the updater writes to.
func (u *Updater) Table() string { return u.table }

// Set sets a column to the given value.
func (u *Updater) Set(column string, v any) *Updater {
	u.columns = append(u.columns, column)
	u.values = append(u.values, v)
	return u
}

// SetColumns returns the columns assigned by Set calls.
func (u *Updater) SetColumns() []string {
	return append([]string(nil), u.columns...)
}

// Where sets or appends the given predicate. Consecutive calls
// are combined with AND.
func (u *Updater) Where(p *Predicate) *Updater {
	if u.where != nil {
		u.where = And(u.where, p)
	} else {
		u.where = p
	}
	return u
}

// Empty reports whether the updater has no assignments.
func (u *Updater) Empty() bool { return len(u.columns) == 0 }

// Query returns query representation of an `UPDATE` statement.
func (u *Updater) Query() (string, []any, error) {
	b := NewBuilder(u.dialect)
	b.WriteString("UPDATE ")
	b.Ident(u.table)
	b.WriteString(" SET ")
	for j, c := range u.columns {
		if j > 0 {
			b.WriteString(", ")
		}
		b.Ident(c)
		b.WriteString(" = ")
		b.Arg(u.values[j])
	}
	if u.where != nil {
		b.WriteString(" WHERE ")
		u.where.render(b)
	}
	return b.String(), b.args, b.Err()
}

// Deleter is a builder for the `DELETE` statement.
type Deleter struct {
	dialect string
	table   string
	where   *Predicate
}

// Delete returns a new deleter for the given table.
func Delete(table string) *Deleter {
	return &Deleter{table: table}
}

// Dialect sets the dialect the statement is rendered for.
func (d *Deleter) Dialect(dl string) *Deleter {
	d.dialect = dl
	return d
}

// Table returns the table the deleter deletes from.
func (d *Deleter) Table() string { return d.table }

// Where sets or appends the given predicate. Consecutive calls
// are combined with AND.
func (d *Deleter) Where(p *Predicate) *Deleter {
	if d.where != nil {
		d.where = And(d.where, p)
	} else {
		d.where = p
	}
	return d
}

// Query returns query representation of a `DELETE` statement.
func (d *Deleter) Query() (string, []any, error) {
	b := NewBuilder(d.dialect)
	b.WriteString("DELETE FROM ")
	b.Ident(d.table)
	if d.where != nil {
		b.WriteString(" WHERE ")
		d.where.render(b)
	}
	return b.String(), b.args, b.Err()
}
