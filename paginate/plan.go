package paginate

import (
	"fmt"
	"time"

	"github.com/hypernetix/hyperspot-sub000/dialect/sql"
	"github.com/hypernetix/hyperspot-sub000/entity"
	"github.com/hypernetix/hyperspot-sub000/filter"
)

// Request is one page request over entity E.
type Request[E any] struct {
	// Filter narrows the page. Must stay unchanged across pages of one
	// pagination; the cursor carries its fingerprint.
	Filter *filter.Node[E]
	// Order holds signed order tokens. Only valid without a cursor; the
	// cursor already binds the order.
	Order []string
	// Cursor is the opaque continuation token from a previous page.
	Cursor string
	// Limit is the requested page size. Zero means the configured
	// default; values above the configured max are clamped.
	Limit int
}

// Options tunes request validation and cursor minting.
type Options struct {
	// TTL is the cursor validity window. Defaults to 7 days and is
	// never below 24 hours.
	TTL time.Duration
	// MaxOrderFields bounds the order term count. Defaults to 5.
	MaxOrderFields int
	// MaxFilterDepth bounds filter tree nesting. Defaults to 20.
	MaxFilterDepth int
	// DefaultOrder is used when a cursorless request has no order.
	// Defaults to the tiebreaker, descending.
	DefaultOrder []string
	// Tiebreaker is the field appended when the order does not end in a
	// unique field. Defaults to "id". It must be declared unique in the
	// entity's field map to take effect.
	Tiebreaker string
	// Now overrides the clock, for tests.
	Now func() time.Time
}

const (
	defaultTTL            = 7 * 24 * time.Hour
	minTTL                = 24 * time.Hour
	defaultMaxOrderFields = 5
	defaultMaxFilterDepth = 20
	defaultTiebreaker     = "id"
)

func (o Options) withDefaults() Options {
	if o.TTL == 0 {
		o.TTL = defaultTTL
	}
	if o.TTL < minTTL {
		o.TTL = minTTL
	}
	if o.MaxOrderFields <= 0 {
		o.MaxOrderFields = defaultMaxOrderFields
	}
	if o.MaxFilterDepth <= 0 {
		o.MaxFilterDepth = defaultMaxFilterDepth
	}
	if o.Tiebreaker == "" {
		o.Tiebreaker = defaultTiebreaker
	}
	if len(o.DefaultOrder) == 0 {
		o.DefaultOrder = []string{"-" + o.Tiebreaker}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type orderCol struct {
	field  string
	column string
	kind   entity.FieldKind
	desc   bool
	unique bool
}

// Plan is a validated page request resolved against an entity: the
// effective order (cursor-bound or request-supplied, tiebreaker
// enforced), the keyset continuation predicate, and the clamped limit.
// A Plan only ever narrows the statement it is applied to.
type Plan[E any] struct {
	Order      OrderSpec
	Limit      int
	Backward   bool
	FromCursor bool

	cols        []orderCol
	keyset      *sql.Predicate
	fingerprint string
	now         time.Time
}

// Prepare validates the request against the entity's field map and
// resolves it into a Plan.
func Prepare[E any](req Request[E], fm *entity.FieldMap, limits Limits, opts Options) (*Plan[E], error) {
	opts = opts.withDefaults()
	if d := filter.Depth(req.Filter); d > opts.MaxFilterDepth {
		return nil, fmt.Errorf("%w: depth %d exceeds %d", ErrFilterTooDeep, d, opts.MaxFilterDepth)
	}
	p := &Plan[E]{
		Limit:       limits.Clamp(req.Limit),
		fingerprint: filter.Fingerprint(req.Filter),
		now:         opts.Now(),
	}
	if req.Cursor != "" {
		return p.resolveCursor(req, fm, opts)
	}
	tokens := req.Order
	if len(tokens) == 0 {
		tokens = opts.DefaultOrder
	}
	if len(tokens) > opts.MaxOrderFields {
		return nil, fmt.Errorf("%w: %d fields, limit %d", ErrTooManyOrderFields, len(tokens), opts.MaxOrderFields)
	}
	order, err := ParseOrder(tokens)
	if err != nil {
		return nil, err
	}
	cols, err := resolveOrder(order, fm)
	if err != nil {
		return nil, err
	}
	// Enforce the unique tiebreaker, appending the configured default
	// when the requested order lacks one.
	if !cols[len(cols)-1].unique {
		tb, ok := fm.Lookup(opts.Tiebreaker)
		if !ok || !tb.Unique || order.Contains(opts.Tiebreaker) {
			return nil, fmt.Errorf("%w: last field %q is not unique", ErrMissingTiebreaker, order[len(order)-1].Field)
		}
		order = append(order, OrderField{Field: opts.Tiebreaker, Dir: Desc})
		cols = append(cols, orderCol{
			field:  opts.Tiebreaker,
			column: tb.Column,
			kind:   tb.Kind,
			desc:   true,
			unique: true,
		})
	}
	p.Order = order
	p.cols = cols
	return p, nil
}

func (p *Plan[E]) resolveCursor(req Request[E], fm *entity.FieldMap, opts Options) (*Plan[E], error) {
	if len(req.Order) > 0 {
		return nil, ErrOrderWithCursor
	}
	c, err := Decode(req.Cursor)
	if err != nil {
		return nil, err
	}
	if p.now.Sub(time.Unix(c.MintedAt, 0)) > opts.TTL {
		return nil, ErrCursorExpired
	}
	if c.Filter != p.fingerprint {
		return nil, ErrCursorFilterMismatch
	}
	order, err := ParseOrder(c.Order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCursorOrderMismatch, err)
	}
	cols, err := resolveOrder(order, fm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCursorOrderMismatch, err)
	}
	if !cols[len(cols)-1].unique {
		return nil, fmt.Errorf("%w: order lacks a unique tiebreaker", ErrCursorOrderMismatch)
	}
	vals := make([]any, len(cols))
	for i, col := range cols {
		v, err := col.kind.Parse(c.Keys[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
		vals[i] = v
	}
	p.Order = order
	p.cols = cols
	p.Backward = c.Dir == Backward
	p.FromCursor = true
	p.keyset = keysetPredicate(cols, vals, p.Backward)
	return p, nil
}

func resolveOrder(order OrderSpec, fm *entity.FieldMap) ([]orderCol, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("%w: empty order", ErrUnknownOrderField)
	}
	cols := make([]orderCol, len(order))
	for i, of := range order {
		f, ok := fm.Lookup(of.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOrderField, of.Field)
		}
		cols[i] = orderCol{
			field:  of.Field,
			column: f.Column,
			kind:   f.Kind,
			desc:   of.Dir == Desc,
			unique: f.Unique,
		}
	}
	return cols, nil
}

// keysetPredicate builds the lexicographic continuation predicate for a
// position: OR over prefixes, each fixing the earlier fields with
// equality and advancing the current one. Backward travel flips every
// comparison.
func keysetPredicate(cols []orderCol, vals []any, backward bool) *sql.Predicate {
	ors := make([]*sql.Predicate, 0, len(cols))
	for i := range cols {
		ands := make([]*sql.Predicate, 0, i+1)
		for j := 0; j < i; j++ {
			ands = append(ands, sql.EQ(cols[j].column, vals[j]))
		}
		after := !cols[i].desc != backward
		if after {
			ands = append(ands, sql.GT(cols[i].column, vals[i]))
		} else {
			ands = append(ands, sql.LT(cols[i].column, vals[i]))
		}
		ors = append(ors, sql.And(ands...))
	}
	return sql.Or(ors...)
}

// Apply narrows the selector with the plan: keyset continuation, the
// effective order (reversed for backward travel) and limit+1 overfetch
// for the has-more probe.
func (p *Plan[E]) Apply(sel *sql.Selector) {
	if p.keyset != nil {
		sel.Where(p.keyset)
	}
	sel.ClearOrder()
	for _, col := range p.cols {
		if col.desc != p.Backward {
			sel.OrderDesc(col.column)
		} else {
			sel.OrderBy(col.column)
		}
	}
	sel.Limit(p.Limit + 1)
}

// BuildPage assembles the page from the overfetched rows. value reads a
// column from a scanned row; it is used to mint the boundary cursors.
func (p *Plan[E]) BuildPage(items []*E, value func(item *E, column string) (any, error)) (*Page[E], error) {
	hasExtra := len(items) > p.Limit
	if hasExtra {
		items = items[:p.Limit]
	}
	if p.Backward {
		// Backward pages are fetched in reverse; restore request order.
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	page := &Page[E]{Items: items, PageInfo: PageInfo{HasMore: hasExtra}}
	if len(items) == 0 {
		return page, nil
	}
	first, last := items[0], items[len(items)-1]
	if p.Backward {
		// Travelling backward: the extra row means more rows further
		// back; rows ahead are where this pagination came from.
		if hasExtra {
			prev, err := p.mint(first, Backward, value)
			if err != nil {
				return nil, err
			}
			page.PageInfo.PrevCursor = prev
		}
		next, err := p.mint(last, Forward, value)
		if err != nil {
			return nil, err
		}
		page.PageInfo.NextCursor = next
		return page, nil
	}
	if hasExtra {
		next, err := p.mint(last, Forward, value)
		if err != nil {
			return nil, err
		}
		page.PageInfo.NextCursor = next
	}
	if p.FromCursor {
		prev, err := p.mint(first, Backward, value)
		if err != nil {
			return nil, err
		}
		page.PageInfo.PrevCursor = prev
	}
	return page, nil
}

func (p *Plan[E]) mint(item *E, dir Direction, value func(item *E, column string) (any, error)) (string, error) {
	keys := make([]string, len(p.cols))
	for i, col := range p.cols {
		v, err := value(item, col.column)
		if err != nil {
			return "", fmt.Errorf("paginate: minting cursor: %w", err)
		}
		key, err := col.kind.Format(v)
		if err != nil {
			return "", fmt.Errorf("paginate: minting cursor: %w", err)
		}
		keys[i] = key
	}
	c := &Cursor{
		Version:  Version,
		Keys:     keys,
		Order:    p.Order.Tokens(),
		Filter:   p.fingerprint,
		Dir:      dir,
		MintedAt: p.now.Unix(),
	}
	return c.Encode()
}
