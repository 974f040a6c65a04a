package paginate

import "errors"

// Sentinel errors for pagination requests. All are client-correctable
// input errors; storage failures pass through wrapped.
var (
	// ErrOrderWithCursor is returned when a request carries both a
	// cursor and an explicit order. The order is already bound inside
	// the cursor; restating it is ambiguous.
	ErrOrderWithCursor = errors.New("paginate: explicit order cannot be combined with a cursor")

	// ErrMissingTiebreaker is returned when the requested order does not
	// end in a declared-unique field and no default tiebreaker applies.
	ErrMissingTiebreaker = errors.New("paginate: order must end in a unique tiebreaker field")

	// ErrUnknownOrderField is returned when the order references a field
	// the entity does not expose.
	ErrUnknownOrderField = errors.New("paginate: unknown order field")

	// ErrTooManyOrderFields is returned when the order exceeds the
	// configured field limit.
	ErrTooManyOrderFields = errors.New("paginate: too many order fields")

	// ErrFilterTooDeep is returned when the filter tree exceeds the
	// configured nesting limit.
	ErrFilterTooDeep = errors.New("paginate: filter tree too deep")

	// ErrCursorFilterMismatch is returned when the filter changed
	// between cursor issuance and redemption.
	ErrCursorFilterMismatch = errors.New("paginate: cursor was issued for a different filter")

	// ErrCursorOrderMismatch is returned when the order embedded in the
	// cursor does not resolve against the entity.
	ErrCursorOrderMismatch = errors.New("paginate: cursor order does not match the entity")

	// ErrCursorExpired is returned when a cursor is older than the
	// configured validity window.
	ErrCursorExpired = errors.New("paginate: cursor expired")

	// ErrInvalidCursor is returned for any token this library did not
	// mint: bad encoding, bad shape, or an unknown version.
	ErrInvalidCursor = errors.New("paginate: invalid cursor")
)
