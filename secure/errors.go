package secure

import (
	"errors"
	"fmt"
)

// Sentinel errors for scope resolution and scoped mutations. All of them
// are client-correctable; storage failures pass through wrapped instead.
var (
	// ErrEmptyScope is returned when an operation requires attribution
	// but the caller's scope grants access to nothing. For reads an
	// empty scope is not an error; the query matches zero rows.
	ErrEmptyScope = errors.New("secure: empty access scope")

	// ErrUnsupportedDimension is returned when the scope requests a
	// dimension the entity does not carry a column for.
	ErrUnsupportedDimension = errors.New("secure: scope dimension not supported by entity")

	// ErrAttributionMismatch is returned when a mutation payload
	// contradicts the caller's scope.
	ErrAttributionMismatch = errors.New("secure: payload attribution outside access scope")

	// ErrImmutableTenant is returned when an update tries to change the
	// tenant column of a tenant-scoped entity.
	ErrImmutableTenant = errors.New("secure: tenant attribution is immutable")

	// ErrInvalidScope is returned when the entity's scope declaration is
	// malformed and no predicate can be derived from it.
	ErrInvalidScope = errors.New("secure: invalid scope declaration")

	// ErrUnscopedDisabled is returned when the raw escape hatch is used
	// without being explicitly enabled.
	ErrUnscopedDisabled = errors.New("secure: unscoped access is disabled")

	// ErrNotFound is returned when a requested entity does not exist
	// inside the caller's scope.
	ErrNotFound = errors.New("secure: entity not found")

	// ErrNotSingular is returned when a query that expects exactly one
	// result returns more than one.
	ErrNotSingular = errors.New("secure: entity not singular")
)

// NotFoundError reports that an entity was not found within scope.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("secure: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("secure: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string { return e.label }

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any { return e.id }

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotSingularError reports that a query expecting one result got more.
type NotSingularError struct {
	label string
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	return fmt.Sprintf("secure: %s not singular", e.label)
}

// Is reports whether the target error matches NotSingularError.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// UnsupportedDimensionError reports a scope dimension the entity's
// declaration cannot honor. For reads this is logged and treated as
// deny-all; operations that need the dimension return it as an error.
type UnsupportedDimensionError struct {
	Entity    string
	Dimension string
}

// Error returns the error string.
func (e *UnsupportedDimensionError) Error() string {
	return fmt.Sprintf("secure: entity %q does not carry a %s column", e.Entity, e.Dimension)
}

// Is reports whether the target error matches UnsupportedDimensionError.
func (e *UnsupportedDimensionError) Is(err error) bool {
	return err == ErrUnsupportedDimension
}

// IsUnsupportedDimension returns true if the error is an UnsupportedDimensionError.
func IsUnsupportedDimension(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedDimensionError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedDimension)
}

// AttributionError reports a mutation payload value that falls outside
// the caller's scope. The mutation is rejected before reaching storage;
// the value is never silently corrected.
type AttributionError struct {
	Entity string
	Column string
	Value  any
}

// Error returns the error string.
func (e *AttributionError) Error() string {
	return fmt.Sprintf("secure: %s.%s value %v is outside the access scope", e.Entity, e.Column, e.Value)
}

// Is reports whether the target error matches AttributionError.
func (e *AttributionError) Is(err error) bool {
	return err == ErrAttributionMismatch
}

// IsAttributionMismatch returns true if the error is an AttributionError.
func IsAttributionMismatch(err error) bool {
	if err == nil {
		return false
	}
	var e *AttributionError
	return errors.As(err, &e) || errors.Is(err, ErrAttributionMismatch)
}
