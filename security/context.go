// Package security carries the identity-derived access scope every query
// and mutation in this library must be bound to. A Context is built once
// per request from the authenticated identity and passed by value into
// each operation; it is never stored on long-lived objects and never
// round-trips through storage.
package security

import "github.com/google/uuid"

// Context is an immutable security context. The zero value (and the
// Anonymous constructor) carries no tenant or resource identifiers and
// resolves to a deny-all scope.
type Context struct {
	subjectID   uuid.UUID
	tenantIDs   []uuid.UUID
	resourceIDs []uuid.UUID
}

// ForTenants returns a context authorized for the given tenants.
func ForTenants(subjectID uuid.UUID, tenantIDs ...uuid.UUID) Context {
	return Context{
		subjectID: subjectID,
		tenantIDs: dedup(tenantIDs),
	}
}

// ForResources returns a context authorized for the given individual
// resources, without tenant-wide access.
func ForResources(subjectID uuid.UUID, resourceIDs ...uuid.UUID) Context {
	return Context{
		subjectID:   subjectID,
		resourceIDs: dedup(resourceIDs),
	}
}

// ForScope returns a context authorized for both the given tenants and
// the given individual resources.
func ForScope(subjectID uuid.UUID, tenantIDs, resourceIDs []uuid.UUID) Context {
	return Context{
		subjectID:   subjectID,
		tenantIDs:   dedup(tenantIDs),
		resourceIDs: dedup(resourceIDs),
	}
}

// Anonymous returns a context with no authorized identifiers.
// Every scoped operation under it resolves to deny-all.
func Anonymous() Context {
	return Context{}
}

// SubjectID returns the authenticated subject, or uuid.Nil for an
// anonymous context.
func (c Context) SubjectID() uuid.UUID { return c.subjectID }

// TenantIDs returns a copy of the authorized tenant identifiers.
func (c Context) TenantIDs() []uuid.UUID {
	return append([]uuid.UUID(nil), c.tenantIDs...)
}

// ResourceIDs returns a copy of the authorized resource identifiers.
func (c Context) ResourceIDs() []uuid.UUID {
	return append([]uuid.UUID(nil), c.resourceIDs...)
}

// IsAnonymous reports whether the context carries no identifiers at all.
func (c Context) IsAnonymous() bool {
	return c.subjectID == uuid.Nil && len(c.tenantIDs) == 0 && len(c.resourceIDs) == 0
}

// Scope resolves the context into an AccessScope. Owner and type
// dimensions are opt-in; use WithOwners/WithTypes on the result to
// request them.
func (c Context) Scope() AccessScope {
	return AccessScope{
		Tenants:   append([]uuid.UUID(nil), c.tenantIDs...),
		Resources: append([]uuid.UUID(nil), c.resourceIDs...),
	}
}

func dedup(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
