package security

import "github.com/google/uuid"

// AccessScope is the subset of a Context relevant to one entity type:
// the tenant, resource, owner and type identifiers that bound what the
// caller may read or write. It is derived per operation and never stored.
type AccessScope struct {
	Tenants   []uuid.UUID
	Resources []uuid.UUID
	Owners    []uuid.UUID
	Types     []string
}

// WithOwners returns a copy of the scope restricted to the given owners.
func (s AccessScope) WithOwners(owners ...uuid.UUID) AccessScope {
	s.Owners = dedup(owners)
	return s
}

// WithTypes returns a copy of the scope restricted to the given record types.
func (s AccessScope) WithTypes(types ...string) AccessScope {
	seen := make(map[string]struct{}, len(types))
	out := make([]string, 0, len(types))
	for _, t := range types {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	s.Types = out
	return s
}

// IsEmpty reports whether the scope grants access to nothing: no tenant
// and no resource identifiers. An empty scope always denies, regardless
// of owners or types.
func (s AccessScope) IsEmpty() bool {
	return len(s.Tenants) == 0 && len(s.Resources) == 0
}

// HasTenant reports whether the given tenant is inside the scope.
func (s AccessScope) HasTenant(id uuid.UUID) bool {
	for _, t := range s.Tenants {
		if t == id {
			return true
		}
	}
	return false
}

// HasOwner reports whether the given owner is inside the scope.
func (s AccessScope) HasOwner(id uuid.UUID) bool {
	for _, o := range s.Owners {
		if o == id {
			return true
		}
	}
	return false
}
