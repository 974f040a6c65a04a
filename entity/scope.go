package entity

import "fmt"

// Dimension declares whether an entity carries a column for one scope
// dimension. The zero value is undeclared; a valid ScopeSpec must
// declare every dimension explicitly with Column or Absent.
type Dimension struct {
	declared bool
	column   string
}

// Column declares the dimension present, backed by the given column.
func Column(name string) Dimension {
	return Dimension{declared: true, column: name}
}

// Absent declares the dimension explicitly not carried by the entity.
func Absent() Dimension {
	return Dimension{declared: true}
}

// Declared reports whether the dimension was explicitly declared.
func (d Dimension) Declared() bool { return d.declared }

// ColumnName returns the backing column and whether the dimension is present.
func (d Dimension) ColumnName() (string, bool) {
	return d.column, d.declared && d.column != ""
}

// ScopeSpec declares how an entity participates in access scoping:
// either unrestricted (exempt from scope predicates entirely), or with
// every one of the tenant, resource, owner and type dimensions declared
// present (with its column) or absent. There is no implicit default; an
// under-declared spec fails Validate and is rejected at build time by
// the registry generator.
type ScopeSpec struct {
	unrestricted bool
	tenant       Dimension
	resource     Dimension
	owner        Dimension
	typ          Dimension
}

// Unrestricted returns the spec of an entity with no access isolation,
// such as global system configuration. Mutually exclusive with any
// per-dimension column.
func Unrestricted() ScopeSpec {
	return ScopeSpec{unrestricted: true}
}

// Restricted returns a spec with all four dimensions declared. Each
// argument must be either Column(...) or Absent(); the signature leaves
// no dimension implicit.
func Restricted(tenant, resource, owner, typ Dimension) ScopeSpec {
	return ScopeSpec{tenant: tenant, resource: resource, owner: owner, typ: typ}
}

// IsUnrestricted reports whether the entity is exempt from scoping.
func (s ScopeSpec) IsUnrestricted() bool { return s.unrestricted }

// Tenant returns the tenant column and whether one is declared present.
func (s ScopeSpec) Tenant() (string, bool) { return s.tenant.ColumnName() }

// Resource returns the resource column and whether one is declared present.
func (s ScopeSpec) Resource() (string, bool) { return s.resource.ColumnName() }

// Owner returns the owner column and whether one is declared present.
func (s ScopeSpec) Owner() (string, bool) { return s.owner.ColumnName() }

// Type returns the type column and whether one is declared present.
func (s ScopeSpec) Type() (string, bool) { return s.typ.ColumnName() }

// Validate rejects under-declared and conflicting specs: every dimension
// of a restricted spec must be explicitly declared, and an unrestricted
// spec must not declare any dimension.
func (s ScopeSpec) Validate() error {
	dims := []struct {
		name string
		d    Dimension
	}{
		{"tenant", s.tenant},
		{"resource", s.resource},
		{"owner", s.owner},
		{"type", s.typ},
	}
	if s.unrestricted {
		for _, dim := range dims {
			if dim.d.declared {
				return fmt.Errorf("entity: unrestricted scope also declares %s dimension", dim.name)
			}
		}
		return nil
	}
	for _, dim := range dims {
		if !dim.d.declared {
			return fmt.Errorf("entity: scope does not declare %s dimension; use Column or Absent", dim.name)
		}
	}
	return nil
}
