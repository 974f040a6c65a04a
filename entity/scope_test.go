package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeSpecAccessors(t *testing.T) {
	spec := Restricted(Column("tenant_id"), Column("id"), Absent(), Absent())
	require.NoError(t, spec.Validate())
	assert.False(t, spec.IsUnrestricted())

	col, ok := spec.Tenant()
	assert.True(t, ok)
	assert.Equal(t, "tenant_id", col)

	col, ok = spec.Resource()
	assert.True(t, ok)
	assert.Equal(t, "id", col)

	// Declared absent: no column, but still declared.
	_, ok = spec.Owner()
	assert.False(t, ok)
	_, ok = spec.Type()
	assert.False(t, ok)
}

func TestUnrestrictedScopeSpec(t *testing.T) {
	spec := Unrestricted()
	require.NoError(t, spec.Validate())
	assert.True(t, spec.IsUnrestricted())
	_, ok := spec.Tenant()
	assert.False(t, ok)
}

func TestScopeSpecValidate(t *testing.T) {
	// A zero dimension is undeclared, not absent.
	spec := Restricted(Column("tenant_id"), Column("id"), Dimension{}, Absent())
	err := spec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner")

	// Unrestricted conflicts with any declared dimension.
	conflicting := ScopeSpec{unrestricted: true, tenant: Column("tenant_id")}
	err = conflicting.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant")
}

func TestDimension(t *testing.T) {
	d := Column("org_id")
	assert.True(t, d.Declared())
	col, ok := d.ColumnName()
	assert.True(t, ok)
	assert.Equal(t, "org_id", col)

	a := Absent()
	assert.True(t, a.Declared())
	_, ok = a.ColumnName()
	assert.False(t, ok)

	var zero Dimension
	assert.False(t, zero.Declared())
}
