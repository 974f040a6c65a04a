package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	id := uuid.New()
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2024, 3, 1, 15, 30, 0, 0, loc)

	t.Run("matching_kinds", func(t *testing.T) {
		v, err := KindString.Coerce("hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", v)

		v, err = KindInt64.Coerce(42)
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)

		v, err = KindInt64.Coerce(int32(7))
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)

		v, err = KindFloat64.Coerce(float32(1.5))
		require.NoError(t, err)
		assert.Equal(t, float64(1.5), v)

		v, err = KindBool.Coerce(true)
		require.NoError(t, err)
		assert.Equal(t, true, v)

		v, err = KindUUID.Coerce(id)
		require.NoError(t, err)
		assert.Equal(t, id.String(), v)

		v, err = KindUUID.Coerce(id.String())
		require.NoError(t, err)
		assert.Equal(t, id.String(), v)

		// Time values collapse to one canonical text form regardless of
		// the input zone or representation.
		v, err = KindTime.Coerce(ts)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01T14:30:00Z", v)

		v, err = KindTime.Coerce("2024-03-01T15:30:00+01:00")
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01T14:30:00Z", v)

		v, err = KindDate.Coerce("2024-03-01")
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01", v)

		v, err = KindDate.Coerce(ts)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01", v)

		v, err = KindTimeOfDay.Coerce("15:30:00")
		require.NoError(t, err)
		assert.Equal(t, "15:30:00", v)

		v, err = KindDecimal.Coerce("-12.50")
		require.NoError(t, err)
		assert.Equal(t, "-12.50", v)
	})

	t.Run("kind_mismatch", func(t *testing.T) {
		for _, tc := range []struct {
			kind FieldKind
			v    any
		}{
			{KindString, 42},
			{KindInt64, "42"},
			{KindInt64, 1.5},
			{KindFloat64, 1},
			{KindBool, "true"},
			{KindUUID, 42},
			{KindUUID, "not-a-uuid"},
			{KindTime, "yesterday"},
			{KindTime, 42},
			{KindDate, "03/01/2024"},
			{KindTimeOfDay, "25:00:00"},
			{KindDecimal, 12.5},
			{KindDecimal, "1e5"},
			{KindDecimal, "12."},
			{KindInvalid, "x"},
		} {
			_, err := tc.kind.Coerce(tc.v)
			assert.Error(t, err, "kind %s value %v", tc.kind, tc.v)
		}
	})
}

func TestFormatParseRoundTrip(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2024, 3, 1, 15, 30, 0, 123456789, time.UTC)

	for _, tc := range []struct {
		kind FieldKind
		v    any
		want any
	}{
		{KindString, "abc", "abc"},
		{KindInt64, int64(-7), int64(-7)},
		{KindFloat64, 2.25, 2.25},
		{KindBool, true, true},
		{KindUUID, id, id.String()},
		{KindTime, ts, "2024-03-01T15:30:00.123456789Z"},
		{KindDate, "2024-03-01", "2024-03-01"},
		{KindTimeOfDay, "15:30:00.5", "15:30:00.5"},
		{KindDecimal, "99.90", "99.90"},
	} {
		key, err := tc.kind.Format(tc.v)
		require.NoError(t, err, "kind %s", tc.kind)
		got, err := tc.kind.Parse(key)
		require.NoError(t, err, "kind %s", tc.kind)
		assert.Equal(t, tc.want, got, "kind %s", tc.kind)
	}
}

func TestParseRejectsMalformedKeys(t *testing.T) {
	for _, tc := range []struct {
		kind FieldKind
		key  string
	}{
		{KindInt64, "abc"},
		{KindFloat64, "abc"},
		{KindBool, "maybe"},
		{KindUUID, "zzz"},
		{KindTime, "yesterday"},
		{KindDate, "2024-13-01"},
		{KindTimeOfDay, "noon"},
		{KindDecimal, "1e9"},
		{KindInvalid, "x"},
	} {
		_, err := tc.kind.Parse(tc.key)
		assert.Error(t, err, "kind %s key %q", tc.kind, tc.key)
	}
}

func TestValidDecimal(t *testing.T) {
	for _, ok := range []string{"0", "12", "-12", "+12", "12.5", "-0.01"} {
		assert.True(t, validDecimal(ok), ok)
	}
	for _, bad := range []string{"", "-", ".", "12.", ".5", "1e5", "12,5", "abc", "--1"} {
		assert.False(t, validDecimal(bad), bad)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "uuid", KindUUID.String())
	assert.Equal(t, "decimal", KindDecimal.String())
	assert.Equal(t, "invalid", KindInvalid.String())
}
