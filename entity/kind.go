// Package entity holds the static, per-record-type metadata the secure
// query layer is driven by: which columns carry the tenant, resource,
// owner and type dimensions (or an explicit unrestricted declaration),
// and the closed set of fields exposed for filtering and ordering with
// their declared value kinds.
package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldKind is the declared value kind of a filterable field. Filter
// values are validated against it before they touch column metadata,
// and cursor key values are encoded and decoded through it.
type FieldKind int

const (
	KindInvalid FieldKind = iota
	KindString
	KindInt64
	KindFloat64
	KindBool
	KindUUID
	KindTime      // point in time, RFC 3339
	KindDate      // calendar date, no time component
	KindTimeOfDay // wall-clock time, no date component
	KindDecimal   // exact decimal carried as a string
)

const (
	dateLayout      = "2006-01-02"
	timeOfDayLayout = "15:04:05.999999999"
)

// String returns the kind name.
func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindUUID:
		return "uuid"
	case KindTime:
		return "time"
	case KindDate:
		return "date"
	case KindTimeOfDay:
		return "timeofday"
	case KindDecimal:
		return "decimal"
	default:
		return "invalid"
	}
}

// Coerce validates v against the kind and returns the value in the form
// handed to the database driver. It fails on any kind mismatch rather
// than converting between kinds.
func (k FieldKind) Coerce(v any) (any, error) {
	switch k {
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindInt64:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case KindFloat64:
		switch n := v.(type) {
		case float32:
			return float64(n), nil
		case float64:
			return n, nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindUUID:
		switch id := v.(type) {
		case uuid.UUID:
			return id.String(), nil
		case string:
			parsed, err := uuid.Parse(id)
			if err != nil {
				return nil, fmt.Errorf("entity: invalid uuid value %q: %w", id, err)
			}
			return parsed.String(), nil
		}
	case KindTime:
		// Times are carried as UTC RFC 3339 text. Storage, filter
		// arguments and cursor keys must share one collating form, or
		// keyset comparisons against text timestamp columns drop rows.
		switch t := v.(type) {
		case time.Time:
			return t.UTC().Format(time.RFC3339Nano), nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, t)
			if err != nil {
				return nil, fmt.Errorf("entity: invalid time value %q: %w", t, err)
			}
			return parsed.UTC().Format(time.RFC3339Nano), nil
		}
	case KindDate:
		switch d := v.(type) {
		case time.Time:
			return d.Format(dateLayout), nil
		case string:
			if _, err := time.Parse(dateLayout, d); err != nil {
				return nil, fmt.Errorf("entity: invalid date value %q: %w", d, err)
			}
			return d, nil
		}
	case KindTimeOfDay:
		switch t := v.(type) {
		case time.Time:
			return t.Format(timeOfDayLayout), nil
		case string:
			if _, err := time.Parse(timeOfDayLayout, t); err != nil {
				return nil, fmt.Errorf("entity: invalid time value %q: %w", t, err)
			}
			return t, nil
		}
	case KindDecimal:
		if s, ok := v.(string); ok {
			if !validDecimal(s) {
				return nil, fmt.Errorf("entity: invalid decimal value %q", s)
			}
			return s, nil
		}
	}
	return nil, fmt.Errorf("entity: value %v (%T) does not match kind %s", v, v, k)
}

// Format encodes a coerced value as the string carried inside a cursor.
func (k FieldKind) Format(v any) (string, error) {
	cv, err := k.Coerce(v)
	if err != nil {
		return "", err
	}
	switch k {
	case KindString, KindUUID, KindTime, KindDate, KindTimeOfDay, KindDecimal:
		return cv.(string), nil
	case KindInt64:
		return strconv.FormatInt(cv.(int64), 10), nil
	case KindFloat64:
		return strconv.FormatFloat(cv.(float64), 'g', -1, 64), nil
	case KindBool:
		return strconv.FormatBool(cv.(bool)), nil
	default:
		return "", fmt.Errorf("entity: cannot format kind %s", k)
	}
}

// Parse decodes a cursor key string back into a driver-ready value.
func (k FieldKind) Parse(s string) (any, error) {
	switch k {
	case KindString:
		return s, nil
	case KindInt64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("entity: invalid int64 key %q: %w", s, err)
		}
		return n, nil
	case KindFloat64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("entity: invalid float64 key %q: %w", s, err)
		}
		return f, nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("entity: invalid bool key %q: %w", s, err)
		}
		return b, nil
	case KindUUID:
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("entity: invalid uuid key %q: %w", s, err)
		}
		return id.String(), nil
	case KindTime:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("entity: invalid time key %q: %w", s, err)
		}
		return t.UTC().Format(time.RFC3339Nano), nil
	case KindDate:
		if _, err := time.Parse(dateLayout, s); err != nil {
			return nil, fmt.Errorf("entity: invalid date key %q: %w", s, err)
		}
		return s, nil
	case KindTimeOfDay:
		if _, err := time.Parse(timeOfDayLayout, s); err != nil {
			return nil, fmt.Errorf("entity: invalid time key %q: %w", s, err)
		}
		return s, nil
	case KindDecimal:
		if !validDecimal(s) {
			return nil, fmt.Errorf("entity: invalid decimal key %q", s)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("entity: cannot parse kind %s", k)
	}
}

// validDecimal accepts an optional sign, digits, and an optional
// fractional part. Exponents are not decimal literals.
func validDecimal(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	whole, frac, dot := strings.Cut(s, ".")
	if whole == "" || (dot && frac == "") {
		return false
	}
	for _, part := range []string{whole, frac} {
		for _, ch := range part {
			if ch < '0' || ch > '9' {
				return false
			}
		}
	}
	return true
}
