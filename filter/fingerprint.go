package filter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Fingerprint returns a short stable hash of the filter tree. The hash
// is embedded in pagination cursors to detect a filter change between
// pages. Equivalent trees hash identically: field names are lowercased
// and And/Or children are sorted by their canonical form. A nil tree
// fingerprints to the empty string.
func Fingerprint[E any](n *Node[E]) string {
	if n == nil {
		return ""
	}
	sum := sha256.Sum256([]byte(canonical(n)))
	return hex.EncodeToString(sum[:])[:16]
}

func canonical[E any](n *Node[E]) string {
	switch n.kind {
	case kindAnd, kindOr:
		parts := make([]string, len(n.kids))
		for i, k := range n.kids {
			parts[i] = canonical(k)
		}
		sort.Strings(parts)
		op := "and"
		if n.kind == kindOr {
			op = "or"
		}
		return op + "(" + strings.Join(parts, ",") + ")"
	case kindNot:
		return "not(" + canonical(n.kids[0]) + ")"
	case kindCmp:
		if n.op == OpIn {
			vals := make([]string, len(n.values))
			for i, v := range n.values {
				vals[i] = canonicalValue(v)
			}
			sort.Strings(vals)
			return fmt.Sprintf("%s in(%s)", strings.ToLower(n.field), strings.Join(vals, ","))
		}
		return fmt.Sprintf("%s %s %s", strings.ToLower(n.field), n.op, canonicalValue(n.value))
	default:
		return "invalid"
	}
}

func canonicalValue(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case uuid.UUID:
		return t.String()
	case string:
		return "'" + t + "'"
	default:
		return fmt.Sprintf("%v", v)
	}
}
