// Package project implements $select-style field projection. Projection
// operates on the serialized JSON form of a value, after query execution
// and before the response is written: only the requested field paths
// survive, with dot notation reaching into nested objects. Path matching
// is case-insensitive.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Validation limits for a projection path list.
const (
	// MaxFields is the maximum number of selected paths.
	MaxFields = 100
	// MaxCombinedLength is the maximum combined length of all paths.
	MaxCombinedLength = 2048
)

// Validation errors for projection input. All are client-correctable.
var (
	// ErrSelectEmpty is returned for an empty path or path segment.
	ErrSelectEmpty = errors.New("project: empty select path")

	// ErrSelectTooLong is returned when the combined path length exceeds
	// MaxCombinedLength.
	ErrSelectTooLong = errors.New("project: select paths too long")

	// ErrSelectTooManyFields is returned when more than MaxFields paths
	// are selected.
	ErrSelectTooManyFields = errors.New("project: too many select fields")

	// ErrSelectDuplicateField is returned when the same path appears
	// twice, compared case-insensitively.
	ErrSelectDuplicateField = errors.New("project: duplicate select field")
)

// Parse splits a raw $select value ("id,access_control.read") into
// validated paths.
func Parse(raw string) ([]string, error) {
	parts := strings.Split(raw, ",")
	paths := make([]string, 0, len(parts))
	for _, p := range parts {
		paths = append(paths, strings.TrimSpace(p))
	}
	if err := Validate(paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// Validate checks a path list against the projection limits.
func Validate(paths []string) error {
	if len(paths) > MaxFields {
		return fmt.Errorf("%w: %d fields, limit %d", ErrSelectTooManyFields, len(paths), MaxFields)
	}
	combined := 0
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			return ErrSelectEmpty
		}
		for _, seg := range strings.Split(p, ".") {
			if seg == "" {
				return fmt.Errorf("%w: %q", ErrSelectEmpty, p)
			}
		}
		combined += len(p)
		key := strings.ToLower(p)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %q", ErrSelectDuplicateField, p)
		}
		seen[key] = struct{}{}
	}
	if combined > MaxCombinedLength {
		return fmt.Errorf("%w: %d characters, limit %d", ErrSelectTooLong, combined, MaxCombinedLength)
	}
	return nil
}

// Apply projects serialized JSON down to the selected paths. A nil or
// empty path list returns the input unchanged. Paths that match nothing
// are ignored; arrays are projected element-wise.
func Apply(raw json.RawMessage, paths []string) (json.RawMessage, error) {
	if len(paths) == 0 {
		return raw, nil
	}
	if err := Validate(paths); err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("project: decoding value: %w", err)
	}
	out, err := json.Marshal(projectValue(v, buildTree(paths)))
	if err != nil {
		return nil, fmt.Errorf("project: encoding value: %w", err)
	}
	return out, nil
}

// Struct serializes v and projects it down to the selected paths.
func Struct(v any, paths []string) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("project: encoding value: %w", err)
	}
	return Apply(raw, paths)
}

// tree is the merged path set: each node maps a lowercased segment to
// its children; a leaf keeps the whole subtree of the matched field.
type tree struct {
	children map[string]*tree
	leaf     bool
}

func buildTree(paths []string) *tree {
	root := &tree{children: make(map[string]*tree)}
	for _, p := range paths {
		n := root
		for _, seg := range strings.Split(strings.ToLower(p), ".") {
			if n.leaf {
				// A shorter path already keeps this whole subtree.
				break
			}
			child, ok := n.children[seg]
			if !ok {
				child = &tree{children: make(map[string]*tree)}
				n.children[seg] = child
			}
			n = child
		}
		n.leaf = true
	}
	return root
}

func projectValue(v any, n *tree) any {
	if n.leaf {
		return v
	}
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any)
		for k, val := range t {
			child, ok := n.children[strings.ToLower(k)]
			if !ok {
				continue
			}
			out[k] = projectValue(val, child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = projectValue(item, n)
		}
		return out
	default:
		// Scalars cannot descend further; selecting into them yields
		// nothing.
		return nil
	}
}
