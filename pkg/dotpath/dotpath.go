// Package dotpath converts between flat dot-separated field names and nested
// map structures. Arrays are treated as atomic leaf values: accumulator
// fields store ordered sub-entries as a single slice-valued leaf, so the
// codec never fans out element-wise.
package dotpath

import (
	"fmt"
	"strings"
)

// ConflictError reports a dot-path whose prefix is already bound to a scalar,
// e.g. writing both "x" and "x.y".
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dotpath: prefix of %q is already bound to a scalar", e.Path)
}

// Flatten walks a nested structure and joins map keys with ".". Slices and
// scalars are emitted as leaves under their joined path.
func Flatten(nested map[string]any) map[string]any {
	out := make(map[string]any, len(nested))
	flattenInto(out, "", nested)
	return out
}

func flattenInto(out map[string]any, prefix string, node map[string]any) {
	for key, value := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			flattenInto(out, path, child)
			continue
		}
		out[path] = value
	}
}

// Unflatten rebuilds the nested structure from a flat dot-path mapping,
// creating intermediate maps on demand. A path whose prefix resolves to a
// scalar yields a ConflictError rather than a silent overwrite.
func Unflatten(flat map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(flat))
	for path, value := range flat {
		if err := Set(out, path, value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Get resolves a dot-path against a nested structure.
func Get(root map[string]any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	current := any(root)
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := node[segment]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Set writes a value at a dot-path, creating intermediate maps as needed.
func Set(root map[string]any, path string, value any) error {
	if root == nil {
		return fmt.Errorf("dotpath: root map is nil")
	}
	if path == "" {
		return fmt.Errorf("dotpath: path is empty")
	}
	segments := strings.Split(path, ".")
	node := root
	for _, segment := range segments[:len(segments)-1] {
		existing, ok := node[segment]
		if !ok {
			child := make(map[string]any)
			node[segment] = child
			node = child
			continue
		}
		child, ok := existing.(map[string]any)
		if !ok {
			return &ConflictError{Path: path}
		}
		node = child
	}
	last := segments[len(segments)-1]
	if existing, ok := node[last]; ok {
		if _, isMap := existing.(map[string]any); isMap {
			if _, valueIsMap := value.(map[string]any); !valueIsMap {
				return &ConflictError{Path: path}
			}
		}
	}
	node[last] = value
	return nil
}

// DeepCopy clones maps and slices recursively; other values are returned
// as-is.
func DeepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = DeepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = DeepCopy(v)
		}
		return clone
	case []map[string]any:
		clone := make([]map[string]any, len(typed))
		for i, v := range typed {
			clone[i] = DeepCopy(v).(map[string]any)
		}
		return clone
	default:
		return typed
	}
}
