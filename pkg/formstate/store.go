// Package formstate holds the live values of one mounted form, keyed by
// dot-path field name, together with the immutable baseline snapshot the
// change-set diff runs against.
package formstate

import (
	"fmt"
	"strings"

	"github.com/lensworks/formkit/pkg/dotpath"
	"github.com/lensworks/formkit/pkg/schema"
)

// Store owns the mutable value mapping for a single form instance. Stores
// are never shared between concurrent forms; all access happens on the
// event-dispatch goroutine of the owning form.
type Store struct {
	values   map[string]any
	snapshot map[string]any
}

// New seeds a store from schema defaults merged with an optional seed
// entity. Seed values win over defaults; only fields named by the schema are
// read from the seed. The snapshot baseline is taken here, exactly once.
func New(s schema.FormSchema, seed map[string]any) (*Store, error) {
	values := s.Defaults()
	if seed != nil {
		for name := range values {
			if v, ok := dotpath.Get(seed, name); ok {
				values[name] = dotpath.DeepCopy(v)
				continue
			}
			// Flat-keyed seeds are accepted as-is.
			if v, ok := seed[name]; ok {
				values[name] = dotpath.DeepCopy(v)
			}
		}
	}
	store := &Store{values: values}
	store.snapshot = dotpath.DeepCopy(values).(map[string]any)
	return store, nil
}

// Set writes one field value. The write is dot-path aware: a name whose
// prefix is already bound to another field's scalar is rejected, mirroring
// the schema-level invariant. One change maps to exactly one write.
func (s *Store) Set(name string, value any) error {
	if s == nil {
		return fmt.Errorf("formstate: store is nil")
	}
	if name == "" {
		return fmt.Errorf("formstate: field name is empty")
	}
	for existing := range s.values {
		if existing == name {
			continue
		}
		if strings.HasPrefix(name, existing+".") || strings.HasPrefix(existing, name+".") {
			return &dotpath.ConflictError{Path: name}
		}
	}
	s.values[name] = value
	return nil
}

// Get returns the current value of a field.
func (s *Store) Get(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[name]
	return v, ok
}

// Values returns the live mapping. Callers mutate it only through Set.
func (s *Store) Values() map[string]any {
	if s == nil {
		return nil
	}
	return s.values
}

// Snapshot returns the baseline taken at construction. It is never retaken
// on subsequent writes and must not be mutated.
func (s *Store) Snapshot() map[string]any {
	if s == nil {
		return nil
	}
	return s.snapshot
}

// Nested materialises the current values as a nested structure via the
// dotpath codec.
func (s *Store) Nested() (map[string]any, error) {
	if s == nil {
		return nil, fmt.Errorf("formstate: store is nil")
	}
	return dotpath.Unflatten(s.values)
}
