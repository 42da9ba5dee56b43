// Package accumulator appends validated pending sub-entries to array-valued
// form fields: the "add item" flow on order and maintenance screens. It only
// ever appends; removing an entry is a separate explicit operation.
package accumulator

import (
	"fmt"
	"strings"

	"github.com/lensworks/formkit/pkg/dotpath"
)

// State is the slice of the form state the accumulator reads and writes.
// *formstate.Store satisfies it.
type State interface {
	Get(name string) (any, bool)
	Set(name string, value any) error
}

// Predicate decides whether a pending sub-entry is complete enough to be
// appended. Keys are entry keys (the last dot-path segment of each pending
// field).
type Predicate func(pending map[string]any) bool

// DefaultPredicate accepts an entry when every value is non-empty and every
// numeric value is positive.
func DefaultPredicate(pending map[string]any) bool {
	for _, value := range pending {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return false
			}
		case float64:
			if v <= 0 {
				return false
			}
		case int:
			if v <= 0 {
				return false
			}
		case nil:
			return false
		}
	}
	return true
}

// Accumulator captures pending field clusters into array targets.
type Accumulator struct {
	state     State
	defaults  map[string]any
	predicate Predicate
}

// Option customises an Accumulator.
type Option func(*Accumulator)

// WithPredicate replaces the completeness predicate.
func WithPredicate(p Predicate) Option {
	return func(a *Accumulator) {
		if p != nil {
			a.predicate = p
		}
	}
}

// WithDefaults supplies the per-field reset values applied after a
// successful accumulation, keyed by pending field name.
func WithDefaults(defaults map[string]any) Option {
	return func(a *Accumulator) { a.defaults = defaults }
}

// New builds an Accumulator over a form state.
func New(state State, options ...Option) *Accumulator {
	a := &Accumulator{
		state:     state,
		predicate: DefaultPredicate,
		defaults:  make(map[string]any),
	}
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Accumulate reads the pending fields, and, when the completeness predicate
// holds, appends their snapshot to the array at target and resets each
// pending field to its default. An incomplete entry is a silent no-op: no
// error, no state change. The returned bool reports whether an entry was
// appended.
func (a *Accumulator) Accumulate(pending []string, target string) (bool, error) {
	if a == nil || a.state == nil {
		return false, fmt.Errorf("accumulator: state is nil")
	}
	if target == "" {
		return false, fmt.Errorf("accumulator: target is empty")
	}

	entry := make(map[string]any, len(pending))
	for _, name := range pending {
		value, _ := a.state.Get(name)
		entry[entryKey(name)] = dotpath.DeepCopy(value)
	}

	if !a.predicate(entry) {
		return false, nil
	}

	current, _ := a.state.Get(target)
	entries := normalizeEntries(current)
	entries = append(entries, any(entry))
	if err := a.state.Set(target, entries); err != nil {
		return false, err
	}

	for _, name := range pending {
		reset, ok := a.defaults[name]
		if !ok {
			reset = ""
		}
		if err := a.state.Set(name, dotpath.DeepCopy(reset)); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Remove deletes the entry at index from the array at target. Unlike
// accumulation this is an explicit, error-reporting operation.
func (a *Accumulator) Remove(target string, index int) error {
	if a == nil || a.state == nil {
		return fmt.Errorf("accumulator: state is nil")
	}
	current, ok := a.state.Get(target)
	if !ok {
		return fmt.Errorf("accumulator: target %q is not set", target)
	}
	entries, ok := current.([]any)
	if !ok {
		return fmt.Errorf("accumulator: target %q does not hold entries", target)
	}
	if index < 0 || index >= len(entries) {
		return fmt.Errorf("accumulator: index %d out of range for %q", index, target)
	}
	next := make([]any, 0, len(entries)-1)
	next = append(next, entries[:index]...)
	next = append(next, entries[index+1:]...)
	return a.state.Set(target, next)
}

// normalizeEntries widens seeded entry slices to the []any representation
// the store keeps for accumulator targets.
func normalizeEntries(current any) []any {
	switch typed := current.(type) {
	case []any:
		return typed
	case []map[string]any:
		out := make([]any, len(typed))
		for i, entry := range typed {
			out[i] = entry
		}
		return out
	default:
		return nil
	}
}

func entryKey(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
