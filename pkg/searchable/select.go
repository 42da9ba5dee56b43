// Package searchable implements the filterable single-selection input used
// for inventory and patient lookups: free-text substring filtering over a
// caller-supplied candidate list, an explicit confirmation flag, and a
// widget-lifetime-bound dismissal subscription for the suggestion list.
package searchable

import "strings"

// Candidate is one selectable entry. Meta carries caller-defined fields
// (identifiers, prices) that ride along into the selection callback.
type Candidate struct {
	DisplayName string
	Category    string
	Meta        map[string]any
}

// Phase names the interaction state of a Select.
type Phase int

const (
	// PhaseIdle: query empty, no suggestions.
	PhaseIdle Phase = iota
	// PhaseTyping: non-empty query, suggestion list computed.
	PhaseTyping
	// PhaseSelected: value equals a candidate's display name and the pick
	// was confirmed.
	PhaseSelected
)

// Select is the state machine behind one searchable field. It is owned by a
// single form instance and accessed synchronously.
type Select struct {
	candidates []Candidate
	category   string
	onSelect   []func(Candidate)
	onRemove   []func()

	query     string
	confirmed bool
	open      bool
	cancel    func()
}

// Option customises a Select.
type Option func(*Select)

// WithCategory constrains suggestions to candidates of one category.
func WithCategory(category string) Option {
	return func(s *Select) { s.category = category }
}

// OnSelect registers a callback fired when a candidate is confirmed, so the
// owning form can sync dependent fields (e.g. an identifier). Callbacks run
// in registration order.
func OnSelect(fn func(Candidate)) Option {
	return func(s *Select) {
		if fn != nil {
			s.onSelect = append(s.onSelect, fn)
		}
	}
}

// OnRemove registers a callback fired on Clear. Callbacks run in
// registration order.
func OnRemove(fn func()) Option {
	return func(s *Select) {
		if fn != nil {
			s.onRemove = append(s.onRemove, fn)
		}
	}
}

// New builds a Select over the supplied candidate list. Candidate-source
// order is preserved in suggestions; there is no ranking beyond substring
// containment.
func New(candidates []Candidate, options ...Option) *Select {
	s := &Select{candidates: candidates}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Mount subscribes to outside-interaction events so the suggestion list
// closes when the user interacts elsewhere. The subscription is scoped to
// this instance and released by Unmount, never a process-wide handler.
func (s *Select) Mount(source DismissSource) {
	if s == nil || source == nil {
		return
	}
	s.Unmount()
	s.cancel = source.Subscribe(func() {
		s.open = false
	})
}

// Unmount releases the dismissal subscription.
func (s *Select) Unmount() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
}

// SetQuery records an edit to the free-text filter. Editing while selected
// drops the confirmation until a new pick or exact match is made.
func (s *Select) SetQuery(query string) {
	s.query = query
	s.open = query != ""
	s.confirmed = false
	if query == "" {
		return
	}
	// An exact display-name match within the active constraint counts as a
	// confirmed pick.
	for _, candidate := range s.filtered() {
		if candidate.DisplayName == query {
			s.confirmed = true
			return
		}
	}
}

// Suggestions returns the current suggestion list: empty query or dismissed
// list yields nothing.
func (s *Select) Suggestions() []Candidate {
	if s.query == "" || !s.open {
		return nil
	}
	return s.filtered()
}

func (s *Select) filtered() []Candidate {
	needle := strings.ToLower(s.query)
	var out []Candidate
	for _, candidate := range s.candidates {
		if s.category != "" && candidate.Category != s.category {
			continue
		}
		if !strings.Contains(strings.ToLower(candidate.DisplayName), needle) {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

// Choose confirms a candidate: the value becomes its display name, the
// suggestion list closes and the selection callback fires.
func (s *Select) Choose(candidate Candidate) {
	s.query = candidate.DisplayName
	s.confirmed = true
	s.open = false
	for _, fn := range s.onSelect {
		fn(candidate)
	}
}

// Clear resets query, suggestions and confirmation, and fires the removal
// callback so the owning form can clear dependent fields.
func (s *Select) Clear() {
	s.query = ""
	s.confirmed = false
	s.open = false
	for _, fn := range s.onRemove {
		fn()
	}
}

// Value returns the current text together with the confirmation flag, so
// callers can tell a confirmed pick from free-typed text.
func (s *Select) Value() (string, bool) {
	return s.query, s.confirmed
}

// Phase reports the interaction state.
func (s *Select) Phase() Phase {
	switch {
	case s.query == "":
		return PhaseIdle
	case s.confirmed:
		return PhaseSelected
	default:
		return PhaseTyping
	}
}
