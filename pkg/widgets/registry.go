// Package widgets binds schema fields to input behaviors. Dispatch is a
// closed table keyed by field type: every type has exactly one behavior, and
// a schema referencing an unknown type fails validation before any form
// mounts. Widgets write into the form state through the State interface; one
// change produces exactly one state write.
package widgets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/lensworks/formkit/pkg/changeset"
	"github.com/lensworks/formkit/pkg/schema"
)

// State is the slice of form state a widget needs. *formstate.Store
// satisfies it.
type State interface {
	Get(name string) (any, bool)
	Set(name string, value any) error
}

// Widget is the live behavior bound to one schema field.
type Widget interface {
	Field() schema.Field
	// OnChange applies a new value. Coercion and option checks happen here;
	// business-rule validation does not.
	OnChange(value any) error
}

// Releaser is implemented by widgets holding scoped resources (image
// previews). The owning form releases them on unmount.
type Releaser interface {
	Release()
}

// Behavior constructs the widget for one field.
type Behavior func(field schema.Field, state State) (Widget, error)

// Registry holds the closed behavior table. A single registry serves every
// form in the application.
type Registry struct {
	behaviors map[schema.FieldType]Behavior
	sanitize  func(string) string
	previews  PreviewFactory
}

// Option customises a Registry.
type Option func(*Registry)

// WithSanitizer strips markup from free-text input (text, textarea) before
// it reaches the form state. Clinic notes are routinely pasted from
// rich-text sources.
func WithSanitizer() Option {
	policy := bluemonday.StrictPolicy()
	return func(r *Registry) {
		r.sanitize = policy.Sanitize
	}
}

// WithPreviewFactory installs the factory used by image widgets to create
// local preview handles.
func WithPreviewFactory(factory PreviewFactory) Option {
	return func(r *Registry) {
		if factory != nil {
			r.previews = factory
		}
	}
}

// WithBehavior overrides the behavior for one field type. Overrides must be
// installed before any schema is validated against the registry.
func WithBehavior(ft schema.FieldType, behavior Behavior) Option {
	return func(r *Registry) {
		if behavior != nil {
			r.behaviors[ft] = behavior
		}
	}
}

// NewRegistry constructs a registry with the built-in behaviors.
func NewRegistry(options ...Option) *Registry {
	r := &Registry{
		behaviors: make(map[schema.FieldType]Behavior),
		sanitize:  func(s string) string { return s },
		previews:  NopPreviews(),
	}
	r.registerBuiltins()
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Validate checks that every field in the schema resolves to a behavior.
// Unknown types surface here, at schema-load time, never at render time.
func (r *Registry) Validate(s schema.FormSchema) error {
	for _, field := range s.Fields() {
		if _, ok := r.behaviors[field.Type]; !ok {
			return &schema.Error{Field: field.Name, Reason: fmt.Sprintf("no widget behavior for type %q", field.Type)}
		}
	}
	return nil
}

// Bind constructs the widget for a field. Searchable and button fields are
// bound by the owning form instead, because they need collaborators beyond
// the state (candidate lists, the accumulator).
func (r *Registry) Bind(field schema.Field, state State) (Widget, error) {
	behavior, ok := r.behaviors[field.Type]
	if !ok {
		return nil, &schema.Error{Field: field.Name, Reason: fmt.Sprintf("no widget behavior for type %q", field.Type)}
	}
	return behavior(field, state)
}

func (r *Registry) registerBuiltins() {
	r.behaviors[schema.FieldTypeText] = r.textBehavior(true)
	r.behaviors[schema.FieldTypeEmail] = r.textBehavior(false)
	r.behaviors[schema.FieldTypePassword] = r.textBehavior(false)
	r.behaviors[schema.FieldTypeTextarea] = r.textBehavior(true)
	r.behaviors[schema.FieldTypeNumber] = numberBehavior
	r.behaviors[schema.FieldTypeSelect] = selectBehavior
	r.behaviors[schema.FieldTypeImage] = r.imageBehavior
	// Searchable and button widgets are constructed by pkg/form with their
	// collaborators; the table entries exist so Validate accepts the types.
	r.behaviors[schema.FieldTypeSearchable] = r.textBehavior(false)
	r.behaviors[schema.FieldTypeButton] = func(field schema.Field, state State) (Widget, error) {
		return nil, &schema.Error{Field: field.Name, Reason: "button widgets are bound by the form"}
	}
}

type scalarWidget struct {
	field schema.Field
	state State
	apply func(value any) (any, error)
}

func (w *scalarWidget) Field() schema.Field { return w.field }

func (w *scalarWidget) OnChange(value any) error {
	applied, err := w.apply(value)
	if err != nil {
		return err
	}
	return w.state.Set(w.field.Name, applied)
}

// textBehavior covers text, email, password and textarea. Password masking
// belongs to the rendering surface, not here. Sanitisation applies only to
// free-text kinds.
func (r *Registry) textBehavior(sanitize bool) Behavior {
	return func(field schema.Field, state State) (Widget, error) {
		return &scalarWidget{field: field, state: state, apply: func(value any) (any, error) {
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("widgets: field %q expects a string, got %T", field.Name, value)
			}
			if sanitize {
				s = r.sanitize(s)
			}
			return s, nil
		}}, nil
	}
}

func numberBehavior(field schema.Field, state State) (Widget, error) {
	return &scalarWidget{field: field, state: state, apply: func(value any) (any, error) {
		return coerceNumber(field.Name, value)
	}}, nil
}

func coerceNumber(name string, value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return "", nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("widgets: field %q: %q is not numeric", name, v)
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("widgets: field %q expects a number, got %T", name, value)
	}
}

func selectBehavior(field schema.Field, state State) (Widget, error) {
	options := make(map[string]struct{}, len(field.Options))
	for _, option := range field.Options {
		options[option] = struct{}{}
	}
	return &scalarWidget{field: field, state: state, apply: func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("widgets: field %q expects a string option, got %T", field.Name, value)
		}
		if _, ok := options[s]; !ok {
			return nil, fmt.Errorf("widgets: field %q: %q is not one of the declared options", field.Name, s)
		}
		return s, nil
	}}, nil
}

func (r *Registry) imageBehavior(field schema.Field, state State) (Widget, error) {
	return &ImageWidget{field: field, state: state, previews: r.previews}, nil
}

// ImageWidget stores opaque binary references and manages the local preview
// handle for the currently selected image. The empty string means "no
// existing image".
type ImageWidget struct {
	field    schema.Field
	state    State
	previews PreviewFactory
	preview  *PreviewHandle
}

func (w *ImageWidget) Field() schema.Field { return w.field }

// OnChange accepts a changeset.FileRef (or the empty string to clear). A
// superseded preview handle is released before the replacement is created.
func (w *ImageWidget) OnChange(value any) error {
	switch v := value.(type) {
	case changeset.FileRef:
		if err := w.state.Set(w.field.Name, v); err != nil {
			return err
		}
		w.swapPreview(v)
		return nil
	case string:
		if v != "" {
			return fmt.Errorf("widgets: field %q expects a file reference or empty string", w.field.Name)
		}
		if err := w.state.Set(w.field.Name, ""); err != nil {
			return err
		}
		w.swapPreview(changeset.FileRef{})
		return nil
	default:
		return fmt.Errorf("widgets: field %q expects a file reference, got %T", w.field.Name, value)
	}
}

func (w *ImageWidget) swapPreview(ref changeset.FileRef) {
	if w.preview != nil {
		w.preview.Release()
		w.preview = nil
	}
	if ref.IsZero() {
		return
	}
	w.preview = w.previews.Preview(ref)
}

// Release frees the outstanding preview handle. Safe to call repeatedly.
func (w *ImageWidget) Release() {
	if w.preview != nil {
		w.preview.Release()
		w.preview = nil
	}
}
