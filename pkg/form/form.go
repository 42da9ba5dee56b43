package form

import (
	"fmt"
	"strings"

	"github.com/lensworks/formkit/pkg/accumulator"
	"github.com/lensworks/formkit/pkg/changeset"
	"github.com/lensworks/formkit/pkg/formstate"
	"github.com/lensworks/formkit/pkg/schema"
	"github.com/lensworks/formkit/pkg/searchable"
	"github.com/lensworks/formkit/pkg/widgets"
)

// Submitter receives the completed change-set and its encoding. The network
// call behind it is outside the engine; the form neither awaits nor retries.
type Submitter func(cs changeset.ChangeSet, enc changeset.Encoding) error

// Validator is the external business-rule collaborator. It returns
// human-readable messages; any message aborts the submit before the
// submitter runs.
type Validator func(values map[string]any) []string

// ValidationError carries the validator's messages. The form never surfaces
// UI dialogs itself; callers display the messages.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("form: validation failed: %s", strings.Join(e.Messages, "; "))
}

// Form is one mounted schema instance. It exclusively owns its state store
// and snapshot; no two forms share either. All methods are called from the
// single event-dispatch goroutine.
type Form struct {
	schema       schema.FormSchema
	store        *formstate.Store
	registry     *widgets.Registry
	builder      *changeset.Builder
	widgets      map[string]widgets.Widget
	searchables  map[string]*searchable.Select
	acc          *accumulator.Accumulator
	interactions *searchable.Interactions
	validator    Validator
	submitter    Submitter

	seed           map[string]any
	candidates     map[string][]searchable.Candidate
	searchableOpts map[string][]searchable.Option
	builderOpts    []changeset.Option
	mounted        bool
}

// Option customises a form at mount time.
type Option func(*Form)

// WithSeed supplies an existing record; seed values win over schema
// defaults for the fields the schema names.
func WithSeed(seed map[string]any) Option {
	return func(f *Form) { f.seed = seed }
}

// WithRegistry replaces the default widget registry.
func WithRegistry(registry *widgets.Registry) Option {
	return func(f *Form) {
		if registry != nil {
			f.registry = registry
		}
	}
}

// WithTransform registers a change-set transform for one field.
func WithTransform(name string, fn changeset.Transform) Option {
	return func(f *Form) {
		f.builderOpts = append(f.builderOpts, changeset.WithTransform(name, fn))
	}
}

// WithValidator installs the external validator collaborator.
func WithValidator(v Validator) Option {
	return func(f *Form) { f.validator = v }
}

// WithSubmitter installs the external submit collaborator.
func WithSubmitter(s Submitter) Option {
	return func(f *Form) { f.submitter = s }
}

// WithCandidates supplies the candidate list for one searchable source
// name, as referenced by Field.Source.
func WithCandidates(source string, candidates []searchable.Candidate) Option {
	return func(f *Form) { f.candidates[source] = candidates }
}

// WithSearchableOptions forwards options (category constraint, selection
// callbacks) to the Select behind one searchable field.
func WithSearchableOptions(fieldName string, options ...searchable.Option) Option {
	return func(f *Form) {
		f.searchableOpts[fieldName] = append(f.searchableOpts[fieldName], options...)
	}
}

// Mount validates the schema, seeds the state store, takes the snapshot and
// binds every widget. Schema defects (unknown types, duplicate names,
// dot-path conflicts) fail here and the form never mounts.
func Mount(s schema.FormSchema, options ...Option) (*Form, error) {
	f := &Form{
		schema:         s,
		registry:       widgets.NewRegistry(),
		widgets:        make(map[string]widgets.Widget),
		searchables:    make(map[string]*searchable.Select),
		candidates:     make(map[string][]searchable.Candidate),
		searchableOpts: make(map[string][]searchable.Option),
		interactions:   searchable.NewInteractions(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}

	if err := schema.Validate(s); err != nil {
		return nil, err
	}
	if err := f.registry.Validate(s); err != nil {
		return nil, err
	}

	store, err := formstate.New(s, f.seed)
	if err != nil {
		return nil, err
	}
	f.store = store
	f.builder = changeset.NewBuilder(f.builderOpts...)
	f.acc = accumulator.New(store, accumulator.WithDefaults(f.pendingDefaults()))

	for _, field := range s.Fields() {
		switch field.Type {
		case schema.FieldTypeSearchable:
			f.bindSearchable(field)
		case schema.FieldTypeButton:
			f.widgets[field.Name] = &buttonWidget{field: field, form: f}
		default:
			widget, err := f.registry.Bind(field, store)
			if err != nil {
				return nil, err
			}
			f.widgets[field.Name] = widget
		}
	}

	f.mounted = true
	return f, nil
}

func (f *Form) pendingDefaults() map[string]any {
	defaults := make(map[string]any)
	for _, field := range f.schema.Fields() {
		if field.Type != schema.FieldTypeButton {
			continue
		}
		for _, name := range field.Pending {
			if pending, ok := f.schema.Field(name); ok {
				defaults[name] = pending.Default()
			}
		}
	}
	return defaults
}

func (f *Form) bindSearchable(field schema.Field) {
	opts := []searchable.Option{
		// The select's value mirrors into the state store; dependent-field
		// bookkeeping registered by the caller runs afterwards.
		searchable.OnSelect(func(c searchable.Candidate) {
			_ = f.store.Set(field.Name, c.DisplayName)
		}),
		searchable.OnRemove(func() {
			_ = f.store.Set(field.Name, "")
		}),
	}
	opts = append(opts, f.searchableOpts[field.Name]...)

	sel := searchable.New(f.candidates[field.Source], opts...)
	sel.Mount(f.interactions)
	f.searchables[field.Name] = sel
	f.widgets[field.Name] = &searchableWidget{field: field, form: f, sel: sel}
}

// Widget returns the live widget for a field.
func (f *Form) Widget(name string) (widgets.Widget, bool) {
	w, ok := f.widgets[name]
	return w, ok
}

// Searchable exposes the Select behind a searchable field so rendering
// surfaces can read suggestions and confirm picks.
func (f *Form) Searchable(name string) (*searchable.Select, bool) {
	sel, ok := f.searchables[name]
	return sel, ok
}

// Interactions is the outside-interaction source the rendering surface
// notifies; suggestion lists subscribe to it for dismissal.
func (f *Form) Interactions() *searchable.Interactions {
	return f.interactions
}

// Set routes a value change through the field's widget.
func (f *Form) Set(name string, value any) error {
	if !f.mounted {
		return fmt.Errorf("form: not mounted")
	}
	widget, ok := f.widgets[name]
	if !ok {
		return fmt.Errorf("form: unknown field %q", name)
	}
	return widget.OnChange(value)
}

// Get reads the current value of a field.
func (f *Form) Get(name string) (any, bool) {
	if f.store == nil {
		return nil, false
	}
	return f.store.Get(name)
}

// Values exposes the live state mapping.
func (f *Form) Values() map[string]any {
	if f.store == nil {
		return nil
	}
	return f.store.Values()
}

// RemoveEntry deletes one accumulated entry; explicit, unlike accumulation.
func (f *Form) RemoveEntry(target string, index int) error {
	if !f.mounted {
		return fmt.Errorf("form: not mounted")
	}
	return f.acc.Remove(target, index)
}

// Submit runs the external validator, diffs state against the mount-time
// snapshot and hands the change-set to the submitter. An empty change-set
// is a no-op submit: the submitter is skipped entirely. The encoding is
// recomputed on every call.
func (f *Form) Submit() (changeset.ChangeSet, changeset.Encoding, error) {
	if !f.mounted {
		return nil, "", fmt.Errorf("form: not mounted")
	}
	if f.validator != nil {
		if messages := f.validator(f.store.Values()); len(messages) > 0 {
			return nil, "", &ValidationError{Messages: messages}
		}
	}
	cs, enc := f.builder.Build(f.store.Values(), f.store.Snapshot())
	if len(cs) == 0 {
		return cs, enc, nil
	}
	if f.submitter != nil {
		if err := f.submitter(cs, enc); err != nil {
			return cs, enc, err
		}
	}
	return cs, enc, nil
}

// Unmount releases every scoped resource: image preview handles and the
// suggestion-list dismissal subscriptions. Idempotent.
func (f *Form) Unmount() {
	if f == nil {
		return
	}
	for _, widget := range f.widgets {
		if releaser, ok := widget.(widgets.Releaser); ok {
			releaser.Release()
		}
	}
	for _, sel := range f.searchables {
		sel.Unmount()
	}
	f.mounted = false
}

// searchableWidget routes typed input into the Select; selections come back
// through the Select's own callbacks.
type searchableWidget struct {
	field schema.Field
	form  *Form
	sel   *searchable.Select
}

func (w *searchableWidget) Field() schema.Field { return w.field }

func (w *searchableWidget) OnChange(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("form: field %q expects a string query, got %T", w.field.Name, value)
	}
	w.sel.SetQuery(s)
	return w.form.store.Set(w.field.Name, s)
}

// buttonWidget triggers accumulation. An unconfirmed searchable pending
// field makes the trigger a silent no-op, matching the incomplete-entry
// contract.
type buttonWidget struct {
	field schema.Field
	form  *Form
}

func (w *buttonWidget) Field() schema.Field { return w.field }

func (w *buttonWidget) OnChange(any) error {
	for _, name := range w.field.Pending {
		sel, ok := w.form.searchables[name]
		if !ok {
			continue
		}
		if _, confirmed := sel.Value(); !confirmed {
			return nil
		}
	}
	added, err := w.form.acc.Accumulate(w.field.Pending, w.field.Target)
	if err != nil {
		return err
	}
	if added {
		// The pending cluster was reset in the store; reset the selects too.
		for _, name := range w.field.Pending {
			if sel, ok := w.form.searchables[name]; ok {
				sel.Clear()
			}
		}
	}
	return nil
}
