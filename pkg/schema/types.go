// Package schema defines the declarative form model the engine consumes:
// typed fields arranged in groups and rows, plus load-time validation that
// rejects structurally broken schemas before a form is mounted.
package schema

// FieldType enumerates the closed set of input behaviors a field may use.
type FieldType string

const (
	FieldTypeText       FieldType = "text"
	FieldTypeEmail      FieldType = "email"
	FieldTypeNumber     FieldType = "number"
	FieldTypePassword   FieldType = "password"
	FieldTypeImage      FieldType = "image"
	FieldTypeSelect     FieldType = "select"
	FieldTypeTextarea   FieldType = "textarea"
	FieldTypeSearchable FieldType = "searchable"
	FieldTypeButton     FieldType = "button"
)

// FieldTypes lists every recognised field type in a stable order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeEmail,
		FieldTypeNumber,
		FieldTypePassword,
		FieldTypeImage,
		FieldTypeSelect,
		FieldTypeTextarea,
		FieldTypeSearchable,
		FieldTypeButton,
	}
}

// Field models a single input inside a form. Name is a dot-path identifier
// ("rightEye.sphere"); nesting is resolved by the dotpath codec, storage
// stays flat-keyed.
type Field struct {
	Name    string    `json:"name"`
	Label   string    `json:"label,omitempty"`
	Type    FieldType `json:"type"`
	Initial any       `json:"initial,omitempty"`
	Options []string  `json:"options,omitempty"`
	// Span is a layout hint (column width); semantically irrelevant.
	Span int `json:"span,omitempty"`
	// Source names the candidate list backing a searchable field. The list
	// itself is supplied by the caller at mount time.
	Source string `json:"source,omitempty"`
	// Pending and Target configure a button field: pressing it snapshots the
	// Pending fields into the array stored at Target.
	Pending []string `json:"pending,omitempty"`
	Target  string   `json:"target,omitempty"`
}

// Default returns the value a field resets to: the declared initial value
// when present, otherwise the zero value for its type.
func (f Field) Default() any {
	if f.Initial != nil {
		return f.Initial
	}
	if f.Type == FieldTypeNumber {
		return float64(0)
	}
	return ""
}

// Group is a labelled cluster of fields laid out in rows. Row order matters
// only to rendering, never to the data model.
type Group struct {
	Label string    `json:"label,omitempty"`
	Rows  [][]Field `json:"rows"`
}

// FormSchema is the full declarative description of one add/edit form.
type FormSchema struct {
	Groups []Group `json:"groups"`
	// ImageGroup optionally holds image fields rendered apart from the main
	// groups. Its presence is what makes multipart submits possible.
	ImageGroup *Group `json:"imageGroup,omitempty"`
	// AccumulatorTargets lists array-valued fields that receive appended
	// sub-entries. Button targets are added implicitly during validation.
	AccumulatorTargets []string `json:"accumulatorTargets,omitempty"`
}

// Fields returns every field in declared order, image group last.
func (s FormSchema) Fields() []Field {
	var out []Field
	for _, group := range s.Groups {
		for _, row := range group.Rows {
			out = append(out, row...)
		}
	}
	if s.ImageGroup != nil {
		for _, row := range s.ImageGroup.Rows {
			out = append(out, row...)
		}
	}
	return out
}

// Field looks up a field by name.
func (s FormSchema) Field(name string) (Field, bool) {
	for _, field := range s.Fields() {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Defaults builds the flat default-value mapping used to seed a new form
// state. Button fields contribute nothing; accumulator targets start as
// empty entry lists.
func (s FormSchema) Defaults() map[string]any {
	out := make(map[string]any)
	for _, field := range s.Fields() {
		if field.Type == FieldTypeButton {
			continue
		}
		out[field.Name] = field.Default()
	}
	for _, target := range s.Targets() {
		if _, ok := out[target]; !ok {
			out[target] = []any{}
		}
	}
	return out
}

// Targets returns the union of declared accumulator targets and button
// targets, in first-seen order.
func (s FormSchema) Targets() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, target := range s.AccumulatorTargets {
		add(target)
	}
	for _, field := range s.Fields() {
		if field.Type == FieldTypeButton {
			add(field.Target)
		}
	}
	return out
}
