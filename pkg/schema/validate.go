package schema

import (
	"fmt"

	"github.com/lensworks/formkit/pkg/dotpath"
)

// Error reports a structurally invalid field definition. Schemas failing
// validation must never reach a mounted form.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: %s", e.Reason)
	}
	return fmt.Sprintf("schema: field %q: %s", e.Field, e.Reason)
}

// Validate checks a schema for structural defects: unknown field types,
// duplicate names, dot-path prefix collisions, selects without options and
// buttons without a target. It runs at schema-load time so rendering never
// sees a malformed field.
func Validate(s FormSchema) error {
	fields := s.Fields()
	if len(fields) == 0 {
		return &Error{Reason: "schema declares no fields"}
	}

	known := make(map[FieldType]struct{}, len(FieldTypes()))
	for _, ft := range FieldTypes() {
		known[ft] = struct{}{}
	}

	names := make(map[string]struct{}, len(fields))
	tree := make(map[string]any)

	for _, field := range fields {
		if field.Name == "" {
			return &Error{Reason: "field name is empty"}
		}
		if _, ok := known[field.Type]; !ok {
			return &Error{Field: field.Name, Reason: fmt.Sprintf("unknown field type %q", field.Type)}
		}
		if _, dup := names[field.Name]; dup {
			return &Error{Field: field.Name, Reason: "duplicate field name"}
		}
		names[field.Name] = struct{}{}

		// A scalar marker per field surfaces prefix collisions such as
		// declaring both "x" and "x.y".
		if err := dotpath.Set(tree, field.Name, struct{}{}); err != nil {
			return err
		}

		if err := validateField(field); err != nil {
			return err
		}
	}

	for _, target := range s.Targets() {
		if field, ok := s.Field(target); ok && field.Type != FieldTypeButton {
			return &Error{Field: target, Reason: "accumulator target collides with a scalar field"}
		}
		if err := dotpath.Set(tree, target, []any{}); err != nil {
			return err
		}
	}

	for _, field := range fields {
		if field.Type != FieldTypeButton {
			continue
		}
		for _, pending := range field.Pending {
			if _, ok := names[pending]; !ok {
				return &Error{Field: field.Name, Reason: fmt.Sprintf("pending field %q is not declared", pending)}
			}
		}
	}
	return nil
}

func validateField(field Field) error {
	switch field.Type {
	case FieldTypeSelect:
		if len(field.Options) == 0 {
			return &Error{Field: field.Name, Reason: "select field declares no options"}
		}
	case FieldTypeButton:
		if field.Target == "" {
			return &Error{Field: field.Name, Reason: "button field declares no target"}
		}
		if len(field.Pending) == 0 {
			return &Error{Field: field.Name, Reason: "button field declares no pending fields"}
		}
	}
	return nil
}
