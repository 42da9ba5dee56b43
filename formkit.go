// Package formkit is the schema-driven form engine behind the optical
// clinic's admin screens. Pages declare a FormSchema, mount it (optionally
// seeded from an existing record), route input through typed widgets, and
// on submit receive the minimal change-set plus the transport encoding to
// use for it. See pkg/form for the orchestration entry point.
package formkit

import (
	"github.com/lensworks/formkit/pkg/changeset"
	"github.com/lensworks/formkit/pkg/form"
	"github.com/lensworks/formkit/pkg/schema"
	"github.com/lensworks/formkit/pkg/searchable"
)

// Re-exported schema types; most callers only need these and pkg/form.
type (
	FormSchema = schema.FormSchema
	FieldGroup = schema.Group
	Field      = schema.Field
	FieldType  = schema.FieldType

	ChangeSet = changeset.ChangeSet
	Encoding  = changeset.Encoding
	FileRef   = changeset.FileRef

	Candidate = searchable.Candidate
)

const (
	EncodingStructured = changeset.EncodingStructured
	EncodingMultipart  = changeset.EncodingMultipart
)

// Mount validates a schema and mounts a form over it.
func Mount(s FormSchema, options ...form.Option) (*form.Form, error) {
	return form.Mount(s, options...)
}

// ValidateSchema checks a schema without mounting it; useful at page-load
// time before any state exists.
func ValidateSchema(s FormSchema) error {
	return schema.Validate(s)
}
