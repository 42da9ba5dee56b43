package schemaload

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/lensworks/formkit/pkg/schema"
)

// Row width used when chunking derived fields into layout rows.
const derivedRowWidth = 2

// FromOpenAPI derives a FormSchema from the request body of one operation
// in an OpenAPI document. Property names become dot-path field names,
// nested objects become their own groups, binary-format strings land in the
// image group, and arrays of objects are registered as accumulator targets.
func FromOpenAPI(ctx context.Context, data []byte, operationID string) (schema.FormSchema, error) {
	if len(data) == 0 {
		return schema.FormSchema{}, errors.New("schemaload: openapi document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return schema.FormSchema{}, fmt.Errorf("schemaload: load openapi document: %w", err)
	}

	operation := findOperation(doc, operationID)
	if operation == nil {
		return schema.FormSchema{}, fmt.Errorf("schemaload: operation %q not found", operationID)
	}
	body := requestSchema(operation)
	if body == nil {
		return schema.FormSchema{}, fmt.Errorf("schemaload: operation %q has no JSON request body", operationID)
	}

	var out schema.FormSchema
	var imageFields []schema.Field

	rootLabel := operation.Summary
	if rootLabel == "" {
		rootLabel = "Details"
	}
	rootFields := collectFields(body, "", &out, &imageFields)
	if len(rootFields) > 0 {
		out.Groups = append([]schema.Group{{Label: rootLabel, Rows: chunkRows(rootFields)}}, out.Groups...)
	}
	if len(imageFields) > 0 {
		out.ImageGroup = &schema.Group{Label: "Images", Rows: chunkRows(imageFields)}
	}

	if err := schema.Validate(out); err != nil {
		return schema.FormSchema{}, err
	}
	return out, nil
}

func findOperation(doc *openapi3.T, operationID string) *openapi3.Operation {
	if doc.Paths == nil {
		return nil
	}
	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for _, operation := range item.Operations() {
			if operation != nil && operation.OperationID == operationID {
				return operation
			}
		}
	}
	return nil
}

func requestSchema(operation *openapi3.Operation) *openapi3.Schema {
	if operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return nil
	}
	for contentType, media := range operation.RequestBody.Value.Content {
		if !strings.Contains(contentType, "json") {
			continue
		}
		if media.Schema != nil && media.Schema.Value != nil {
			return media.Schema.Value
		}
	}
	return nil
}

// collectFields walks the direct scalar properties at one nesting level.
// Nested objects append their own groups to the output schema; image fields
// collect separately.
func collectFields(node *openapi3.Schema, prefix string, out *schema.FormSchema, imageFields *[]schema.Field) []schema.Field {
	names := make([]string, 0, len(node.Properties))
	for name := range node.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var fields []schema.Field
	for _, name := range names {
		ref := node.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		property := ref.Value
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		switch {
		case property.Type != nil && property.Type.Is(openapi3.TypeObject):
			nested := collectFields(property, path, out, imageFields)
			if len(nested) > 0 {
				out.Groups = append(out.Groups, schema.Group{Label: labelFor(name), Rows: chunkRows(nested)})
			}
		case property.Type != nil && property.Type.Is(openapi3.TypeArray):
			out.AccumulatorTargets = append(out.AccumulatorTargets, path)
		default:
			field := scalarField(path, name, property)
			if field.Type == schema.FieldTypeImage {
				*imageFields = append(*imageFields, field)
				continue
			}
			fields = append(fields, field)
		}
	}
	return fields
}

func scalarField(path, name string, property *openapi3.Schema) schema.Field {
	field := schema.Field{
		Name:    path,
		Label:   labelFor(name),
		Type:    schema.FieldTypeText,
		Initial: property.Default,
	}

	switch {
	case property.Type != nil && (property.Type.Is(openapi3.TypeNumber) || property.Type.Is(openapi3.TypeInteger)):
		field.Type = schema.FieldTypeNumber
	case len(property.Enum) > 0:
		field.Type = schema.FieldTypeSelect
		for _, option := range property.Enum {
			if s, ok := option.(string); ok {
				field.Options = append(field.Options, s)
			}
		}
	default:
		switch property.Format {
		case "email":
			field.Type = schema.FieldTypeEmail
		case "password":
			field.Type = schema.FieldTypePassword
		case "binary", "byte":
			field.Type = schema.FieldTypeImage
		case "textarea":
			field.Type = schema.FieldTypeTextarea
		}
	}
	return field
}

func chunkRows(fields []schema.Field) [][]schema.Field {
	var rows [][]schema.Field
	for len(fields) > 0 {
		width := derivedRowWidth
		if len(fields) < width {
			width = len(fields)
		}
		rows = append(rows, fields[:width])
		fields = fields[width:]
	}
	return rows
}

func labelFor(name string) string {
	if name == "" {
		return ""
	}
	// snake_case and camelCase property names read better with spaces.
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_':
			b.WriteRune(' ')
		case i > 0 && r >= 'A' && r <= 'Z':
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	label := b.String()
	return strings.ToUpper(label[:1]) + label[1:]
}
