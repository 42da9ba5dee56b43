// Package schemaload turns external schema documents into validated
// FormSchema values. Admin pages author their forms as YAML documents;
// alternatively a schema can be derived from an OpenAPI operation published
// by the clinic backend. Either way validation runs here, so a malformed
// schema never reaches a mounted form.
package schemaload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lensworks/formkit/pkg/schema"
)

// Document mirrors the YAML layout of a form schema file.
type document struct {
	Groups             []group  `yaml:"groups"`
	ImageGroup         *group   `yaml:"imageGroup"`
	AccumulatorTargets []string `yaml:"accumulatorTargets"`
}

type group struct {
	Label string    `yaml:"label"`
	Rows  [][]field `yaml:"rows"`
}

type field struct {
	Name    string   `yaml:"name"`
	Label   string   `yaml:"label"`
	Type    string   `yaml:"type"`
	Initial any      `yaml:"initial"`
	Options []string `yaml:"options"`
	Span    int      `yaml:"span"`
	Source  string   `yaml:"source"`
	Pending []string `yaml:"pending"`
	Target  string   `yaml:"target"`
}

// FromYAML decodes and validates a YAML form schema document.
func FromYAML(data []byte) (schema.FormSchema, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return schema.FormSchema{}, fmt.Errorf("schemaload: decode yaml: %w", err)
	}

	out := schema.FormSchema{
		AccumulatorTargets: doc.AccumulatorTargets,
	}
	for _, g := range doc.Groups {
		out.Groups = append(out.Groups, convertGroup(g))
	}
	if doc.ImageGroup != nil {
		converted := convertGroup(*doc.ImageGroup)
		out.ImageGroup = &converted
	}

	if err := schema.Validate(out); err != nil {
		return schema.FormSchema{}, err
	}
	return out, nil
}

// FromYAMLFile reads and decodes a YAML form schema file.
func FromYAMLFile(path string) (schema.FormSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.FormSchema{}, fmt.Errorf("schemaload: read %s: %w", path, err)
	}
	return FromYAML(data)
}

func convertGroup(g group) schema.Group {
	out := schema.Group{Label: g.Label}
	for _, row := range g.Rows {
		converted := make([]schema.Field, 0, len(row))
		for _, f := range row {
			converted = append(converted, schema.Field{
				Name:    f.Name,
				Label:   f.Label,
				Type:    schema.FieldType(f.Type),
				Initial: f.Initial,
				Options: f.Options,
				Span:    f.Span,
				Source:  f.Source,
				Pending: f.Pending,
				Target:  f.Target,
			})
		}
		out.Rows = append(out.Rows, converted)
	}
	return out
}
