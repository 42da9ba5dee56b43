package tui

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lensworks/formkit/pkg/changeset"
	"github.com/lensworks/formkit/pkg/form"
	"github.com/lensworks/formkit/pkg/schema"
)

// Session walks a mounted form group by group, prompting once per field and
// routing every answer through the form's widgets.
type Session struct {
	form   *form.Form
	driver PromptDriver
	// ReadFile is swapped in tests; image prompts load the referenced file.
	readFile func(string) ([]byte, error)
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithDriver replaces the survey driver, typically with a scripted one.
func WithDriver(driver PromptDriver) SessionOption {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithFileReader replaces the loader used for image fields.
func WithFileReader(fn func(string) ([]byte, error)) SessionOption {
	return func(s *Session) {
		if fn != nil {
			s.readFile = fn
		}
	}
}

// NewSession builds a session over a mounted form.
func NewSession(f *form.Form, options ...SessionOption) *Session {
	s := &Session{
		form:     f,
		driver:   NewSurveyDriver(),
		readFile: os.ReadFile,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Run prompts for every field in schema order. It fills the form; the
// caller decides when to submit.
func (s *Session) Run(ctx context.Context, formSchema schema.FormSchema) error {
	for _, group := range formSchema.Groups {
		if err := s.runGroup(ctx, group); err != nil {
			return err
		}
	}
	if formSchema.ImageGroup != nil {
		if err := s.runGroup(ctx, *formSchema.ImageGroup); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) runGroup(ctx context.Context, group schema.Group) error {
	if group.Label != "" {
		if err := s.driver.Info(ctx, "== "+group.Label+" =="); err != nil {
			return err
		}
	}
	for _, row := range group.Rows {
		for _, field := range row {
			if err := s.promptField(ctx, field); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Session) promptField(ctx context.Context, field schema.Field) error {
	switch field.Type {
	case schema.FieldTypeNumber:
		return s.promptNumber(ctx, field)
	case schema.FieldTypePassword:
		return s.promptPassword(ctx, field)
	case schema.FieldTypeTextarea:
		return s.promptTextArea(ctx, field)
	case schema.FieldTypeSelect:
		return s.promptSelect(ctx, field)
	case schema.FieldTypeImage:
		return s.promptImage(ctx, field)
	case schema.FieldTypeSearchable:
		return s.promptSearchable(ctx, field)
	case schema.FieldTypeButton:
		return s.promptButton(ctx, field)
	default:
		return s.promptText(ctx, field)
	}
}

func label(field schema.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func (s *Session) currentString(field schema.Field) string {
	value, _ := s.form.Get(field.Name)
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func (s *Session) promptText(ctx context.Context, field schema.Field) error {
	answer, err := s.driver.Input(ctx, InputConfig{Message: label(field), Default: s.currentString(field)})
	if err != nil {
		return err
	}
	return s.form.Set(field.Name, answer)
}

func (s *Session) promptPassword(ctx context.Context, field schema.Field) error {
	answer, err := s.driver.Password(ctx, InputConfig{Message: label(field)})
	if err != nil {
		return err
	}
	if answer == "" {
		return nil
	}
	return s.form.Set(field.Name, answer)
}

func (s *Session) promptTextArea(ctx context.Context, field schema.Field) error {
	answer, err := s.driver.TextArea(ctx, InputConfig{Message: label(field), Default: s.currentString(field)})
	if err != nil {
		return err
	}
	return s.form.Set(field.Name, answer)
}

func (s *Session) promptNumber(ctx context.Context, field schema.Field) error {
	answer, err := s.driver.Input(ctx, InputConfig{
		Message: label(field),
		Default: s.currentString(field),
		Validator: func(raw string) error {
			trimmed := strings.TrimSpace(raw)
			if trimmed == "" {
				return nil
			}
			if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
				return fmt.Errorf("enter a number")
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	return s.form.Set(field.Name, answer)
}

func (s *Session) promptSelect(ctx context.Context, field schema.Field) error {
	defaultIndex := 0
	current := s.currentString(field)
	for i, option := range field.Options {
		if option == current {
			defaultIndex = i
		}
	}
	idx, err := s.driver.Select(ctx, SelectConfig{
		Message:      label(field),
		Options:      field.Options,
		DefaultIndex: defaultIndex,
	})
	if err != nil {
		return err
	}
	return s.form.Set(field.Name, field.Options[idx])
}

func (s *Session) promptImage(ctx context.Context, field schema.Field) error {
	path, err := s.driver.Input(ctx, InputConfig{
		Message: label(field) + " (file path, empty to skip)",
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" {
		return nil
	}
	content, err := s.readFile(path)
	if err != nil {
		return fmt.Errorf("tui: read image %s: %w", path, err)
	}
	ref := changeset.FileRef{
		Name:    filepath.Base(path),
		MIME:    mime.TypeByExtension(filepath.Ext(path)),
		Content: content,
	}
	return s.form.Set(field.Name, ref)
}

func (s *Session) promptSearchable(ctx context.Context, field schema.Field) error {
	sel, ok := s.form.Searchable(field.Name)
	if !ok {
		return fmt.Errorf("tui: field %q has no candidate source", field.Name)
	}
	query, err := s.driver.Input(ctx, InputConfig{Message: label(field) + " (search)"})
	if err != nil {
		return err
	}
	if err := s.form.Set(field.Name, query); err != nil {
		return err
	}
	suggestions := sel.Suggestions()
	if len(suggestions) == 0 {
		return s.driver.Info(ctx, "no matches")
	}
	options := make([]string, 0, len(suggestions))
	for _, candidate := range suggestions {
		options = append(options, candidate.DisplayName)
	}
	idx, err := s.driver.Select(ctx, SelectConfig{Message: label(field), Options: options})
	if err != nil {
		return err
	}
	sel.Choose(suggestions[idx])
	return nil
}

func (s *Session) promptButton(ctx context.Context, field schema.Field) error {
	confirmed, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label(field) + "?", Default: true})
	if err != nil {
		return err
	}
	if !confirmed {
		return nil
	}
	return s.form.Set(field.Name, nil)
}
