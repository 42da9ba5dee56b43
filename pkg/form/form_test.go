package form_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lensworks/formkit/pkg/changeset"
	"github.com/lensworks/formkit/pkg/form"
	"github.com/lensworks/formkit/pkg/schema"
	"github.com/lensworks/formkit/pkg/searchable"
)

func nameSchema() schema.FormSchema {
	return schema.FormSchema{
		Groups: []schema.Group{
			{
				Label: "Patient",
				Rows: [][]schema.Field{
					{
						{Name: "fname", Label: "First name", Type: schema.FieldTypeText},
						{Name: "lname", Label: "Last name", Type: schema.FieldTypeText},
					},
				},
			},
		},
	}
}

func withImage(s schema.FormSchema) schema.FormSchema {
	s.ImageGroup = &schema.Group{
		Rows: [][]schema.Field{
			{{Name: "image", Type: schema.FieldTypeImage}},
		},
	}
	return s
}

func TestSubmitSendsOnlyChangedFields(t *testing.T) {
	var gotCS changeset.ChangeSet
	var gotEnc changeset.Encoding
	f, err := form.Mount(nameSchema(),
		form.WithSeed(map[string]any{"fname": "Jane", "lname": ""}),
		form.WithSubmitter(func(cs changeset.ChangeSet, enc changeset.Encoding) error {
			gotCS, gotEnc = cs, enc
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer f.Unmount()

	if err := f.Set("lname", "Doe"); err != nil {
		t.Fatalf("set: %v", err)
	}

	cs, enc, err := f.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := changeset.ChangeSet{"lname": "Doe"}
	if diff := cmp.Diff(want, cs); diff != "" {
		t.Fatalf("change-set mismatch (-want +got):\n%s", diff)
	}
	if enc != changeset.EncodingStructured {
		t.Fatalf("encoding = %v, want structured", enc)
	}
	if diff := cmp.Diff(want, gotCS); diff != "" {
		t.Fatalf("submitter change-set mismatch (-want +got):\n%s", diff)
	}
	if gotEnc != changeset.EncodingStructured {
		t.Fatalf("submitter encoding = %v", gotEnc)
	}
}

func TestSubmitImageChangeSelectsMultipart(t *testing.T) {
	f, err := form.Mount(withImage(nameSchema()),
		form.WithSeed(map[string]any{"fname": "Jane", "lname": "Doe"}),
	)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer f.Unmount()

	ref := changeset.FileRef{Name: "photo.png", MIME: "image/png", Content: []byte{1, 2, 3}}
	if err := f.Set("image", ref); err != nil {
		t.Fatalf("set image: %v", err)
	}

	cs, enc, err := f.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(cs) != 1 {
		t.Fatalf("change-set = %v, want only the image", cs)
	}
	if _, ok := cs["image"]; !ok {
		t.Fatal("image missing from change-set")
	}
	if enc != changeset.EncodingMultipart {
		t.Fatalf("encoding = %v, want multipart", enc)
	}
}

func TestEmptyChangeSetSkipsSubmitter(t *testing.T) {
	calls := 0
	f, err := form.Mount(nameSchema(),
		form.WithSeed(map[string]any{"fname": "Jane", "lname": "Doe"}),
		form.WithSubmitter(func(changeset.ChangeSet, changeset.Encoding) error {
			calls++
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer f.Unmount()

	cs, _, err := f.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(cs) != 0 {
		t.Fatalf("change-set = %v, want empty", cs)
	}
	if calls != 0 {
		t.Fatal("no-op submit must skip the submitter")
	}
}

func TestValidatorMessagesAbortSubmit(t *testing.T) {
	calls := 0
	f, err := form.Mount(nameSchema(),
		form.WithValidator(func(values map[string]any) []string {
			if values["fname"] == "" {
				return []string{"First name is required."}
			}
			return nil
		}),
		form.WithSubmitter(func(changeset.ChangeSet, changeset.Encoding) error {
			calls++
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer f.Unmount()

	if err := f.Set("lname", "Doe"); err != nil {
		t.Fatalf("set: %v", err)
	}

	_, _, err = f.Submit()

	var validation *form.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validation.Messages) != 1 || validation.Messages[0] != "First name is required." {
		t.Fatalf("messages = %v", validation.Messages)
	}
	if calls != 0 {
		t.Fatal("validator failure must skip the submitter")
	}
}

func TestMountRejectsInvalidSchema(t *testing.T) {
	s := nameSchema()
	s.Groups[0].Rows[0][1].Type = "checkbox"

	if _, err := form.Mount(s); err == nil {
		t.Fatal("mount must fail on unknown field type")
	}
}

func TestTransformAppliesToEmittedValue(t *testing.T) {
	s := nameSchema()
	s.Groups[0].Rows[0] = append(s.Groups[0].Rows[0],
		schema.Field{Name: "role", Type: schema.FieldTypeSelect, Options: []string{"Admin", "Optician"}})

	f, err := form.Mount(s,
		form.WithSeed(map[string]any{"role": "Admin"}),
		form.WithTransform("role", changeset.LowercaseString),
	)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer f.Unmount()

	if err := f.Set("role", "Optician"); err != nil {
		t.Fatalf("set: %v", err)
	}

	cs, _, err := f.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if cs["role"] != "optician" {
		t.Fatalf("role = %v, want lower-cased", cs["role"])
	}
}

func orderFormSchema() schema.FormSchema {
	return schema.FormSchema{
		Groups: []schema.Group{
			{
				Label: "Other items",
				Rows: [][]schema.Field{
					{
						{Name: "pending.itemName", Type: schema.FieldTypeSearchable, Source: "inventory"},
						{Name: "pending.quantity", Type: schema.FieldTypeNumber},
						{Name: "addItem", Type: schema.FieldTypeButton, Target: "otherItems",
							Pending: []string{"pending.itemName", "pending.quantity"}},
					},
				},
			},
		},
	}
}

func inventory() []searchable.Candidate {
	return []searchable.Candidate{
		{DisplayName: "Gauze", Category: "Supply", Meta: map[string]any{"id": 7}},
		{DisplayName: "Lens Cloth", Category: "Supply", Meta: map[string]any{"id": 8}},
	}
}

func TestAccumulationThroughTheForm(t *testing.T) {
	var pickedID any
	f, err := form.Mount(orderFormSchema(),
		form.WithCandidates("inventory", inventory()),
		form.WithSearchableOptions("pending.itemName",
			searchable.OnSelect(func(c searchable.Candidate) {
				pickedID = c.Meta["id"]
			}),
		),
	)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer f.Unmount()

	// Free-typed, unconfirmed text plus a quantity: trigger is a no-op.
	if err := f.Set("pending.itemName", "Gauz"); err != nil {
		t.Fatalf("set query: %v", err)
	}
	if err := f.Set("pending.quantity", float64(2)); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if err := f.Set("addItem", nil); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	entries, _ := f.Get("otherItems")
	if len(entries.([]any)) != 0 {
		t.Fatalf("unconfirmed entry accumulated: %v", entries)
	}

	// Confirm the candidate, then trigger again.
	sel, ok := f.Searchable("pending.itemName")
	if !ok {
		t.Fatal("missing searchable select")
	}
	sel.Choose(sel.Suggestions()[0])
	if pickedID != 7 {
		t.Fatalf("onSelect meta id = %v, want 7", pickedID)
	}
	if err := f.Set("addItem", nil); err != nil {
		t.Fatalf("trigger: %v", err)
	}

	entries, _ = f.Get("otherItems")
	want := []any{map[string]any{"itemName": "Gauze", "quantity": float64(2)}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	// Pending cluster resets after a successful append.
	if v, _ := f.Get("pending.itemName"); v != "" {
		t.Fatalf("pending.itemName = %v, want reset", v)
	}
	if v, _ := f.Get("pending.quantity"); v != float64(0) {
		t.Fatalf("pending.quantity = %v, want reset", v)
	}

	if err := f.RemoveEntry("otherItems", 0); err != nil {
		t.Fatalf("remove entry: %v", err)
	}
	entries, _ = f.Get("otherItems")
	if len(entries.([]any)) != 0 {
		t.Fatalf("entries after removal = %v", entries)
	}
}

func TestUnmountReleasesScopedResources(t *testing.T) {
	f, err := form.Mount(orderFormSchema(),
		form.WithCandidates("inventory", inventory()),
	)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}

	if f.Interactions().Len() != 1 {
		t.Fatalf("live subscriptions = %d, want 1", f.Interactions().Len())
	}

	f.Unmount()

	if f.Interactions().Len() != 0 {
		t.Fatalf("subscriptions leaked after unmount: %d", f.Interactions().Len())
	}
	if err := f.Set("pending.quantity", float64(1)); err == nil {
		t.Fatal("set after unmount must fail")
	}
}
