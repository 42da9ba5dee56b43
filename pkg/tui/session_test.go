package tui_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lensworks/formkit/pkg/changeset"
	"github.com/lensworks/formkit/pkg/form"
	"github.com/lensworks/formkit/pkg/schema"
	"github.com/lensworks/formkit/pkg/searchable"
	"github.com/lensworks/formkit/pkg/tui"
)

// scriptedDriver replays canned answers in prompt order.
type scriptedDriver struct {
	inputs   []string
	selects  []int
	confirms []bool
}

func (d *scriptedDriver) nextInput() (string, error) {
	if len(d.inputs) == 0 {
		return "", fmt.Errorf("scripted driver: no inputs left")
	}
	out := d.inputs[0]
	d.inputs = d.inputs[1:]
	return out, nil
}

func (d *scriptedDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	answer, err := d.nextInput()
	if err != nil {
		return "", err
	}
	if cfg.Validator != nil {
		if err := cfg.Validator(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

func (d *scriptedDriver) Password(ctx context.Context, cfg tui.InputConfig) (string, error) {
	return d.nextInput()
}

func (d *scriptedDriver) TextArea(ctx context.Context, cfg tui.InputConfig) (string, error) {
	return d.nextInput()
}

func (d *scriptedDriver) Select(_ context.Context, cfg tui.SelectConfig) (int, error) {
	if len(d.selects) == 0 {
		return 0, fmt.Errorf("scripted driver: no selections left")
	}
	out := d.selects[0]
	d.selects = d.selects[1:]
	if out < 0 || out >= len(cfg.Options) {
		return 0, fmt.Errorf("scripted driver: selection %d out of range", out)
	}
	return out, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg tui.ConfirmConfig) (bool, error) {
	if len(d.confirms) == 0 {
		return cfg.Default, nil
	}
	out := d.confirms[0]
	d.confirms = d.confirms[1:]
	return out, nil
}

func (d *scriptedDriver) Info(context.Context, string) error { return nil }

func sessionSchema() schema.FormSchema {
	return schema.FormSchema{
		Groups: []schema.Group{
			{
				Label: "Order",
				Rows: [][]schema.Field{
					{
						{Name: "customer", Label: "Customer", Type: schema.FieldTypeText},
						{Name: "status", Label: "Status", Type: schema.FieldTypeSelect, Options: []string{"Open", "Fulfilled"}},
					},
					{
						{Name: "pending.itemName", Label: "Item", Type: schema.FieldTypeSearchable, Source: "inventory"},
						{Name: "pending.quantity", Label: "Quantity", Type: schema.FieldTypeNumber},
						{Name: "addItem", Label: "Add item", Type: schema.FieldTypeButton, Target: "otherItems",
							Pending: []string{"pending.itemName", "pending.quantity"}},
					},
				},
			},
		},
		ImageGroup: &schema.Group{
			Rows: [][]schema.Field{
				{{Name: "receipt", Label: "Receipt", Type: schema.FieldTypeImage}},
			},
		},
	}
}

func TestSessionFillsFormThroughWidgets(t *testing.T) {
	f, err := form.Mount(sessionSchema(),
		form.WithCandidates("inventory", []searchable.Candidate{
			{DisplayName: "Gauze", Category: "Supply"},
			{DisplayName: "Lens Cloth", Category: "Supply"},
		}),
	)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer f.Unmount()

	driver := &scriptedDriver{
		// customer, item query, quantity, image path
		inputs: []string{"Ada Ezeh", "gau", "2", "receipt.png"},
		// status option, searchable suggestion
		selects:  []int{1, 0},
		confirms: []bool{true},
	}
	session := tui.NewSession(f,
		tui.WithDriver(driver),
		tui.WithFileReader(func(path string) ([]byte, error) {
			if path != "receipt.png" {
				return nil, fmt.Errorf("unexpected path %q", path)
			}
			return []byte("png-bytes"), nil
		}),
	)

	if err := session.Run(context.Background(), sessionSchema()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got, _ := f.Get("customer"); got != "Ada Ezeh" {
		t.Fatalf("customer = %v", got)
	}
	if got, _ := f.Get("status"); got != "Fulfilled" {
		t.Fatalf("status = %v", got)
	}

	entries, _ := f.Get("otherItems")
	want := []any{map[string]any{"itemName": "Gauze", "quantity": float64(2)}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	image, _ := f.Get("receipt")
	ref, ok := image.(changeset.FileRef)
	if !ok || ref.Name != "receipt.png" || string(ref.Content) != "png-bytes" {
		t.Fatalf("receipt = %#v", image)
	}

	cs, enc, err := f.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if enc != changeset.EncodingMultipart {
		t.Fatalf("encoding = %v, want multipart", enc)
	}
	for _, key := range []string{"customer", "status", "otherItems", "receipt"} {
		if _, ok := cs[key]; !ok {
			t.Fatalf("change-set missing %q: %v", key, cs)
		}
	}
}

func TestSessionDecliningButtonSkipsAccumulation(t *testing.T) {
	f, err := form.Mount(sessionSchema(),
		form.WithCandidates("inventory", []searchable.Candidate{{DisplayName: "Gauze"}}),
	)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer f.Unmount()

	driver := &scriptedDriver{
		inputs:   []string{"Ada Ezeh", "gau", "2", ""},
		selects:  []int{0, 0},
		confirms: []bool{false},
	}
	session := tui.NewSession(f, tui.WithDriver(driver))

	if err := session.Run(context.Background(), sessionSchema()); err != nil {
		t.Fatalf("run: %v", err)
	}

	entries, _ := f.Get("otherItems")
	if len(entries.([]any)) != 0 {
		t.Fatalf("entries = %v, want none", entries)
	}
}
