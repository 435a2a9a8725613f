package ontology

import (
	"errors"
	"testing"
)

func TestChangeValidate(t *testing.T) {
	tests := []struct {
		name    string
		change  Change
		wantErr error
	}{
		{
			"valid create",
			Change{Kind: ChangeCreate, EntityType: TypeCategory, Key: "Equipment", Document: map[string]any{"label": "Equipment"}},
			nil,
		},
		{
			"valid update",
			Change{Kind: ChangeUpdate, EntityType: TypeCategory, Key: "Equipment", Patch: []PatchOp{{Op: PatchOpAdd, Path: "/label", Value: "x"}}},
			nil,
		},
		{
			"valid delete",
			Change{Kind: ChangeDelete, EntityType: TypeProperty, Key: "Has manufacturer"},
			nil,
		},
		{
			"unknown kind",
			Change{Kind: "rename", EntityType: TypeCategory, Key: "Equipment"},
			ErrInvalidChangeKind,
		},
		{
			"bad entity type",
			Change{Kind: ChangeDelete, EntityType: "widget", Key: "x"},
			ErrInvalidEntityType,
		},
		{
			"empty key",
			Change{Kind: ChangeDelete, EntityType: TypeCategory},
			ErrInvalidKey,
		},
		{
			"create without document",
			Change{Kind: ChangeCreate, EntityType: TypeCategory, Key: "Equipment"},
			ErrMissingDocument,
		},
		{
			"update without ops",
			Change{Kind: ChangeUpdate, EntityType: TypeCategory, Key: "Equipment"},
			ErrMissingPatch,
		},
		{
			"update with bad op",
			Change{Kind: ChangeUpdate, EntityType: TypeCategory, Key: "Equipment", Patch: []PatchOp{{Op: "rename", Path: "/x"}}},
			ErrInvalidPatchOp,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.change.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChangeClone(t *testing.T) {
	ch := &Change{
		Kind:       ChangeCreate,
		EntityType: TypeCategory,
		Key:        "Equipment",
		Document:   map[string]any{"label": "Equipment"},
		Patch:      []PatchOp{{Op: PatchOpAdd, Path: "/x", Value: map[string]any{"a": 1}}},
	}
	cp := ch.Clone()
	cp.Document["label"] = "Changed"
	cp.Patch[0].Value.(map[string]any)["a"] = 2

	if ch.Document["label"] != "Equipment" {
		t.Error("Clone shares document with original")
	}
	if ch.Patch[0].Value.(map[string]any)["a"] != 1 {
		t.Error("Clone shares patch values with original")
	}
}
