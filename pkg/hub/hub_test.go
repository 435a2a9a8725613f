// Tests for facade reads over a seeded reference backend.
package hub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labki-org/ontology-hub/pkg/ontology"
	"github.com/labki-org/ontology-hub/pkg/overlay"
)

// writeFile writes one file under dir, overwriting any previous content.
func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// seedDataDir writes the shared snapshot fixture: an Equipment category whose
// property constrains Organization, two Organization resources, a module, a
// dependent module, and a bundle.
func seedDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "snapshot.json", `{"commit": "c1"}`)
	writeFile(t, dir, "categories.jsonl",
		`{"key": "Equipment", "path": "categories/Equipment.json", "body": {"label": "Equipment", "properties": [{"property": "Has manufacturer", "required": true}]}}
{"key": "Organization", "path": "categories/Organization.json", "body": {"label": "Organization"}}
`)
	writeFile(t, dir, "properties.jsonl",
		`{"key": "Has manufacturer", "path": "properties/Has_manufacturer.json", "body": {"datatype": "page", "constraint_category": "Organization"}}
`)
	writeFile(t, dir, "resources.jsonl",
		`{"key": "Organization/Acme", "body": {"label": "Acme"}}
{"key": "Globex", "body": {"categories": ["Organization"], "label": "Globex"}}
`)
	writeFile(t, dir, "modules.jsonl",
		`{"key": "lab-equipment", "body": {"categories": ["Equipment"], "templates": ["EquipmentTable"]}}
{"key": "lab-suite", "body": {"dependencies": ["lab-equipment"], "properties": ["Has serial number"]}}
`)
	writeFile(t, dir, "bundles.jsonl",
		`{"key": "starter", "body": {"modules": ["lab-equipment"]}}
`)
	return dir
}

// newTestHub opens a hub over the shared fixture and registers detach.
func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	dir := seedDataDir(t)
	h, cat, err := Open(ontology.Config{Backend: ontology.BackendSQLite, DataDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { cat.Detach() })
	return h, dir
}

func TestOpenValidatesConfig(t *testing.T) {
	_, _, err := Open(ontology.Config{Backend: "postgres", DataDir: t.TempDir()})
	assert.ErrorIs(t, err, ontology.ErrBackendUnknown)
}

func TestResolveEntityCanonical(t *testing.T) {
	h, _ := newTestHub(t)

	eff, err := h.ResolveEntity(ontology.TypeCategory, "Equipment", "")
	require.NoError(t, err)
	assert.Equal(t, overlay.StatusUnchanged, eff.Status)
	assert.Equal(t, "Equipment", eff.Document.Body["label"])
	assert.Equal(t, "c1", eff.Document.Origin.Commit)
}

func TestResolveEntityWithDraftUpdate(t *testing.T) {
	h, _ := newTestHub(t)

	d, err := h.CreateDraft("relabel equipment", "")
	require.NoError(t, err)
	_, err = h.StageChange(d.DraftID, &ontology.Change{
		Kind:       ontology.ChangeUpdate,
		EntityType: ontology.TypeCategory,
		Key:        "Equipment",
		Patch: []ontology.PatchOp{
			{Op: ontology.PatchOpAdd, Path: "/label", Value: "Lab Equipment"},
		},
	})
	require.NoError(t, err)

	eff, err := h.ResolveEntity(ontology.TypeCategory, "Equipment", d.DraftID)
	require.NoError(t, err)
	assert.Equal(t, overlay.StatusModified, eff.Status)
	assert.Equal(t, "Lab Equipment", eff.Document.Body["label"])

	// The canonical view is untouched.
	eff, err = h.ResolveEntity(ontology.TypeCategory, "Equipment", "")
	require.NoError(t, err)
	assert.Equal(t, "Equipment", eff.Document.Body["label"])
}

func TestResolveEntityDraftDeleteDominates(t *testing.T) {
	h, _ := newTestHub(t)

	d, err := h.CreateDraft("drop equipment", "")
	require.NoError(t, err)
	_, err = h.StageChange(d.DraftID, &ontology.Change{
		Kind:       ontology.ChangeDelete,
		EntityType: ontology.TypeCategory,
		Key:        "Equipment",
	})
	require.NoError(t, err)

	_, err = h.ResolveEntity(ontology.TypeCategory, "Equipment", d.DraftID)
	assert.ErrorIs(t, err, ontology.ErrNotFound)

	ok, err := h.Exists(ontology.TypeCategory, "Equipment", d.DraftID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveEntityUnknownDraft(t *testing.T) {
	h, _ := newTestHub(t)

	_, err := h.ResolveEntity(ontology.TypeCategory, "Equipment", "no-such-draft")
	assert.ErrorIs(t, err, ontology.ErrNotFound)
}

func TestListEntitiesMergesDraftCreates(t *testing.T) {
	h, _ := newTestHub(t)

	d, err := h.CreateDraft("add vehicle", "")
	require.NoError(t, err)
	_, err = h.StageChange(d.DraftID, &ontology.Change{
		Kind:       ontology.ChangeCreate,
		EntityType: ontology.TypeCategory,
		Key:        "Vehicle",
		Document:   map[string]any{"label": "Vehicle"},
	})
	require.NoError(t, err)

	effs, err := h.ListEntities(ontology.TypeCategory, d.DraftID)
	require.NoError(t, err)
	require.Len(t, effs, 3)
	assert.Equal(t, "Equipment", effs[0].Document.Key)
	assert.Equal(t, "Organization", effs[1].Document.Key)
	assert.Equal(t, "Vehicle", effs[2].Document.Key)
	assert.Equal(t, overlay.StatusAdded, effs[2].Status)

	canonical, err := h.ListEntities(ontology.TypeCategory, "")
	require.NoError(t, err)
	assert.Len(t, canonical, 2)
}

func TestExists(t *testing.T) {
	h, _ := newTestHub(t)

	ok, err := h.Exists(ontology.TypeCategory, "Equipment", "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Exists(ontology.TypeCategory, "Vehicle", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEffectivePropertiesCanonical(t *testing.T) {
	h, _ := newTestHub(t)

	rows, err := h.EffectiveProperties("Equipment", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Has manufacturer", rows[0].Property)
	assert.Equal(t, "Equipment", rows[0].Source)
	assert.Equal(t, 0, rows[0].Depth)
	assert.True(t, rows[0].Required)

	// Unknown categories resolve to empty rows, not an error.
	rows, err = h.EffectiveProperties("Vehicle", "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEffectivePropertiesWithDraftParent(t *testing.T) {
	h, _ := newTestHub(t)

	// Freezer inherits Equipment's property through a draft-created parent
	// edge; the canonical catalog has no Freezer at all.
	d, err := h.CreateDraft("add freezer", "")
	require.NoError(t, err)
	_, err = h.StageChange(d.DraftID, &ontology.Change{
		Kind:       ontology.ChangeCreate,
		EntityType: ontology.TypeCategory,
		Key:        "Freezer",
		Document:   map[string]any{"label": "Freezer", "parents": []any{"Equipment"}},
	})
	require.NoError(t, err)

	rows, err := h.EffectiveProperties("Freezer", d.DraftID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Has manufacturer", rows[0].Property)
	assert.Equal(t, "Equipment", rows[0].Source)
	assert.Equal(t, 1, rows[0].Depth)

	rows, err = h.EffectiveProperties("Freezer", "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLineageReadThroughCachesCanonical(t *testing.T) {
	h, _ := newTestHub(t)

	require.Equal(t, 0, h.view.Len())
	_, err := h.EffectiveProperties("Equipment", "")
	require.NoError(t, err)
	assert.Equal(t, 1, h.view.Len())
	assert.Equal(t, "c1", h.view.Commit())

	// A draft with category changes never touches the view.
	d, err := h.CreateDraft("add freezer", "")
	require.NoError(t, err)
	_, err = h.StageChange(d.DraftID, &ontology.Change{
		Kind:       ontology.ChangeCreate,
		EntityType: ontology.TypeCategory,
		Key:        "Freezer",
		Document:   map[string]any{"parents": []any{"Equipment"}},
	})
	require.NoError(t, err)
	_, err = h.EffectiveProperties("Freezer", d.DraftID)
	require.NoError(t, err)
	assert.Equal(t, 1, h.view.Len())
}
