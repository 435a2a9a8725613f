// Tests for ingestion entrypoints: refresh, rebase checks, snapshot ingest.
package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labki-org/ontology-hub/pkg/ontology"
	"github.com/labki-org/ontology-hub/pkg/rebase"
)

func TestCheckRebaseCleanAtHead(t *testing.T) {
	h, _ := newTestHub(t)

	d, err := h.CreateDraft("current", "")
	require.NoError(t, err)

	rep, err := h.CheckRebase(d.DraftID)
	require.NoError(t, err)
	assert.Equal(t, rebase.StatusClean, rep.Status)
}

func TestCheckRebaseUnknownBase(t *testing.T) {
	h, _ := newTestHub(t)

	d, err := h.CreateDraft("ancient", "c0")
	require.NoError(t, err)

	rep, err := h.CheckRebase(d.DraftID)
	require.NoError(t, err)
	assert.Equal(t, rebase.StatusNeedsRebase, rep.Status)
}

func TestCheckRebaseUnknownDraft(t *testing.T) {
	h, _ := newTestHub(t)

	_, err := h.CheckRebase("no-such-draft")
	assert.ErrorIs(t, err, ontology.ErrNotFound)
}

func TestRefreshMaterialized(t *testing.T) {
	h, _ := newTestHub(t)

	require.NoError(t, h.RefreshMaterialized())
	assert.Equal(t, "c1", h.view.Commit())
	assert.Equal(t, 2, h.view.Len())

	rows, err := h.EffectiveProperties("Equipment", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Has manufacturer", rows[0].Property)
}

func TestIngestSnapshotFlow(t *testing.T) {
	h, dir := newTestHub(t)

	conflicted, err := h.CreateDraft("touches equipment", "")
	require.NoError(t, err)
	_, err = h.StageChange(conflicted.DraftID, &ontology.Change{
		Kind:       ontology.ChangeUpdate,
		EntityType: ontology.TypeCategory,
		Key:        "Equipment",
		Patch: []ontology.PatchOp{
			{Op: ontology.PatchOpAdd, Path: "/label", Value: "Gear"},
		},
	})
	require.NoError(t, err)

	disjoint, err := h.CreateDraft("adds vehicle", "")
	require.NoError(t, err)
	_, err = h.StageChange(disjoint.DraftID, &ontology.Change{
		Kind:       ontology.ChangeCreate,
		EntityType: ontology.TypeCategory,
		Key:        "Vehicle",
		Document:   map[string]any{"label": "Vehicle"},
	})
	require.NoError(t, err)

	closed, err := h.CreateDraft("already rejected", "")
	require.NoError(t, err)
	_, err = h.TransitionDraft(closed.DraftID, ontology.DraftStatusRejected)
	require.NoError(t, err)

	// New snapshot relabels Equipment.
	writeFile(t, dir, "snapshot.json", `{"commit": "c2"}`)
	writeFile(t, dir, "categories.jsonl",
		`{"key": "Equipment", "path": "categories/Equipment.json", "body": {"label": "Lab Equipment", "properties": [{"property": "Has manufacturer", "required": true}]}}
{"key": "Organization", "path": "categories/Organization.json", "body": {"label": "Organization"}}
`)

	report, err := h.IngestSnapshot()
	require.NoError(t, err)
	assert.Equal(t, "c2", report.Commit)

	require.Contains(t, report.Rebase, conflicted.DraftID)
	assert.Equal(t, rebase.StatusConflict, report.Rebase[conflicted.DraftID].Status)
	assert.Equal(t, []ontology.EntityRef{
		{Type: ontology.TypeCategory, Key: "Equipment"},
	}, report.Rebase[conflicted.DraftID].Conflicts)

	require.Contains(t, report.Rebase, disjoint.DraftID)
	assert.Equal(t, rebase.StatusNeedsRebase, report.Rebase[disjoint.DraftID].Status)

	assert.NotContains(t, report.Rebase, closed.DraftID)

	// The materialized view moved to the new commit.
	assert.Equal(t, "c2", h.view.Commit())

	eff, err := h.ResolveEntity(ontology.TypeCategory, "Equipment", "")
	require.NoError(t, err)
	assert.Equal(t, "Lab Equipment", eff.Document.Body["label"])
}

func TestIngestSnapshotUnsupportedStore(t *testing.T) {
	h := New(staticStore{}, nil, ontology.Config{Backend: ontology.BackendSQLite})

	_, err := h.IngestSnapshot()
	assert.ErrorIs(t, err, ErrIngestUnsupported)
}

// staticStore is a Store without ingest support.
type staticStore struct{}

func (staticStore) Attach(ontology.Config) error { return nil }
func (staticStore) Detach() error                { return nil }
func (staticStore) Head() (string, error)        { return "", nil }
func (staticStore) Get(ontology.EntityType, string) (*ontology.Document, error) {
	return nil, ontology.ErrNotFound
}
func (staticStore) List(ontology.EntityType) ([]*ontology.Document, error) { return nil, nil }
func (staticStore) Keys(ontology.EntityType) ([]string, error)             { return nil, nil }
func (staticStore) Parents(string) ([]string, error)                       { return nil, nil }
func (staticStore) ChangedSince(string) ([]ontology.EntityRef, error)      { return nil, nil }
