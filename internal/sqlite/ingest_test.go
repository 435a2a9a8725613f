// Tests for snapshot re-ingest and commit journaling.
package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labki-org/ontology-hub/pkg/ontology"
)

func TestIngestJournalsDiff(t *testing.T) {
	property := entityJSON{Key: "Has manufacturer", Body: map[string]any{"datatype": "text"}}
	b, dataDir := newSeededBackend(t, "c1", map[ontology.EntityType][]entityJSON{
		ontology.TypeCategory: {
			{Key: "Equipment", Body: map[string]any{"label": "Equipment"}},
			{Key: "Reagent", Body: map[string]any{"label": "Reagent"}},
		},
		ontology.TypeProperty: {property},
	})
	defer b.Detach()

	// New snapshot: Equipment relabeled, Instrument added, Reagent dropped,
	// the property untouched.
	writeSnapshot(t, dataDir, "c2", map[ontology.EntityType][]entityJSON{
		ontology.TypeCategory: {
			{Key: "Equipment", Body: map[string]any{"label": "Lab Equipment"}},
			{Key: "Instrument", Body: map[string]any{"label": "Instrument"}},
		},
		ontology.TypeProperty: {property},
	})

	commit, err := b.Ingest()
	require.NoError(t, err)
	assert.Equal(t, "c2", commit)

	head, err := b.Head()
	require.NoError(t, err)
	assert.Equal(t, "c2", head)

	refs, err := b.ChangedSince("c1")
	require.NoError(t, err)
	assert.Equal(t, []ontology.EntityRef{
		{Type: ontology.TypeCategory, Key: "Equipment"},
		{Type: ontology.TypeCategory, Key: "Instrument"},
		{Type: ontology.TypeCategory, Key: "Reagent"},
	}, refs)

	refs, err = b.ChangedSince("c2")
	require.NoError(t, err)
	assert.Empty(t, refs)

	// Canonical rows carry the new commit, deleted entities are gone.
	doc, err := b.Get(ontology.TypeCategory, "Equipment")
	require.NoError(t, err)
	assert.Equal(t, "Lab Equipment", doc.Body["label"])
	assert.Equal(t, "c2", doc.Origin.Commit)

	_, err = b.Get(ontology.TypeCategory, "Reagent")
	assert.ErrorIs(t, err, ontology.ErrNotFound)
}

func TestIngestUnchangedCommitNoOp(t *testing.T) {
	b, _ := newSeededBackend(t, "c1", map[ontology.EntityType][]entityJSON{
		ontology.TypeCategory: {{Key: "Equipment", Body: map[string]any{}}},
	})
	defer b.Detach()

	commit, err := b.Ingest()
	require.NoError(t, err)
	assert.Equal(t, "c1", commit)

	refs, err := b.ChangedSince("c1")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestIngestWithoutManifest(t *testing.T) {
	b, _ := newAttachedBackend(t)
	defer b.Detach()

	_, err := b.Ingest()
	assert.ErrorIs(t, err, ontology.ErrNotFound)
}

func TestIngestJournalSurvivesReattach(t *testing.T) {
	b1, dataDir := newSeededBackend(t, "c1", map[ontology.EntityType][]entityJSON{
		ontology.TypeCategory: {{Key: "Equipment", Body: map[string]any{"label": "Equipment"}}},
	})

	writeSnapshot(t, dataDir, "c2", map[ontology.EntityType][]entityJSON{
		ontology.TypeCategory: {{Key: "Equipment", Body: map[string]any{"label": "Lab Equipment"}}},
	})
	_, err := b1.Ingest()
	require.NoError(t, err)
	require.NoError(t, b1.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(ontology.Config{Backend: ontology.BackendSQLite, DataDir: dataDir}))
	defer b2.Detach()

	head, err := b2.Head()
	require.NoError(t, err)
	assert.Equal(t, "c2", head)

	refs, err := b2.ChangedSince("c1")
	require.NoError(t, err)
	assert.Equal(t, []ontology.EntityRef{
		{Type: ontology.TypeCategory, Key: "Equipment"},
	}, refs)
}

func TestIngestEdgesRebuilt(t *testing.T) {
	b, dataDir := newSeededBackend(t, "c1", map[ontology.EntityType][]entityJSON{
		ontology.TypeCategory: {
			{Key: "Storage", Body: map[string]any{}},
			{Key: "Equipment", Body: map[string]any{}},
			{Key: "Freezer", Body: map[string]any{"parents": []any{"Storage"}}},
		},
	})
	defer b.Detach()

	parents, err := b.Parents("Freezer")
	require.NoError(t, err)
	assert.Equal(t, []string{"Storage"}, parents)

	writeSnapshot(t, dataDir, "c2", map[ontology.EntityType][]entityJSON{
		ontology.TypeCategory: {
			{Key: "Storage", Body: map[string]any{}},
			{Key: "Equipment", Body: map[string]any{}},
			{Key: "Freezer", Body: map[string]any{"parents": []any{"Equipment"}}},
		},
	})
	_, err = b.Ingest()
	require.NoError(t, err)

	parents, err = b.Parents("Freezer")
	require.NoError(t, err)
	assert.Equal(t, []string{"Equipment"}, parents)
}
