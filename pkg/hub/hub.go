// Package hub is the facade the external API layer invokes: effective-view
// reads, inheritance and module derivation, rebase checks, and the draft
// write path, wired over a store and a draft store. Canonical-only
// inheritance queries are served from a commit-versioned materialized view;
// any computation involving a draft is recomputed per request and never
// cached. Every read takes an optional draft id; an empty id reads the
// canonical catalog alone.
package hub

import (
	"fmt"

	"github.com/labki-org/ontology-hub/pkg/inherit"
	"github.com/labki-org/ontology-hub/pkg/ontology"
	"github.com/labki-org/ontology-hub/pkg/sqlite"
)

// Hub wires the computation core to a store and draft store.
type Hub struct {
	store    ontology.Store
	drafts   ontology.DraftStore
	view     *inherit.View
	maxDepth int
}

// New returns a Hub reading canonical data from store and drafts from
// drafts. The materialized inheritance view starts empty; call
// RefreshMaterialized after ingest to populate it.
func New(store ontology.Store, drafts ontology.DraftStore, cfg ontology.Config) *Hub {
	return &Hub{
		store:    store,
		drafts:   drafts,
		view:     inherit.NewView(),
		maxDepth: cfg.DerivationDepth(),
	}
}

// Open attaches the backend named by cfg and wires a Hub over it. The
// returned catalog is attached; the caller detaches it when done.
func Open(cfg ontology.Config) (*Hub, ontology.Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validating config: %w", err)
	}
	cat := sqlite.NewBackend()
	if err := cat.Attach(cfg); err != nil {
		return nil, nil, fmt.Errorf("attaching backend: %w", err)
	}
	return New(cat, cat, cfg), cat, nil
}

// optionalDraft loads the draft for the given id, nil when the id is empty.
func (h *Hub) optionalDraft(draftID string) (*ontology.Draft, error) {
	if draftID == "" {
		return nil, nil
	}
	d, err := h.drafts.GetDraft(draftID)
	if err != nil {
		return nil, fmt.Errorf("loading draft %s: %w", draftID, err)
	}
	return d, nil
}
