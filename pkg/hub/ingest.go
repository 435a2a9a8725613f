// This file implements the ingestion entrypoints: materialized-view refresh,
// per-draft rebase checks, and the full post-snapshot sequence.
package hub

import (
	"errors"
	"fmt"

	"github.com/labki-org/ontology-hub/pkg/inherit"
	"github.com/labki-org/ontology-hub/pkg/ontology"
	"github.com/labki-org/ontology-hub/pkg/rebase"
)

// Ingester is implemented by stores that can re-ingest their canonical
// snapshot in place, reporting the new commit.
type Ingester interface {
	Ingest() (string, error)
}

// ErrIngestUnsupported is returned by IngestSnapshot when the wired store
// cannot re-ingest a snapshot.
var ErrIngestUnsupported = errors.New("store does not support snapshot ingest")

// IngestReport is the outcome of a snapshot ingest: the new canonical commit
// and the rebase status of every open draft against it.
type IngestReport struct {
	Commit string                   `json:"commit"`
	Rebase map[string]rebase.Report `json:"rebase"`
}

// RefreshMaterialized rebuilds the inheritance view for every canonical
// category at the store's current commit. The replacement view is built
// before the swap, so concurrent readers keep the prior version until the
// refresh completes.
func (h *Hub) RefreshMaterialized() error {
	commit, err := h.store.Head()
	if err != nil {
		return fmt.Errorf("reading head commit: %w", err)
	}
	keys, err := h.store.Keys(ontology.TypeCategory)
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	return h.view.Refresh(inherit.StoreSource{Store: h.store}, commit, keys)
}

// CheckRebase classifies the draft against the current canonical commit.
func (h *Hub) CheckRebase(draftID string) (rebase.Report, error) {
	d, err := h.drafts.GetDraft(draftID)
	if err != nil {
		return rebase.Report{}, fmt.Errorf("loading draft %s: %w", draftID, err)
	}
	return h.checkDraft(d)
}

// RebaseStatuses runs the rebase detector for every open draft and returns a
// per-draft report keyed by draft id.
func (h *Hub) RebaseStatuses() (map[string]rebase.Report, error) {
	drafts, err := h.drafts.ListDrafts()
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	out := make(map[string]rebase.Report)
	for _, d := range drafts {
		if d.Closed() {
			continue
		}
		rep, err := h.checkDraft(d)
		if err != nil {
			return nil, err
		}
		out[d.DraftID] = rep
	}
	return out, nil
}

// IngestSnapshot re-ingests the store's snapshot, rebuilds the materialized
// view at the new commit, and reruns the rebase detector for every open
// draft.
func (h *Hub) IngestSnapshot() (*IngestReport, error) {
	ing, ok := h.store.(Ingester)
	if !ok {
		return nil, ErrIngestUnsupported
	}
	commit, err := ing.Ingest()
	if err != nil {
		return nil, fmt.Errorf("ingesting snapshot: %w", err)
	}
	if err := h.RefreshMaterialized(); err != nil {
		return nil, err
	}
	statuses, err := h.RebaseStatuses()
	if err != nil {
		return nil, err
	}
	return &IngestReport{Commit: commit, Rebase: statuses}, nil
}

// checkDraft diffs canonical changes since the draft's base and classifies.
// A base commit the journal no longer knows cannot prove disjointness, so it
// reports needs_rebase rather than an error.
func (h *Hub) checkDraft(d *ontology.Draft) (rebase.Report, error) {
	head, err := h.store.Head()
	if err != nil {
		return rebase.Report{}, fmt.Errorf("reading head commit: %w", err)
	}
	if d.BaseCommit == head {
		return rebase.Report{Status: rebase.StatusClean}, nil
	}
	changed, err := h.store.ChangedSince(d.BaseCommit)
	if errors.Is(err, ontology.ErrUnknownCommit) {
		return rebase.Report{Status: rebase.StatusNeedsRebase}, nil
	}
	if err != nil {
		return rebase.Report{}, fmt.Errorf("diffing since %s: %w", d.BaseCommit, err)
	}
	return rebase.Check(d.BaseCommit, head, changed, d.TouchedRefs()), nil
}
