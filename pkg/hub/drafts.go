// This file implements the draft write path: create, stage, discard,
// lifecycle transitions, and the export plan for a draft's changes.
package hub

import (
	"fmt"

	"github.com/labki-org/ontology-hub/pkg/export"
	"github.com/labki-org/ontology-hub/pkg/ontology"
)

// CreateDraft opens a new draft cut against the given canonical commit, or
// against the current head when baseCommit is empty. The persisted draft is
// returned with its generated id.
func (h *Hub) CreateDraft(name, baseCommit string) (*ontology.Draft, error) {
	if baseCommit == "" {
		head, err := h.store.Head()
		if err != nil {
			return nil, fmt.Errorf("reading head commit: %w", err)
		}
		baseCommit = head
	}
	d := &ontology.Draft{Name: name, BaseCommit: baseCommit}
	if _, err := h.drafts.SaveDraft(d); err != nil {
		return nil, fmt.Errorf("creating draft: %w", err)
	}
	return d, nil
}

// GetDraft returns the draft with the given id.
func (h *Hub) GetDraft(draftID string) (*ontology.Draft, error) {
	return h.drafts.GetDraft(draftID)
}

// ListDrafts returns all drafts, oldest first.
func (h *Hub) ListDrafts() ([]*ontology.Draft, error) {
	return h.drafts.ListDrafts()
}

// OpenDrafts returns the drafts still open for changes: merged and rejected
// drafts are excluded.
func (h *Hub) OpenDrafts() ([]*ontology.Draft, error) {
	all, err := h.drafts.ListDrafts()
	if err != nil {
		return nil, err
	}
	open := []*ontology.Draft{}
	for _, d := range all {
		if !d.Closed() {
			open = append(open, d)
		}
	}
	return open, nil
}

// DeleteDraft removes the draft with the given id.
func (h *Hub) DeleteDraft(draftID string) error {
	return h.drafts.DeleteDraft(draftID)
}

// StageChange validates the change, merges it into the draft's staging state,
// persists the draft, and returns it refreshed. Staging follows the one
// active change per entity rule; see ontology.Draft.Stage for the merge
// behavior.
func (h *Hub) StageChange(draftID string, ch *ontology.Change) (*ontology.Draft, error) {
	d, err := h.drafts.GetDraft(draftID)
	if err != nil {
		return nil, fmt.Errorf("loading draft %s: %w", draftID, err)
	}
	if err := d.Stage(ch); err != nil {
		return nil, err
	}
	if _, err := h.drafts.SaveDraft(d); err != nil {
		return nil, fmt.Errorf("saving draft %s: %w", draftID, err)
	}
	return d, nil
}

// DiscardChange removes the draft's active change for the given entity and
// persists the draft.
func (h *Hub) DiscardChange(draftID string, typ ontology.EntityType, key string) (*ontology.Draft, error) {
	d, err := h.drafts.GetDraft(draftID)
	if err != nil {
		return nil, fmt.Errorf("loading draft %s: %w", draftID, err)
	}
	if err := d.Discard(typ, key); err != nil {
		return nil, err
	}
	if _, err := h.drafts.SaveDraft(d); err != nil {
		return nil, fmt.Errorf("saving draft %s: %w", draftID, err)
	}
	return d, nil
}

// TransitionDraft moves the draft to the target status honoring the
// lifecycle: draft -> validated -> submitted -> merged, with rejected
// reachable from any open status. The transition timestamp is persisted.
func (h *Hub) TransitionDraft(draftID, target string) (*ontology.Draft, error) {
	d, err := h.drafts.GetDraft(draftID)
	if err != nil {
		return nil, fmt.Errorf("loading draft %s: %w", draftID, err)
	}

	switch target {
	case ontology.DraftStatusValidated:
		err = d.MarkValidated()
	case ontology.DraftStatusSubmitted:
		err = d.Submit()
	case ontology.DraftStatusMerged:
		err = d.Merge()
	case ontology.DraftStatusRejected:
		err = d.Reject()
	default:
		err = fmt.Errorf("%w: %q", ontology.ErrInvalidStatus, target)
	}
	if err != nil {
		return nil, err
	}

	if _, err := h.drafts.SaveDraft(d); err != nil {
		return nil, fmt.Errorf("saving draft %s: %w", draftID, err)
	}
	return d, nil
}

// ExportPlan maps the draft's staged changes to repository file operations
// for the external export layer.
func (h *Hub) ExportPlan(draftID string) ([]export.FileChange, error) {
	d, err := h.drafts.GetDraft(draftID)
	if err != nil {
		return nil, fmt.Errorf("loading draft %s: %w", draftID, err)
	}
	return export.Plan(h.store, d)
}
