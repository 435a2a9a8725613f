package ontology

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Draft statuses. A draft progresses through these statuses during its
// lifecycle; merged and rejected are terminal.
const (
	DraftStatusDraft     = "draft"
	DraftStatusValidated = "validated"
	DraftStatusSubmitted = "submitted"
	DraftStatusMerged    = "merged"
	DraftStatusRejected  = "rejected"
)

// validDraftStatuses is the set of recognized draft status values.
var validDraftStatuses = map[string]bool{
	DraftStatusDraft:     true,
	DraftStatusValidated: true,
	DraftStatusSubmitted: true,
	DraftStatusMerged:    true,
	DraftStatusRejected:  true,
}

// Draft lifecycle errors.
var (
	ErrInvalidStatus     = errors.New("invalid draft status")
	ErrInvalidTransition = errors.New("invalid draft transition")
	ErrDraftClosed       = errors.New("draft is closed")
	ErrChangeNotFound    = errors.New("change not found in draft")
)

// Draft is a named set of uncommitted changes cut against one canonical
// commit. It holds at most one active change per entity; staging a second
// edit for the same entity merges into the existing change so the draft
// always describes the net difference from its base commit.
type Draft struct {
	DraftID    string    // UUID v7, assigned by the backend on first persist.
	Name       string    // Human-readable name (required, non-empty).
	Status     string    // Current status (one of the DraftStatus constants).
	BaseCommit string    // Canonical commit the draft was cut from.
	Changes    []*Change // Active changes in staging order.
	CreatedAt  time.Time // Timestamp of creation.
	UpdatedAt  time.Time // Timestamp of last modification.
}

// SetStatus sets the draft status to the given value.
// Returns ErrInvalidStatus if the status is not recognized.
// Idempotent: setting the current status succeeds without error.
func (d *Draft) SetStatus(status string) error {
	if !validDraftStatuses[status] {
		return ErrInvalidStatus
	}
	d.Status = status
	d.UpdatedAt = time.Now()
	return nil
}

// MarkValidated records that the draft's content passed validation.
// Returns ErrInvalidTransition unless the current status is "draft".
// Staging any further change drops the draft back to "draft".
func (d *Draft) MarkValidated() error {
	if d.Status != DraftStatusDraft {
		return ErrInvalidTransition
	}
	d.Status = DraftStatusValidated
	d.UpdatedAt = time.Now()
	return nil
}

// Submit marks the draft as submitted for review.
// Returns ErrInvalidTransition unless the current status is "validated".
func (d *Draft) Submit() error {
	if d.Status != DraftStatusValidated {
		return ErrInvalidTransition
	}
	d.Status = DraftStatusSubmitted
	d.UpdatedAt = time.Now()
	return nil
}

// Merge marks the draft as merged into the canonical catalog.
// Returns ErrInvalidTransition unless the current status is "submitted".
// Merged is a terminal status; no further transitions are possible.
func (d *Draft) Merge() error {
	if d.Status != DraftStatusSubmitted {
		return ErrInvalidTransition
	}
	d.Status = DraftStatusMerged
	d.UpdatedAt = time.Now()
	return nil
}

// Reject marks the draft as rejected. Can be called from any open status.
// Returns ErrDraftClosed if the draft is already merged or rejected.
func (d *Draft) Reject() error {
	if d.Closed() {
		return ErrDraftClosed
	}
	d.Status = DraftStatusRejected
	d.UpdatedAt = time.Now()
	return nil
}

// Closed reports whether the draft has reached a terminal status.
func (d *Draft) Closed() bool {
	return d.Status == DraftStatusMerged || d.Status == DraftStatusRejected
}

// Stage merges a new edit into the draft. If no change targets the entity
// yet, the change is appended; otherwise the new edit merges into the
// existing change so at most one change per entity survives:
//
//	create + update  -> create with the patch applied to the staged body
//	create + delete  -> change removed (net effect is nothing)
//	create + create  -> create with the new body
//	update + update  -> update with the ops appended
//	update + delete  -> delete
//	update + create  -> create with the new body
//	delete + create  -> create with the new body
//	delete + update  -> update with the new ops
//	delete + delete  -> delete (idempotent)
//
// Staging on a validated draft drops it back to "draft" since the validated
// content no longer matches. Returns ErrDraftClosed on merged or rejected
// drafts. A patch that fails against a staged create body is rejected here
// rather than deferred, because the base it applies to is the draft's own.
func (d *Draft) Stage(ch *Change) error {
	if d.Closed() {
		return ErrDraftClosed
	}
	if err := ch.Validate(); err != nil {
		return err
	}
	idx := d.changeIndex(ch.EntityType, ch.Key)
	if idx < 0 {
		staged := ch.Clone()
		now := time.Now()
		staged.CreatedAt = now
		staged.UpdatedAt = now
		d.Changes = append(d.Changes, staged)
	} else if err := d.mergeChange(idx, ch); err != nil {
		return err
	}
	if d.Status == DraftStatusValidated {
		d.Status = DraftStatusDraft
	}
	d.UpdatedAt = time.Now()
	return nil
}

// mergeChange folds the new edit into the existing change at idx per the
// merge table documented on Stage.
func (d *Draft) mergeChange(idx int, ch *Change) error {
	existing := d.Changes[idx]
	switch {
	case ch.Kind == ChangeDelete && existing.Kind == ChangeCreate:
		d.Changes = append(d.Changes[:idx], d.Changes[idx+1:]...)
		return nil
	case ch.Kind == ChangeCreate:
		existing.Kind = ChangeCreate
		existing.Document = cloneBody(ch.Document)
		existing.Patch = nil
	case ch.Kind == ChangeDelete:
		existing.Kind = ChangeDelete
		existing.Document = nil
		existing.Patch = nil
	case existing.Kind == ChangeCreate:
		patched, err := ApplyPatch(existing.Document, ch.Patch)
		if err != nil {
			return fmt.Errorf("merging update into staged create for %s: %w", existing.Ref(), err)
		}
		existing.Document = patched
	case existing.Kind == ChangeDelete:
		existing.Kind = ChangeUpdate
		existing.Patch = ch.Clone().Patch
	default:
		existing.Patch = append(existing.Patch, ch.Clone().Patch...)
	}
	existing.UpdatedAt = time.Now()
	return nil
}

// Discard removes the active change for the given entity.
// Returns ErrChangeNotFound if no change targets it, ErrDraftClosed if the
// draft is terminal. Discarding from a validated draft drops it to "draft".
func (d *Draft) Discard(typ EntityType, key string) error {
	if d.Closed() {
		return ErrDraftClosed
	}
	idx := d.changeIndex(typ, key)
	if idx < 0 {
		return fmt.Errorf("%w: %s/%s", ErrChangeNotFound, typ, key)
	}
	d.Changes = append(d.Changes[:idx], d.Changes[idx+1:]...)
	if d.Status == DraftStatusValidated {
		d.Status = DraftStatusDraft
	}
	d.UpdatedAt = time.Now()
	return nil
}

// Active returns the draft's change for the given entity, if any.
func (d *Draft) Active(typ EntityType, key string) (*Change, bool) {
	idx := d.changeIndex(typ, key)
	if idx < 0 {
		return nil, false
	}
	return d.Changes[idx], true
}

// changeIndex returns the index of the change targeting the entity, or -1.
func (d *Draft) changeIndex(typ EntityType, key string) int {
	for i, ch := range d.Changes {
		if ch.EntityType == typ && ch.Key == key {
			return i
		}
	}
	return -1
}

// TouchedRefs returns the references of every entity the draft changes,
// sorted by type then key.
func (d *Draft) TouchedRefs() []EntityRef {
	refs := make([]EntityRef, 0, len(d.Changes))
	for _, ch := range d.Changes {
		refs = append(refs, ch.Ref())
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Type != refs[j].Type {
			return refs[i].Type < refs[j].Type
		}
		return refs[i].Key < refs[j].Key
	})
	return refs
}

// Clone returns a deep copy of the draft, including its changes.
func (d *Draft) Clone() *Draft {
	out := *d
	if d.Changes != nil {
		out.Changes = make([]*Change, len(d.Changes))
		for i, ch := range d.Changes {
			out.Changes[i] = ch.Clone()
		}
	}
	return &out
}
