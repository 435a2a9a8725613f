package ontology

import (
	"errors"
	"fmt"
	"time"
)

// Change kinds. A change captures one staged edit to one entity.
const (
	ChangeCreate = "create"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// validChangeKinds is the set of recognized change kind values.
var validChangeKinds = map[string]bool{
	ChangeCreate: true,
	ChangeUpdate: true,
	ChangeDelete: true,
}

// Change validation errors.
var (
	ErrInvalidChangeKind = errors.New("invalid change kind")
	ErrMissingDocument   = errors.New("create change requires a document body")
	ErrMissingPatch      = errors.New("update change requires patch ops")
)

// Change is one staged edit inside a draft: a full replacement body for
// creates, an ordered patch for updates, or nothing further for deletes.
// A draft holds at most one change per entity; staging another edit for the
// same entity merges into the existing change.
type Change struct {
	ChangeID   string         // UUID v7, assigned by the backend on first persist.
	Kind       string         // One of the Change* kind constants.
	EntityType EntityType     // Type of the target entity.
	Key        string         // Key of the target entity.
	Document   map[string]any // Full body for create changes.
	Patch      []PatchOp      // Ordered RFC 6902 ops for update changes.
	CreatedAt  time.Time      // Timestamp of first staging.
	UpdatedAt  time.Time      // Timestamp of last merge into this change.
}

// Ref returns the entity reference this change targets.
func (c *Change) Ref() EntityRef {
	return EntityRef{Type: c.EntityType, Key: c.Key}
}

// Validate checks structural validity: recognized kind, valid target
// reference, and the payload the kind demands. Creates must carry a body,
// updates must carry well-formed ops, deletes need no payload.
func (c *Change) Validate() error {
	if !validChangeKinds[c.Kind] {
		return fmt.Errorf("%w: %q", ErrInvalidChangeKind, c.Kind)
	}
	if err := c.Ref().Validate(); err != nil {
		return err
	}
	switch c.Kind {
	case ChangeCreate:
		if c.Document == nil {
			return fmt.Errorf("%w: %s", ErrMissingDocument, c.Ref())
		}
	case ChangeUpdate:
		if len(c.Patch) == 0 {
			return fmt.Errorf("%w: %s", ErrMissingPatch, c.Ref())
		}
		if err := ValidatePatchOps(c.Patch); err != nil {
			return fmt.Errorf("%w: %s", err, c.Ref())
		}
	}
	return nil
}

// Clone returns a deep copy of the change. Document bodies and patch values
// are copied so callers can mutate the result freely.
func (c *Change) Clone() *Change {
	out := *c
	out.Document = cloneBody(c.Document)
	if c.Patch != nil {
		out.Patch = make([]PatchOp, len(c.Patch))
		for i, op := range c.Patch {
			out.Patch[i] = PatchOp{Op: op.Op, Path: op.Path, Value: cloneValue(op.Value), From: op.From}
		}
	}
	return &out
}
