// Package overlay computes effective documents: the canonical catalog as it
// would look with a draft's uncommitted changes applied on top. Resolution
// never mutates canonical documents and never persists anything; every call
// derives a fresh view from the store and the draft passed in.
package overlay

import (
	"errors"
	"fmt"

	"github.com/labki-org/ontology-hub/pkg/ontology"
)

// Effective document statuses, describing how the effective body relates to
// the canonical one.
const (
	StatusUnchanged = "unchanged"
	StatusAdded     = "added"
	StatusModified  = "modified"
)

// EffectiveDocument is one entity as seen through a draft. PatchError is
// non-empty when the draft's update ops could not be applied; the document
// then carries the canonical body unmodified and Status stays "unchanged".
// Patch failures are reported in-band, never as a resolution error.
type EffectiveDocument struct {
	Document   *ontology.Document
	Status     string
	PatchError string
}

// Resolve computes the effective document for one entity. A nil draft reads
// the canonical catalog directly. Draft deletes dominate: the entity resolves
// to ErrNotFound no matter what the canonical catalog holds. Draft creates
// yield the replacement payload verbatim with status "added"; a create over a
// pre-existing canonical key is a validation-time concern, not handled here.
// Updates against a missing canonical entity return ErrNotFound.
func Resolve(store ontology.Store, d *ontology.Draft, typ ontology.EntityType, key string) (*EffectiveDocument, error) {
	ch := activeChange(d, typ, key)
	if ch == nil {
		doc, err := store.Get(typ, key)
		if err != nil {
			return nil, fmt.Errorf("resolving %s/%s: %w", typ, key, err)
		}
		return &EffectiveDocument{Document: doc, Status: StatusUnchanged}, nil
	}

	switch ch.Kind {
	case ontology.ChangeDelete:
		return nil, fmt.Errorf("resolving %s/%s: %w", typ, key, ontology.ErrNotFound)

	case ontology.ChangeCreate:
		doc := &ontology.Document{Type: typ, Key: key, Body: ch.Document}
		return &EffectiveDocument{Document: doc.Clone(), Status: StatusAdded}, nil

	default:
		doc, err := store.Get(typ, key)
		if err != nil {
			return nil, fmt.Errorf("resolving %s/%s: %w", typ, key, err)
		}
		patched, err := ontology.ApplyPatch(doc.Body, ch.Patch)
		if err != nil {
			return &EffectiveDocument{Document: doc, Status: StatusUnchanged, PatchError: err.Error()}, nil
		}
		eff := doc.Clone()
		eff.Body = patched
		return &EffectiveDocument{Document: eff, Status: StatusModified}, nil
	}
}

// Exists reports whether the entity is present in the effective view: true
// when the canonical catalog has it and the draft does not delete it, or when
// the draft creates it.
func Exists(store ontology.Store, d *ontology.Draft, typ ontology.EntityType, key string) (bool, error) {
	switch ch := activeChange(d, typ, key); {
	case ch == nil:
	case ch.Kind == ontology.ChangeDelete:
		return false, nil
	case ch.Kind == ontology.ChangeCreate:
		return true, nil
	}
	_, err := store.Get(typ, key)
	if errors.Is(err, ontology.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s/%s: %w", typ, key, err)
	}
	return true, nil
}

// activeChange returns the draft's change for the entity, tolerating a nil
// draft.
func activeChange(d *ontology.Draft, typ ontology.EntityType, key string) *ontology.Change {
	if d == nil {
		return nil
	}
	ch, ok := d.Active(typ, key)
	if !ok {
		return nil
	}
	return ch
}
