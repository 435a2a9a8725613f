package inherit

import (
	"github.com/labki-org/ontology-hub/pkg/ontology"
	"github.com/labki-org/ontology-hub/pkg/overlay"
)

// StoreSource reads canonical category documents straight from a store.
type StoreSource struct {
	Store ontology.Store
}

// Category returns the canonical document for the given category key.
func (s StoreSource) Category(key string) (*ontology.Document, error) {
	return s.Store.Get(ontology.TypeCategory, key)
}

// OverlaySource reads draft-effective category documents: canonical documents
// with the draft's changes applied. A category whose update ops fail to apply
// traverses with its canonical body, matching the overlay resolver's in-band
// handling of patch failures.
type OverlaySource struct {
	Store ontology.Store
	Draft *ontology.Draft
}

// Category returns the effective document for the given category key.
func (s OverlaySource) Category(key string) (*ontology.Document, error) {
	eff, err := overlay.Resolve(s.Store, s.Draft, ontology.TypeCategory, key)
	if err != nil {
		return nil, err
	}
	return eff.Document, nil
}
