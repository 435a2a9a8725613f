package derive

import (
	"github.com/labki-org/ontology-hub/pkg/ontology"
	"github.com/labki-org/ontology-hub/pkg/overlay"
)

// StoreSource reads canonical documents straight from a store.
type StoreSource struct {
	Store ontology.Store
}

// Category returns the canonical category document.
func (s StoreSource) Category(key string) (*ontology.Document, error) {
	return s.Store.Get(ontology.TypeCategory, key)
}

// Property returns the canonical property document.
func (s StoreSource) Property(key string) (*ontology.Document, error) {
	return s.Store.Get(ontology.TypeProperty, key)
}

// Subobject returns the canonical subobject document.
func (s StoreSource) Subobject(key string) (*ontology.Document, error) {
	return s.Store.Get(ontology.TypeSubobject, key)
}

// Resources returns every canonical resource document, sorted by key.
func (s StoreSource) Resources() ([]*ontology.Document, error) {
	return s.Store.List(ontology.TypeResource)
}

// OverlaySource reads draft-effective documents, so closures reflect the
// draft's creates, updates, and deletes, including resources that exist only
// in the draft.
type OverlaySource struct {
	Store ontology.Store
	Draft *ontology.Draft
}

// Category returns the effective category document.
func (s OverlaySource) Category(key string) (*ontology.Document, error) {
	return s.resolve(ontology.TypeCategory, key)
}

// Property returns the effective property document.
func (s OverlaySource) Property(key string) (*ontology.Document, error) {
	return s.resolve(ontology.TypeProperty, key)
}

// Subobject returns the effective subobject document.
func (s OverlaySource) Subobject(key string) (*ontology.Document, error) {
	return s.resolve(ontology.TypeSubobject, key)
}

// Resources returns every effective resource document, sorted by key.
func (s OverlaySource) Resources() ([]*ontology.Document, error) {
	effs, err := overlay.ResolveList(s.Store, s.Draft, ontology.TypeResource)
	if err != nil {
		return nil, err
	}
	docs := make([]*ontology.Document, len(effs))
	for i, eff := range effs {
		docs[i] = eff.Document
	}
	return docs, nil
}

func (s OverlaySource) resolve(typ ontology.EntityType, key string) (*ontology.Document, error) {
	eff, err := overlay.Resolve(s.Store, s.Draft, typ, key)
	if err != nil {
		return nil, err
	}
	return eff.Document, nil
}
