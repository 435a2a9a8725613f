package overlay

import (
	"fmt"
	"sort"

	"github.com/labki-org/ontology-hub/pkg/ontology"
)

// ResolveList computes the effective documents of one entity type: canonical
// entities with draft updates applied, minus draft deletes, plus draft
// creates. Results are sorted by key; a key that is both canonical and
// draft-created yields a single entry carrying the draft's body.
func ResolveList(store ontology.Store, d *ontology.Draft, typ ontology.EntityType) ([]*EffectiveDocument, error) {
	keys, err := store.Keys(typ)
	if err != nil {
		return nil, fmt.Errorf("listing %s keys: %w", typ, err)
	}
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		seen[key] = true
	}
	if d != nil {
		for _, ch := range d.Changes {
			if ch.EntityType == typ && ch.Kind == ontology.ChangeCreate && !seen[ch.Key] {
				keys = append(keys, ch.Key)
				seen[ch.Key] = true
			}
		}
	}
	sort.Strings(keys)

	out := make([]*EffectiveDocument, 0, len(keys))
	for _, key := range keys {
		if deleted(d, typ, key) {
			continue
		}
		eff, err := Resolve(store, d, typ, key)
		if err != nil {
			return nil, err
		}
		out = append(out, eff)
	}
	return out, nil
}

// ListDraftCreates resolves every create change of the given type in the
// draft, sorted by key, for union with canonical listings.
func ListDraftCreates(store ontology.Store, d *ontology.Draft, typ ontology.EntityType) ([]*EffectiveDocument, error) {
	if d == nil {
		return nil, nil
	}
	var keys []string
	for _, ch := range d.Changes {
		if ch.EntityType == typ && ch.Kind == ontology.ChangeCreate {
			keys = append(keys, ch.Key)
		}
	}
	sort.Strings(keys)

	out := make([]*EffectiveDocument, 0, len(keys))
	for _, key := range keys {
		eff, err := Resolve(store, d, typ, key)
		if err != nil {
			return nil, err
		}
		out = append(out, eff)
	}
	return out, nil
}

// deleted reports whether the draft stages a delete for the entity.
func deleted(d *ontology.Draft, typ ontology.EntityType, key string) bool {
	ch := activeChange(d, typ, key)
	return ch != nil && ch.Kind == ontology.ChangeDelete
}
