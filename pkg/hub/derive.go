// This file implements module and bundle derivation: explicit members join
// the closure directly, category members seed the derivation engine, and
// module dependencies recurse with a visited set.
package hub

import (
	"errors"
	"fmt"

	"github.com/labki-org/ontology-hub/pkg/derive"
	"github.com/labki-org/ontology-hub/pkg/ontology"
	"github.com/labki-org/ontology-hub/pkg/overlay"
)

// ModuleClosure is the full derived content of a module or bundle: the
// explicit category seeds the derivation started from and the computed
// closure. Nothing here is ever persisted on the module document.
type ModuleClosure struct {
	Key    string         `json:"key"`
	Seeds  []string       `json:"seeds"`
	Result *derive.Result `json:"result"`
}

// Derive computes the closure of the given seed categories against the
// effective view.
func (h *Hub) Derive(seeds []string, draftID string) (*derive.Result, error) {
	d, err := h.optionalDraft(draftID)
	if err != nil {
		return nil, err
	}
	return derive.NewEngine(h.deriveSource(d), h.maxDepth).Derive(seeds)
}

// DeriveModule derives the full contents of a module, or of a bundle by
// union of its member modules. Explicit members of every type join the
// result directly with "declared" provenance; category members become
// derivation seeds. Module dependencies recurse, dangling references are
// skipped. Returns ontology.ErrNotFound when the key names neither a module
// nor a bundle in the effective view.
func (h *Hub) DeriveModule(key, draftID string) (*ModuleClosure, error) {
	d, err := h.optionalDraft(draftID)
	if err != nil {
		return nil, err
	}

	mm := newModuleMembers()
	visited := make(map[string]bool)

	isModule, err := overlay.Exists(h.store, d, ontology.TypeModule, key)
	if err != nil {
		return nil, err
	}
	if isModule {
		if err := h.collectModule(d, key, mm, visited); err != nil {
			return nil, err
		}
	} else {
		isBundle, err := overlay.Exists(h.store, d, ontology.TypeBundle, key)
		if err != nil {
			return nil, err
		}
		if !isBundle {
			return nil, fmt.Errorf("deriving %q: %w", key, ontology.ErrNotFound)
		}
		eff, err := overlay.Resolve(h.store, d, ontology.TypeBundle, key)
		if err != nil {
			return nil, err
		}
		for _, mod := range eff.Document.MemberKeys(ontology.TypeModule) {
			if err := h.collectModule(d, mod, mm, visited); err != nil {
				return nil, err
			}
		}
	}

	res, err := derive.NewEngine(h.deriveSource(d), h.maxDepth).Derive(mm.seeds)
	if err != nil {
		return nil, err
	}
	mm.stamp(res)
	return &ModuleClosure{Key: key, Seeds: mm.seeds, Result: res}, nil
}

// deriveSource picks the canonical or overlay source for the draft.
func (h *Hub) deriveSource(d *ontology.Draft) derive.Source {
	if d == nil {
		return derive.StoreSource{Store: h.store}
	}
	return derive.OverlaySource{Store: h.store, Draft: d}
}

// collectModule folds one module's explicit membership into mm and recurses
// over its dependencies. A dangling module reference is skipped.
func (h *Hub) collectModule(d *ontology.Draft, key string, mm *moduleMembers, visited map[string]bool) error {
	if visited[key] {
		return nil
	}
	visited[key] = true

	eff, err := overlay.Resolve(h.store, d, ontology.TypeModule, key)
	if errors.Is(err, ontology.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	doc := eff.Document

	for _, cat := range doc.MemberKeys(ontology.TypeCategory) {
		mm.addSeed(cat)
	}
	for _, typ := range declaredMemberTypes {
		for _, member := range doc.MemberKeys(typ) {
			mm.declare(typ, member, key)
		}
	}
	for _, dep := range doc.Dependencies() {
		if err := h.collectModule(d, dep, mm, visited); err != nil {
			return err
		}
	}
	return nil
}

// declaredMemberTypes are the member types that join a closure directly
// rather than seeding derivation.
var declaredMemberTypes = []ontology.EntityType{
	ontology.TypeProperty,
	ontology.TypeSubobject,
	ontology.TypeTemplate,
	ontology.TypeResource,
}

// moduleMembers accumulates the explicit membership of a module graph:
// category seeds in declaration order and declared members with the module
// that declared them first.
type moduleMembers struct {
	seeds    []string
	seedSet  map[string]bool
	declared map[ontology.EntityType]map[string]string
}

func newModuleMembers() *moduleMembers {
	return &moduleMembers{
		seedSet:  make(map[string]bool),
		declared: make(map[ontology.EntityType]map[string]string),
	}
}

func (mm *moduleMembers) addSeed(cat string) {
	if cat == "" || mm.seedSet[cat] {
		return
	}
	mm.seedSet[cat] = true
	mm.seeds = append(mm.seeds, cat)
}

func (mm *moduleMembers) declare(typ ontology.EntityType, key, module string) {
	if key == "" {
		return
	}
	if mm.declared[typ] == nil {
		mm.declared[typ] = make(map[string]string)
	}
	if _, ok := mm.declared[typ][key]; !ok {
		mm.declared[typ][key] = module
	}
}

// stamp writes declared membership into the result. Declared provenance wins
// over derived provenance: explicit membership precedes every expansion
// round, so the recording reflects the step that introduced the entity first.
func (mm *moduleMembers) stamp(res *derive.Result) {
	sets := map[ontology.EntityType]map[string]derive.Provenance{
		ontology.TypeProperty:  res.Properties,
		ontology.TypeSubobject: res.Subobjects,
		ontology.TypeTemplate:  res.Templates,
		ontology.TypeResource:  res.Resources,
	}
	for typ, members := range mm.declared {
		set := sets[typ]
		for key, module := range members {
			set[key] = derive.Provenance{Via: module, Reason: derive.ReasonDeclared, Round: 0}
		}
	}
}
