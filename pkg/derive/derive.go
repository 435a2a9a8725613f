// Package derive computes the transitive closure of a module or bundle's
// explicit category seeds: every property and subobject the seed categories
// carry through inheritance, every category referenced by those properties'
// value constraints, every resource categorized under a reached category, and
// every template referenced along the way. The closure is computed fresh per
// call and never persisted; module documents store only their explicit
// members.
//
// Expansion is a fixed-point iteration bounded two ways: a global visited set
// keeps any category from being processed twice, and a round cap stops
// constraint-reference chains that would otherwise walk forever. Hitting the
// cap is silent; bounding adversarial input is the cap's whole job.
package derive

import (
	"errors"
	"fmt"
	"sort"

	"github.com/labki-org/ontology-hub/pkg/inherit"
	"github.com/labki-org/ontology-hub/pkg/ontology"
)

// Source supplies effective documents for closure computation. Category also
// serves the inheritance walks, so Source satisfies inherit.Source.
type Source interface {
	// Category returns the document for the given category key.
	// Returns ontology.ErrNotFound (possibly wrapped) when absent.
	Category(key string) (*ontology.Document, error)

	// Property returns the document for the given property key.
	Property(key string) (*ontology.Document, error)

	// Subobject returns the document for the given subobject key.
	Subobject(key string) (*ontology.Document, error)

	// Resources returns every resource document, sorted by key.
	Resources() ([]*ontology.Document, error)
}

// Engine derives closures against a Source.
type Engine struct {
	src      Source
	resolver *inherit.Resolver
	maxDepth int
}

// NewEngine returns an Engine reading from src. A maxDepth of zero or less
// falls back to ontology.DefaultMaxDerivationDepth.
func NewEngine(src Source, maxDepth int) *Engine {
	if maxDepth <= 0 {
		maxDepth = ontology.DefaultMaxDerivationDepth
	}
	return &Engine{src: src, resolver: inherit.NewResolver(src), maxDepth: maxDepth}
}

// Derive computes the closure of the given seed categories. Seeds that do not
// resolve to a document still participate in resource matching; membership is
// a key comparison, not a document lookup. The result is deterministic for a
// given source state: rounds expand seeds in the order given and properties
// in inheritance-walk order.
func (e *Engine) Derive(seeds []string) (*Result, error) {
	res := NewResult()
	visited := make(map[string]bool)
	catRound := make(map[string]int)
	seedSet := make(map[string]bool, len(seeds))
	pending := make(map[string]Provenance)

	frontier := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		if seed == "" || seedSet[seed] {
			continue
		}
		seedSet[seed] = true
		frontier = append(frontier, seed)
	}

	round := 0
	for len(frontier) > 0 && round < e.maxDepth {
		round++
		var next []string
		for _, cat := range frontier {
			if visited[cat] {
				continue
			}
			visited[cat] = true
			catRound[cat] = round
			if prov, ok := pending[cat]; ok && !seedSet[cat] {
				res.Categories[cat] = prov
			}

			lin, err := e.resolver.Resolve(cat)
			if err != nil {
				return nil, fmt.Errorf("deriving %q: %w", cat, err)
			}
			for _, row := range lin.Properties {
				if _, ok := res.Properties[row.Property]; ok {
					continue
				}
				res.Properties[row.Property] = Provenance{Via: row.Source, Reason: rowReason(row.Depth), Round: round}

				refCat, err := e.constraintCategory(row.Property)
				if err != nil {
					return nil, err
				}
				if refCat == "" || visited[refCat] {
					continue
				}
				if _, ok := pending[refCat]; !ok {
					pending[refCat] = Provenance{Via: row.Property, Reason: ReasonConstraint, Round: round}
					next = append(next, refCat)
				}
			}
			for _, row := range lin.Subobjects {
				if _, ok := res.Subobjects[row.Subobject]; ok {
					continue
				}
				res.Subobjects[row.Subobject] = Provenance{Via: row.Source, Reason: rowReason(row.Depth), Round: round}
			}
		}
		frontier = next
	}

	resources, err := e.collectResources(res, catRound)
	if err != nil {
		return nil, err
	}
	if err := e.collectTemplates(res, catRound, resources); err != nil {
		return nil, err
	}
	return res, nil
}

// rowReason maps an inheritance row's depth to a provenance reason.
func rowReason(depth int) string {
	if depth == 0 {
		return ReasonAssigned
	}
	return ReasonInherited
}

// constraintCategory returns the category referenced by the property's value
// constraint. A property with no document or no constraint returns empty;
// dangling property assignments are skipped, not fatal.
func (e *Engine) constraintCategory(property string) (string, error) {
	doc, err := e.src.Property(property)
	if errors.Is(err, ontology.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading property %q: %w", property, err)
	}
	return doc.ConstraintCategory(), nil
}

// collectResources adds every resource categorized under a reached category.
// Inclusion is unconditional: no usage filtering, hierarchical keys included.
// Returns the documents of the included resources for the template pass.
func (e *Engine) collectResources(res *Result, catRound map[string]int) ([]*ontology.Document, error) {
	all, err := e.src.Resources()
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	var included []*ontology.Document
	for _, doc := range all {
		for _, cat := range resourceCategories(doc) {
			rnd, ok := catRound[cat]
			if !ok {
				continue
			}
			if _, dup := res.Resources[doc.Key]; !dup {
				res.Resources[doc.Key] = Provenance{Via: cat, Reason: ReasonMember, Round: rnd}
				included = append(included, doc)
			}
			break
		}
	}
	return included, nil
}

// resourceCategories returns a resource's category membership. Resources
// declaring no categories but keyed under a hierarchical path belong to the
// category named by the first segment, so "Organization/Acme" counts as an
// Organization member without an explicit field.
func resourceCategories(doc *ontology.Document) []string {
	if cats := doc.Categories(); len(cats) > 0 {
		return cats
	}
	if parts := ontology.KeyParts(doc.Key); len(parts) > 1 {
		return parts[:1]
	}
	return nil
}

// collectTemplates adds every template referenced by a derived entity's
// display-template field. Entities are scanned in a fixed order (categories,
// properties, subobjects, resources, each sorted) so the recorded provenance
// is deterministic when several entities reference the same template.
func (e *Engine) collectTemplates(res *Result, catRound map[string]int, resources []*ontology.Document) error {
	addTemplate := func(tpl, via string, round int) {
		if tpl == "" {
			return
		}
		if _, ok := res.Templates[tpl]; ok {
			return
		}
		res.Templates[tpl] = Provenance{Via: via, Reason: ReasonDisplay, Round: round}
	}

	for _, cat := range sortedIntKeys(catRound) {
		doc, err := e.src.Category(cat)
		if errors.Is(err, ontology.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("loading category %q: %w", cat, err)
		}
		addTemplate(doc.DisplayTemplate(), cat, catRound[cat])
	}
	for _, key := range res.PropertyKeys() {
		doc, err := e.src.Property(key)
		if errors.Is(err, ontology.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("loading property %q: %w", key, err)
		}
		addTemplate(doc.DisplayTemplate(), key, res.Properties[key].Round)
	}
	for _, key := range res.SubobjectKeys() {
		doc, err := e.src.Subobject(key)
		if errors.Is(err, ontology.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("loading subobject %q: %w", key, err)
		}
		addTemplate(doc.DisplayTemplate(), key, res.Subobjects[key].Round)
	}
	for _, doc := range resources {
		addTemplate(doc.DisplayTemplate(), doc.Key, res.Resources[doc.Key].Round)
	}
	return nil
}

// sortedIntKeys returns the map's keys sorted.
func sortedIntKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
