// Package inherit resolves category inheritance: the transitive parent-derived
// property and subobject set of a category, with the assigning category and
// hop depth attached to every row. The walk is breadth-first over parent
// edges and tolerates broken graphs: dangling parent references are skipped
// and cycles terminate because no category is expanded twice. Rows, however,
// are emitted on every arrival, so a category reachable through two parent
// paths contributes its assignments once per path. Callers that want a
// deduplicated view collapse rows themselves; collapsing here would lose the
// provenance that diamond inheritance is meant to surface.
package inherit

import (
	"errors"
	"fmt"

	"github.com/labki-org/ontology-hub/pkg/ontology"
)

// Source supplies category documents for traversal. Implementations decide
// whether the documents are canonical or draft-effective; the resolver only
// reads parents and direct assignments from whatever it is handed.
type Source interface {
	// Category returns the document for the given category key.
	// Returns ontology.ErrNotFound (possibly wrapped) when absent.
	Category(key string) (*ontology.Document, error)
}

// PropertyRow is one inherited property assignment: the property, the
// category whose direct assignment produced the row, and the parent-edge
// distance from the start category (0 = assigned on the start itself).
type PropertyRow struct {
	Property string `json:"property"`
	Source   string `json:"source"`
	Depth    int    `json:"depth"`
	Required bool   `json:"required"`
}

// SubobjectRow is one inherited subobject assignment.
type SubobjectRow struct {
	Subobject string `json:"subobject"`
	Source    string `json:"source"`
	Depth     int    `json:"depth"`
}

// Lineage is the full inheritance resolution of one category. Properties and
// Subobjects are in walk order: depth ascending, parent declaration order
// within a depth, assignment declaration order within a category. Ancestors
// lists every category reached during the walk, start first, each once.
type Lineage struct {
	Category   string         `json:"category"`
	Properties []PropertyRow  `json:"properties"`
	Subobjects []SubobjectRow `json:"subobjects"`
	Ancestors  []string       `json:"ancestors"`
}

// Resolver walks parent edges against a Source.
type Resolver struct {
	src Source
}

// NewResolver returns a Resolver reading categories from src.
func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// queueItem is one pending arrival in the breadth-first walk.
type queueItem struct {
	key   string
	depth int
}

// Resolve computes the lineage of the given category. A missing start
// category yields an empty lineage rather than an error; absence is a
// dangling-reference condition and traversal treats those uniformly. Each
// arrival at a category emits its direct assignments at the arrival depth;
// each category's parents are enqueued only on first arrival, which bounds
// the walk even when the parent graph is cyclic.
func (r *Resolver) Resolve(key string) (*Lineage, error) {
	lin := &Lineage{Category: key}
	expanded := make(map[string]bool)
	reached := make(map[string]bool)
	queue := []queueItem{{key: key, depth: 0}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		doc, err := r.src.Category(item.key)
		if errors.Is(err, ontology.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading category %q: %w", item.key, err)
		}

		if !reached[item.key] {
			reached[item.key] = true
			lin.Ancestors = append(lin.Ancestors, item.key)
		}
		for _, pa := range doc.PropertyAssignments() {
			lin.Properties = append(lin.Properties, PropertyRow{
				Property: pa.Property,
				Source:   item.key,
				Depth:    item.depth,
				Required: pa.Required,
			})
		}
		for _, sa := range doc.SubobjectAssignments() {
			lin.Subobjects = append(lin.Subobjects, SubobjectRow{
				Subobject: sa.Subobject,
				Source:    item.key,
				Depth:     item.depth,
			})
		}

		if expanded[item.key] {
			continue
		}
		expanded[item.key] = true
		for _, parent := range doc.Parents() {
			queue = append(queue, queueItem{key: parent, depth: item.depth + 1})
		}
	}
	return lin, nil
}

// Properties resolves the category and returns its property rows.
func (r *Resolver) Properties(key string) ([]PropertyRow, error) {
	lin, err := r.Resolve(key)
	if err != nil {
		return nil, err
	}
	return lin.Properties, nil
}

// Subobjects resolves the category and returns its subobject rows.
func (r *Resolver) Subobjects(key string) ([]SubobjectRow, error) {
	lin, err := r.Resolve(key)
	if err != nil {
		return nil, err
	}
	return lin.Subobjects, nil
}
