// Package export maps a draft's staged changes to repository file operations:
// one file per changed entity at a path determined by type and key, with
// delete changes emitted as file-deletion markers. The mapping consumes the
// draft's changes directly, never derived closures, so an export round-trips
// exactly what the draft stages.
package export

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/labki-org/ontology-hub/pkg/ontology"
	"github.com/labki-org/ontology-hub/pkg/overlay"
)

// ErrPatchUnapplied is returned when a draft update's ops do not apply to the
// canonical document. Read paths tolerate that in-band; an export refuses to
// emit a file pretending the update happened.
var ErrPatchUnapplied = errors.New("update ops do not apply")

// FileChange is one file operation in an export plan.
type FileChange struct {
	Path    string         `json:"path"`
	Content map[string]any `json:"content,omitempty"`
	Delete  bool           `json:"delete,omitempty"`
}

// EntityPath returns the repository path for an entity: the plural type
// directory, the key with spaces flattened to underscores, a .json extension.
// Hierarchical resource keys keep their slashes and nest under their category
// directory, so "Organization/Acme" lands at "resources/Organization/Acme.json".
func EntityPath(typ ontology.EntityType, key string) string {
	parts := ontology.KeyParts(key)
	for i, part := range parts {
		parts[i] = strings.ReplaceAll(part, " ", "_")
	}
	return typ.Plural() + "/" + strings.Join(parts, "/") + ".json"
}

// Plan maps every change in the draft to a file operation, sorted by path.
// Creates carry the staged replacement body, updates carry the effective body
// with the draft's ops applied, deletes carry a deletion marker. An update
// whose ops fail against canonical aborts the plan with ErrPatchUnapplied.
func Plan(store ontology.Store, d *ontology.Draft) ([]FileChange, error) {
	if d == nil {
		return nil, nil
	}
	out := make([]FileChange, 0, len(d.Changes))
	for _, ch := range d.Changes {
		path := EntityPath(ch.EntityType, ch.Key)
		switch ch.Kind {
		case ontology.ChangeDelete:
			out = append(out, FileChange{Path: path, Delete: true})

		case ontology.ChangeCreate:
			out = append(out, FileChange{Path: path, Content: cloneContent(ch.Document)})

		default:
			eff, err := overlay.Resolve(store, d, ch.EntityType, ch.Key)
			if err != nil {
				return nil, fmt.Errorf("planning %s: %w", ch.Ref(), err)
			}
			if eff.PatchError != "" {
				return nil, fmt.Errorf("planning %s: %w: %s", ch.Ref(), ErrPatchUnapplied, eff.PatchError)
			}
			out = append(out, FileChange{Path: path, Content: eff.Document.Body})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// cloneContent copies a body so plans never alias draft state.
func cloneContent(body map[string]any) map[string]any {
	doc := &ontology.Document{Body: body}
	return doc.Clone().Body
}
