// Package rebase classifies how a draft relates to the canonical head it
// would land on: cleanly, after a rebase, or in conflict. Classification is a
// pure computation over already-fetched data; callers supply the canonical
// changes between the draft's base and the current head. The three statuses
// are mutually exclusive and cover every input, and a conflict is only ever a
// status value for a human to act on; no automatic merge is attempted.
package rebase

import (
	"sort"

	"github.com/labki-org/ontology-hub/pkg/ontology"
)

// Rebase statuses.
const (
	StatusClean       = "clean"
	StatusNeedsRebase = "needs_rebase"
	StatusConflict    = "conflict"
)

// Report is the outcome of one rebase check. Conflicts lists the entities
// changed both canonically and in the draft, sorted by type then key; it is
// nil unless Status is "conflict".
type Report struct {
	Status    string               `json:"status"`
	Conflicts []ontology.EntityRef `json:"conflicts,omitempty"`
}

// Check classifies a draft against the current canonical commit. Equal
// commits are clean. With differing commits: clean when nothing changed
// canonically between them, needs_rebase when the canonical changes are
// disjoint from the draft's touched entities, conflict when any entity
// changed in both.
func Check(baseCommit, currentCommit string, changed, touched []ontology.EntityRef) Report {
	if baseCommit == currentCommit || len(changed) == 0 {
		return Report{Status: StatusClean}
	}
	touchedSet := make(map[ontology.EntityRef]bool, len(touched))
	for _, ref := range touched {
		touchedSet[ref] = true
	}
	var conflicts []ontology.EntityRef
	seen := make(map[ontology.EntityRef]bool)
	for _, ref := range changed {
		if touchedSet[ref] && !seen[ref] {
			seen[ref] = true
			conflicts = append(conflicts, ref)
		}
	}
	if len(conflicts) == 0 {
		return Report{Status: StatusNeedsRebase}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Type != conflicts[j].Type {
			return conflicts[i].Type < conflicts[j].Type
		}
		return conflicts[i].Key < conflicts[j].Key
	})
	return Report{Status: StatusConflict, Conflicts: conflicts}
}
