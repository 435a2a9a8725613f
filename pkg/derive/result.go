package derive

import "sort"

// Provenance reasons, recording which rule introduced an entity into the
// closure.
const (
	ReasonAssigned   = "assigned"   // property/subobject assigned directly on a derived category
	ReasonInherited  = "inherited"  // property/subobject inherited through a parent chain
	ReasonConstraint = "constraint" // category referenced by a derived property's value constraint
	ReasonMember     = "member"     // resource categorized under a derived category
	ReasonDisplay    = "display"    // template referenced by a derived entity's display-template field
	ReasonDeclared   = "declared"   // entity declared as an explicit module member
)

// Provenance records how an entity entered the closure: through which entity,
// by which rule, and in which expansion round (1-based).
type Provenance struct {
	Via    string `json:"via"`
	Reason string `json:"reason"`
	Round  int    `json:"round"`
}

// Result is the derived closure of a seed category set. Each map is keyed by
// entity key and holds the provenance of the step that first introduced it.
// Categories holds only implicit additions; the explicit seeds are the
// caller's and are not echoed back.
type Result struct {
	Properties map[string]Provenance `json:"properties"`
	Subobjects map[string]Provenance `json:"subobjects"`
	Categories map[string]Provenance `json:"categories"`
	Resources  map[string]Provenance `json:"resources"`
	Templates  map[string]Provenance `json:"templates"`
}

// NewResult returns an empty Result with all sets allocated.
func NewResult() *Result {
	return &Result{
		Properties: make(map[string]Provenance),
		Subobjects: make(map[string]Provenance),
		Categories: make(map[string]Provenance),
		Resources:  make(map[string]Provenance),
		Templates:  make(map[string]Provenance),
	}
}

// PropertyKeys returns the derived property keys, sorted.
func (r *Result) PropertyKeys() []string { return sortedKeys(r.Properties) }

// SubobjectKeys returns the derived subobject keys, sorted.
func (r *Result) SubobjectKeys() []string { return sortedKeys(r.Subobjects) }

// CategoryKeys returns the implicitly derived category keys, sorted.
func (r *Result) CategoryKeys() []string { return sortedKeys(r.Categories) }

// ResourceKeys returns the derived resource keys, sorted.
func (r *Result) ResourceKeys() []string { return sortedKeys(r.Resources) }

// TemplateKeys returns the derived template keys, sorted.
func (r *Result) TemplateKeys() []string { return sortedKeys(r.Templates) }

func sortedKeys(m map[string]Provenance) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
