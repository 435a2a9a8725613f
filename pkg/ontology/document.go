package ontology

// Origin records where a canonical document came from: the path of its
// source file in the upstream repository and the commit of the ingest that
// last wrote it.
type Origin struct {
	Path   string `json:"path"`
	Commit string `json:"commit"`
}

// Document is one catalog entity's full definition. Body is the type-specific
// definition kept schema-light: well-known fields are read through the
// accessors below, unknown fields ride along untouched so newer snapshot
// generations do not break older readers.
type Document struct {
	Type   EntityType     `json:"type"`
	Key    string         `json:"key"`
	Body   map[string]any `json:"body"`
	Origin Origin         `json:"origin"`
}

// PropertyAssignment is a category's direct property assignment.
type PropertyAssignment struct {
	Property string `json:"property"`
	Required bool   `json:"required"`
}

// SubobjectAssignment is a category's direct subobject assignment.
type SubobjectAssignment struct {
	Subobject string `json:"subobject"`
}

// Label returns the document's display label, falling back to the key when
// the body carries none.
func (d *Document) Label() string {
	if s, ok := stringField(d.Body, "label"); ok {
		return s
	}
	return d.Key
}

// Parents returns a category document's parent category keys in declaration
// order. Non-category documents return nil.
func (d *Document) Parents() []string {
	return stringListField(d.Body, "parents")
}

// PropertyAssignments returns a category document's direct property
// assignments in declaration order. Entries may be objects
// ({"property": ..., "required": ...}) or bare property keys.
func (d *Document) PropertyAssignments() []PropertyAssignment {
	raw, ok := d.Body["properties"].([]any)
	if !ok {
		return nil
	}
	out := make([]PropertyAssignment, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			if v != "" {
				out = append(out, PropertyAssignment{Property: v})
			}
		case map[string]any:
			key, ok := stringField(v, "property")
			if !ok || key == "" {
				continue
			}
			required, _ := v["required"].(bool)
			out = append(out, PropertyAssignment{Property: key, Required: required})
		}
	}
	return out
}

// SubobjectAssignments returns a category document's direct subobject
// assignments in declaration order. Entries may be objects
// ({"subobject": ...}) or bare subobject keys.
func (d *Document) SubobjectAssignments() []SubobjectAssignment {
	raw, ok := d.Body["subobjects"].([]any)
	if !ok {
		return nil
	}
	out := make([]SubobjectAssignment, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			if v != "" {
				out = append(out, SubobjectAssignment{Subobject: v})
			}
		case map[string]any:
			key, ok := stringField(v, "subobject")
			if ok && key != "" {
				out = append(out, SubobjectAssignment{Subobject: key})
			}
		}
	}
	return out
}

// ConstraintCategory returns the category named by a property document's
// value constraint. The constraint is read from the top-level
// "constraint_category" field first, then from "category" nested under a
// "constraints" object. Empty when the property constrains no category.
func (d *Document) ConstraintCategory() string {
	if s, ok := stringField(d.Body, "constraint_category"); ok {
		return s
	}
	if nested, ok := d.Body["constraints"].(map[string]any); ok {
		if s, ok := stringField(nested, "category"); ok {
			return s
		}
	}
	return ""
}

// DisplayTemplate returns the template key named by the document's
// display-template field, or empty when none is set.
func (d *Document) DisplayTemplate() string {
	s, _ := stringField(d.Body, "display_template")
	return s
}

// Categories returns a resource document's category membership. The body may
// carry a "categories" list or a single "category" string.
func (d *Document) Categories() []string {
	if list := stringListField(d.Body, "categories"); list != nil {
		return list
	}
	if s, ok := stringField(d.Body, "category"); ok && s != "" {
		return []string{s}
	}
	return nil
}

// MemberKeys returns a module document's declared members of the given type,
// read from the plural field for that type ("categories", "templates", ...).
func (d *Document) MemberKeys(t EntityType) []string {
	return stringListField(d.Body, t.Plural())
}

// Dependencies returns a module document's declared module dependencies.
func (d *Document) Dependencies() []string {
	return stringListField(d.Body, "dependencies")
}

// DashboardRefs returns a module document's declared dashboard references.
func (d *Document) DashboardRefs() []string {
	return d.MemberKeys(TypeDashboard)
}

// Clone returns a deep copy of the document. Resolvers patch and annotate
// copies only; canonical documents are never mutated.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Body = cloneBody(d.Body)
	return &cp
}

// cloneBody deep-copies a document body. Values are limited to the JSON
// scalar/slice/map shapes produced by encoding/json.
func cloneBody(body map[string]any) map[string]any {
	if body == nil {
		return nil
	}
	out := make(map[string]any, len(body))
	for k, v := range body {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneBody(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

// stringField reads a non-empty string field from a body map.
func stringField(body map[string]any, field string) (string, bool) {
	if body == nil {
		return "", false
	}
	s, ok := body[field].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// stringListField reads a list of strings from a body map, skipping
// non-string and empty elements. Returns nil when the field is absent or
// not a list.
func stringListField(body map[string]any, field string) []string {
	if body == nil {
		return nil
	}
	raw, ok := body[field].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
