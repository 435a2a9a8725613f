package ontology

import (
	"errors"
	"fmt"
	"strings"
)

// EntityType identifies one of the catalog's typed entity namespaces.
// Entity keys are unique within a type, not across types.
type EntityType string

// Catalog entity types.
const (
	TypeCategory  EntityType = "category"
	TypeProperty  EntityType = "property"
	TypeSubobject EntityType = "subobject"
	TypeModule    EntityType = "module"
	TypeBundle    EntityType = "bundle"
	TypeTemplate  EntityType = "template"
	TypeDashboard EntityType = "dashboard"
	TypeResource  EntityType = "resource"
)

// EntityTypes lists all entity types in canonical order, for enumeration.
var EntityTypes = []EntityType{
	TypeCategory,
	TypeProperty,
	TypeSubobject,
	TypeModule,
	TypeBundle,
	TypeTemplate,
	TypeDashboard,
	TypeResource,
}

// validEntityTypes is the set of recognized entity types.
var validEntityTypes = map[EntityType]bool{
	TypeCategory:  true,
	TypeProperty:  true,
	TypeSubobject: true,
	TypeModule:    true,
	TypeBundle:    true,
	TypeTemplate:  true,
	TypeDashboard: true,
	TypeResource:  true,
}

// entityTypePlurals maps each type to the plural spelling used for
// membership fields on module documents and for snapshot file stems.
var entityTypePlurals = map[EntityType]string{
	TypeCategory:  "categories",
	TypeProperty:  "properties",
	TypeSubobject: "subobjects",
	TypeModule:    "modules",
	TypeBundle:    "bundles",
	TypeTemplate:  "templates",
	TypeDashboard: "dashboards",
	TypeResource:  "resources",
}

// IsValidEntityType reports whether t is a recognized entity type.
func IsValidEntityType(t EntityType) bool {
	return validEntityTypes[t]
}

// Plural returns the plural spelling of the entity type, "categories" for
// "category". Unknown types return the raw value with an "s" suffix.
func (t EntityType) Plural() string {
	if p, ok := entityTypePlurals[t]; ok {
		return p
	}
	return string(t) + "s"
}

// Entity identity errors.
var (
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrInvalidKey        = errors.New("invalid entity key")
)

// EntityRef identifies a single entity by type and key.
type EntityRef struct {
	Type EntityType `json:"type"`
	Key  string     `json:"key"`
}

// Ref is a convenience constructor for EntityRef.
func Ref(t EntityType, key string) EntityRef {
	return EntityRef{Type: t, Key: key}
}

// String renders the ref as "type/key" for error messages and map keys.
func (r EntityRef) String() string {
	return fmt.Sprintf("%s/%s", r.Type, r.Key)
}

// Validate checks that both the type and the key are well-formed.
func (r EntityRef) Validate() error {
	if !IsValidEntityType(r.Type) {
		return ErrInvalidEntityType
	}
	if r.Key == "" {
		return ErrInvalidKey
	}
	return nil
}

// KeyParts splits a hierarchical entity key on "/". Resource keys may be
// nested under a category ("Organization/Acme"); all other types use flat
// keys and return a single part.
func KeyParts(key string) []string {
	return strings.Split(key, "/")
}
