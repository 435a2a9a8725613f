// Package ontology defines the entity model, draft model, storage
// interfaces, and standard errors for the Labki ontology hub.
//
// Canonical entities form a versioned catalog ingested from an external
// source of truth; drafts carry uncommitted proposed changes against a
// canonical base commit. The resolver packages (overlay, inherit, derive,
// rebase) consume these types to compute effective views without mutating
// canonical state.
package ontology
