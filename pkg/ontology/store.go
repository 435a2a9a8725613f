package ontology

import "errors"

// Store defines backend-agnostic read access to the canonical catalog.
// Callers attach to a backend, read documents and graph edges at the current
// head commit, and detach when done. Writes happen only through snapshot
// ingest and draft merges, never through this interface.
type Store interface {
	// Attach connects the store to the backend described by config,
	// creating the DataDir when missing. A second Attach without an
	// intervening Detach returns ErrAlreadyAttached.
	Attach(config Config) error

	// Detach releases backend resources. Detaching twice is not an error.
	// After Detach, read operations return ErrStoreDetached.
	Detach() error

	// Head returns the commit identifier of the loaded canonical snapshot.
	// Returns an empty string before any snapshot has been ingested.
	Head() (string, error)

	// Get retrieves the canonical document for the given entity.
	// Returns ErrNotFound if no entity exists with that type and key.
	Get(typ EntityType, key string) (*Document, error)

	// List returns all canonical documents of the given type, sorted by key.
	List(typ EntityType) ([]*Document, error)

	// Keys returns the keys of all canonical documents of the given type,
	// sorted ascending.
	Keys(typ EntityType) ([]string, error)

	// Parents returns the parent category keys recorded for the given
	// category at the head commit, in document order. Unknown keys return an
	// empty slice, not an error; graph traversal tolerates dangling edges.
	Parents(key string) ([]string, error)

	// ChangedSince returns the references of every canonical entity created,
	// modified, or deleted between the given commit and head, sorted by type
	// then key. Returns ErrUnknownCommit if the commit is not in the ingest
	// journal.
	ChangedSince(commit string) ([]EntityRef, error)
}

// DraftStore defines persistence for drafts and their staged changes.
// Drafts round-trip whole: SaveDraft persists the full draft state and
// GetDraft rehydrates it, changes included.
type DraftStore interface {
	// SaveDraft creates or updates a draft. When DraftID is empty a new
	// UUID v7 is generated, as for any staged change missing a ChangeID.
	// Returns the actual draft ID used (generated or provided).
	SaveDraft(d *Draft) (string, error)

	// GetDraft retrieves the draft with the given ID.
	// Returns ErrNotFound if no draft exists with that ID.
	GetDraft(id string) (*Draft, error)

	// ListDrafts returns all drafts sorted by creation time, oldest first.
	ListDrafts() ([]*Draft, error)

	// DeleteDraft removes the draft with the given ID.
	// Returns ErrNotFound if no draft exists with that ID.
	DeleteDraft(id string) error
}

// Catalog combines canonical reads with draft persistence, the full surface
// of a reference backend.
type Catalog interface {
	Store
	DraftStore
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Store operation errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrUnknownCommit = errors.New("unknown commit")
	ErrInvalidName   = errors.New("invalid name")
	ErrInvalidData   = errors.New("invalid data")
)
