// This file implements canonical catalog reads. Each operation hydrates
// SQLite rows into *ontology.Document values. Canonical tables are written
// only by snapshot loading and ingest, never through these methods.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/labki-org/ontology-hub/pkg/ontology"
)

// Head returns the commit identifier of the loaded canonical snapshot, or
// an empty string before any snapshot has been ingested.
func (b *Backend) Head() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return "", ontology.ErrStoreDetached
	}
	return b.headLocked()
}

// headLocked reads the newest journal commit. The caller must hold b.mu.
func (b *Backend) headLocked() (string, error) {
	var commit string
	err := b.db.QueryRow(
		"SELECT commit_id FROM commit_log ORDER BY ordinal DESC LIMIT 1",
	).Scan(&commit)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading head commit: %w", err)
	}
	return commit, nil
}

// Get retrieves the canonical document for the given entity.
// Returns ErrNotFound if no entity exists with that type and key.
func (b *Backend) Get(typ ontology.EntityType, key string) (*ontology.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, ontology.ErrStoreDetached
	}
	if !ontology.IsValidEntityType(typ) {
		return nil, ontology.ErrInvalidEntityType
	}
	if key == "" {
		return nil, ontology.ErrInvalidKey
	}

	row := b.db.QueryRow(
		"SELECT entity_type, entity_key, body, origin_path, origin_commit FROM entities WHERE entity_type = ? AND entity_key = ?",
		string(typ), key,
	)
	doc, err := hydrateDocument(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ontology.ErrNotFound
		}
		return nil, fmt.Errorf("getting %s/%s: %w", typ, key, err)
	}
	return doc, nil
}

// List returns all canonical documents of the given type, sorted by key.
func (b *Backend) List(typ ontology.EntityType) ([]*ontology.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, ontology.ErrStoreDetached
	}
	if !ontology.IsValidEntityType(typ) {
		return nil, ontology.ErrInvalidEntityType
	}

	rows, err := b.db.Query(
		"SELECT entity_type, entity_key, body, origin_path, origin_commit FROM entities WHERE entity_type = ? ORDER BY entity_key ASC",
		string(typ),
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s documents: %w", typ, err)
	}
	defer rows.Close()

	docs := []*ontology.Document{}
	for rows.Next() {
		doc, err := hydrateDocumentFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating %s document: %w", typ, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s documents: %w", typ, err)
	}
	return docs, nil
}

// Keys returns the keys of all canonical documents of the given type,
// sorted ascending.
func (b *Backend) Keys(typ ontology.EntityType) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, ontology.ErrStoreDetached
	}
	if !ontology.IsValidEntityType(typ) {
		return nil, ontology.ErrInvalidEntityType
	}

	rows, err := b.db.Query(
		"SELECT entity_key FROM entities WHERE entity_type = ? ORDER BY entity_key ASC",
		string(typ),
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s keys: %w", typ, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning %s key: %w", typ, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s keys: %w", typ, err)
	}
	return keys, nil
}

// Parents returns the parent category keys recorded for the given category,
// in document order. Unknown keys return an empty slice, not an error.
func (b *Backend) Parents(key string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, ontology.ErrStoreDetached
	}
	if key == "" {
		return nil, ontology.ErrInvalidKey
	}

	rows, err := b.db.Query(
		"SELECT parent_key FROM category_edges WHERE child_key = ? ORDER BY ordinal ASC",
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("querying parents of %s: %w", key, err)
	}
	defer rows.Close()

	parents := []string{}
	for rows.Next() {
		var parent string
		if err := rows.Scan(&parent); err != nil {
			return nil, fmt.Errorf("scanning parent of %s: %w", key, err)
		}
		parents = append(parents, parent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating parents of %s: %w", key, err)
	}
	return parents, nil
}

// ChangedSince returns the references of every canonical entity created,
// modified, or deleted between the given commit and head, sorted by type
// then key. Returns ErrUnknownCommit if the commit has no journal entry.
func (b *Backend) ChangedSince(commit string) ([]ontology.EntityRef, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, ontology.ErrStoreDetached
	}

	var ordinal int64
	err := b.db.QueryRow(
		"SELECT ordinal FROM commit_log WHERE commit_id = ?", commit,
	).Scan(&ordinal)
	if err == sql.ErrNoRows {
		return nil, ontology.ErrUnknownCommit
	}
	if err != nil {
		return nil, fmt.Errorf("looking up commit %s: %w", commit, err)
	}

	rows, err := b.db.Query(
		"SELECT DISTINCT c.entity_type, c.entity_key FROM commit_changes c "+
			"JOIN commit_log l ON l.commit_id = c.commit_id "+
			"WHERE l.ordinal > ? ORDER BY c.entity_type ASC, c.entity_key ASC",
		ordinal,
	)
	if err != nil {
		return nil, fmt.Errorf("querying changes since %s: %w", commit, err)
	}
	defer rows.Close()

	refs := []ontology.EntityRef{}
	for rows.Next() {
		var typ, key string
		if err := rows.Scan(&typ, &key); err != nil {
			return nil, fmt.Errorf("scanning changed entity: %w", err)
		}
		refs = append(refs, ontology.Ref(ontology.EntityType(typ), key))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating changed entities: %w", err)
	}
	return refs, nil
}

// hydrateDocument converts a single SQLite row into an *ontology.Document.
func hydrateDocument(row *sql.Row) (*ontology.Document, error) {
	var typ, key, body, originPath, originCommit string
	if err := row.Scan(&typ, &key, &body, &originPath, &originCommit); err != nil {
		return nil, err
	}
	return buildDocument(typ, key, body, originPath, originCommit)
}

// hydrateDocumentFromRows converts a row from sql.Rows into an
// *ontology.Document.
func hydrateDocumentFromRows(rows *sql.Rows) (*ontology.Document, error) {
	var typ, key, body, originPath, originCommit string
	if err := rows.Scan(&typ, &key, &body, &originPath, &originCommit); err != nil {
		return nil, err
	}
	return buildDocument(typ, key, body, originPath, originCommit)
}

// buildDocument parses the stored body JSON and assembles the document.
func buildDocument(typ, key, body, originPath, originCommit string) (*ontology.Document, error) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("parsing body for %s/%s: %w", typ, key, err)
	}
	return &ontology.Document{
		Type: ontology.EntityType(typ),
		Key:  key,
		Body: parsed,
		Origin: ontology.Origin{
			Path:   originPath,
			Commit: originCommit,
		},
	}, nil
}
