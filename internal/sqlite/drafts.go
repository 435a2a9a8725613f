// This file implements draft persistence. Drafts round-trip whole: SaveDraft
// replaces the draft's change rows wholesale and rewrites the JSONL mirrors,
// GetDraft rehydrates the draft with its staged changes in order.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/labki-org/ontology-hub/pkg/ontology"
)

// SaveDraft creates or updates a draft. If DraftID is empty, generates a
// UUID v7 and stamps creation defaults; staged changes missing a ChangeID
// are assigned one the same way. Returns the actual draft ID used.
func (b *Backend) SaveDraft(d *ontology.Draft) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return "", ontology.ErrStoreDetached
	}
	if d == nil {
		return "", ontology.ErrInvalidData
	}
	if d.Name == "" {
		return "", ontology.ErrInvalidName
	}

	now := time.Now().UTC()

	if d.DraftID == "" {
		d.DraftID = generateUUID()
		if d.Status == "" {
			d.Status = ontology.DraftStatusDraft
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	for _, ch := range d.Changes {
		if ch.ChangeID == "" {
			ch.ChangeID = generateUUID()
		}
		if ch.CreatedAt.IsZero() {
			ch.CreatedAt = now
		}
		if ch.UpdatedAt.IsZero() {
			ch.UpdatedAt = ch.CreatedAt
		}
	}

	tx, err := b.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow("SELECT 1 FROM drafts WHERE draft_id = ?", d.DraftID).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("checking draft existence: %w", err)
	}

	createdAtStr := d.CreatedAt.Format(time.RFC3339)
	updatedAtStr := d.UpdatedAt.Format(time.RFC3339)

	if exists {
		_, err = tx.Exec(
			"UPDATE drafts SET name = ?, status = ?, base_commit = ?, created_at = ?, updated_at = ? WHERE draft_id = ?",
			d.Name, d.Status, d.BaseCommit, createdAtStr, updatedAtStr, d.DraftID,
		)
	} else {
		_, err = tx.Exec(
			"INSERT INTO drafts (draft_id, name, status, base_commit, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			d.DraftID, d.Name, d.Status, d.BaseCommit, createdAtStr, updatedAtStr,
		)
	}
	if err != nil {
		return "", fmt.Errorf("persisting draft: %w", err)
	}

	// Replace the staged changes wholesale; row order follows slice order.
	if _, err := tx.Exec("DELETE FROM draft_changes WHERE draft_id = ?", d.DraftID); err != nil {
		return "", fmt.Errorf("clearing draft changes: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO draft_changes (change_id, draft_id, ordinal, kind, entity_type, entity_key, document, patch, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return "", fmt.Errorf("preparing change insert: %w", err)
	}
	defer stmt.Close()

	for i, ch := range d.Changes {
		docJSON, patchJSON, err := marshalChangePayload(ch)
		if err != nil {
			return "", fmt.Errorf("marshaling change %s: %w", ch.ChangeID, err)
		}
		if _, err := stmt.Exec(
			ch.ChangeID, d.DraftID, i, ch.Kind, string(ch.EntityType), ch.Key,
			docJSON, patchJSON,
			ch.CreatedAt.Format(time.RFC3339), ch.UpdatedAt.Format(time.RFC3339),
		); err != nil {
			return "", fmt.Errorf("persisting change %s: %w", ch.ChangeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing draft: %w", err)
	}

	if err := b.persistDraftsJSONL(); err != nil {
		return "", fmt.Errorf("persisting draft mirrors: %w", err)
	}
	return d.DraftID, nil
}

// GetDraft retrieves the draft with the given ID, staged changes included.
// Returns ErrNotFound if no draft exists with that ID.
func (b *Backend) GetDraft(id string) (*ontology.Draft, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, ontology.ErrStoreDetached
	}
	if id == "" {
		return nil, ontology.ErrInvalidData
	}

	row := b.db.QueryRow(
		"SELECT draft_id, name, status, base_commit, created_at, updated_at FROM drafts WHERE draft_id = ?",
		id,
	)
	d, err := hydrateDraft(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ontology.ErrNotFound
		}
		return nil, fmt.Errorf("getting draft %s: %w", id, err)
	}
	if err := b.hydrateChanges(d); err != nil {
		return nil, fmt.Errorf("hydrating changes for draft %s: %w", id, err)
	}
	return d, nil
}

// ListDrafts returns all drafts sorted by creation time, oldest first.
func (b *Backend) ListDrafts() ([]*ontology.Draft, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, ontology.ErrStoreDetached
	}

	rows, err := b.db.Query(
		"SELECT draft_id, name, status, base_commit, created_at, updated_at FROM drafts ORDER BY created_at ASC, draft_id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	defer rows.Close()

	drafts := []*ontology.Draft{}
	for rows.Next() {
		d, err := hydrateDraftFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating drafts: %w", err)
	}

	for _, d := range drafts {
		if err := b.hydrateChanges(d); err != nil {
			return nil, fmt.Errorf("hydrating changes for draft %s: %w", d.DraftID, err)
		}
	}
	return drafts, nil
}

// DeleteDraft removes the draft and its staged changes.
// Returns ErrNotFound if no draft exists with that ID.
func (b *Backend) DeleteDraft(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return ontology.ErrStoreDetached
	}
	if id == "" {
		return ontology.ErrInvalidData
	}

	var exists bool
	err := b.db.QueryRow("SELECT 1 FROM drafts WHERE draft_id = ?", id).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return ontology.ErrNotFound
		}
		return fmt.Errorf("checking draft existence: %w", err)
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM draft_changes WHERE draft_id = ?", id); err != nil {
		return fmt.Errorf("deleting draft changes: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM drafts WHERE draft_id = ?", id); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing draft deletion: %w", err)
	}

	if err := b.persistDraftsJSONL(); err != nil {
		return fmt.Errorf("persisting draft mirrors: %w", err)
	}
	return nil
}

// marshalChangePayload serializes the change's document body and patch ops
// for storage. Absent payloads store as NULL.
func marshalChangePayload(ch *ontology.Change) (any, any, error) {
	var docJSON any
	if ch.Document != nil {
		data, err := json.Marshal(ch.Document)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling document: %w", err)
		}
		docJSON = string(data)
	}
	var patchJSON any
	if len(ch.Patch) > 0 {
		data, err := json.Marshal(ch.Patch)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling patch: %w", err)
		}
		patchJSON = string(data)
	}
	return docJSON, patchJSON, nil
}

// hydrateDraft converts a single SQLite row into an *ontology.Draft.
func hydrateDraft(row *sql.Row) (*ontology.Draft, error) {
	var d ontology.Draft
	var createdAt, updatedAt string
	if err := row.Scan(&d.DraftID, &d.Name, &d.Status, &d.BaseCommit, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	d.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	d.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &d, nil
}

// hydrateDraftFromRows converts a row from sql.Rows into an *ontology.Draft.
func hydrateDraftFromRows(rows *sql.Rows) (*ontology.Draft, error) {
	var d ontology.Draft
	var createdAt, updatedAt string
	if err := rows.Scan(&d.DraftID, &d.Name, &d.Status, &d.BaseCommit, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	d.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	d.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &d, nil
}

// hydrateChanges loads draft_changes rows into the draft's change list in
// staged order.
func (b *Backend) hydrateChanges(d *ontology.Draft) error {
	rows, err := b.db.Query(
		"SELECT change_id, kind, entity_type, entity_key, document, patch, created_at, updated_at FROM draft_changes WHERE draft_id = ? ORDER BY ordinal ASC",
		d.DraftID,
	)
	if err != nil {
		return fmt.Errorf("querying draft changes: %w", err)
	}
	defer rows.Close()

	var changes []*ontology.Change
	for rows.Next() {
		var (
			ch                   ontology.Change
			typ                  string
			docJSON, patchJSON   sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&ch.ChangeID, &ch.Kind, &typ, &ch.Key, &docJSON, &patchJSON, &createdAt, &updatedAt); err != nil {
			return fmt.Errorf("scanning draft change: %w", err)
		}
		ch.EntityType = ontology.EntityType(typ)
		if docJSON.Valid && docJSON.String != "" {
			if err := json.Unmarshal([]byte(docJSON.String), &ch.Document); err != nil {
				return fmt.Errorf("parsing document for change %s: %w", ch.ChangeID, err)
			}
		}
		if patchJSON.Valid && patchJSON.String != "" {
			if err := json.Unmarshal([]byte(patchJSON.String), &ch.Patch); err != nil {
				return fmt.Errorf("parsing patch for change %s: %w", ch.ChangeID, err)
			}
		}
		ch.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return fmt.Errorf("parsing created_at for change %s: %w", ch.ChangeID, err)
		}
		ch.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return fmt.Errorf("parsing updated_at for change %s: %w", ch.ChangeID, err)
		}
		changes = append(changes, &ch)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating draft changes: %w", err)
	}

	d.Changes = changes
	return nil
}

// persistDraftsJSONL rewrites drafts.jsonl and draft_changes.jsonl from the
// current table contents using the atomic write pattern.
func (b *Backend) persistDraftsJSONL() error {
	draftRecs, err := b.collectDraftRecords()
	if err != nil {
		return err
	}
	changeRecs, err := b.collectDraftChangeRecords()
	if err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(b.config.DataDir, draftsFile), draftRecs); err != nil {
		return fmt.Errorf("writing %s: %w", draftsFile, err)
	}
	if err := writeJSONL(filepath.Join(b.config.DataDir, draftChangesFile), changeRecs); err != nil {
		return fmt.Errorf("writing %s: %w", draftChangesFile, err)
	}
	return nil
}

// collectDraftRecords reads all drafts from SQLite as JSONL records.
func (b *Backend) collectDraftRecords() ([]json.RawMessage, error) {
	rows, err := b.db.Query(
		"SELECT draft_id, name, status, base_commit, created_at, updated_at FROM drafts ORDER BY created_at ASC, draft_id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying drafts for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var rec draftJSON
		if err := rows.Scan(&rec.DraftID, &rec.Name, &rec.Status, &rec.BaseCommit, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning draft for JSONL: %w", err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling draft for JSONL: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating drafts for JSONL: %w", err)
	}
	return records, nil
}

// collectDraftChangeRecords reads all draft changes from SQLite as JSONL
// records.
func (b *Backend) collectDraftChangeRecords() ([]json.RawMessage, error) {
	rows, err := b.db.Query(
		"SELECT change_id, draft_id, ordinal, kind, entity_type, entity_key, document, patch, created_at, updated_at FROM draft_changes ORDER BY draft_id ASC, ordinal ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying draft changes for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var rec draftChangeJSON
		var doc, patch sql.NullString
		if err := rows.Scan(&rec.ChangeID, &rec.DraftID, &rec.Ordinal, &rec.Kind, &rec.EntityType, &rec.EntityKey, &doc, &patch, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning draft change for JSONL: %w", err)
		}
		if doc.Valid {
			rec.Document = json.RawMessage(doc.String)
		}
		if patch.Valid {
			rec.Patch = json.RawMessage(patch.String)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling draft change for JSONL: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating draft changes for JSONL: %w", err)
	}
	return records, nil
}
