// This file implements snapshot re-ingest with commit journaling. Ingest is
// the only write path into the canonical tables after attach.
package sqlite

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/labki-org/ontology-hub/pkg/ontology"
)

// Operations journaled per changed entity.
const (
	opCreated  = "created"
	opModified = "modified"
	opDeleted  = "deleted"
)

// Ingest re-reads the snapshot files from DataDir, replaces the canonical
// tables, and journals the difference against the previous snapshot under
// the manifest commit. Returns the head commit after ingest. Ingest with an
// unchanged manifest commit is a no-op.
func (b *Backend) Ingest() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return "", ontology.ErrStoreDetached
	}

	dataDir := b.config.DataDir
	manifest, err := readSnapshotManifest(dataDir)
	if err != nil {
		return "", err
	}
	if manifest == nil || manifest.Commit == "" {
		return "", fmt.Errorf("reading %s: %w", snapshotManifest, ontology.ErrNotFound)
	}

	head, err := b.headLocked()
	if err != nil {
		return "", err
	}
	if manifest.Commit == head {
		return head, nil
	}

	before, err := entityBodies(b.db)
	if err != nil {
		return "", err
	}

	tx, err := b.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning ingest transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM category_edges"); err != nil {
		return "", fmt.Errorf("clearing category edges: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM entities"); err != nil {
		return "", fmt.Errorf("clearing entities: %w", err)
	}

	for _, typ := range ontology.EntityTypes {
		path := filepath.Join(dataDir, entityFile(typ))
		records, err := readJSONL(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("reading %s: %w", entityFile(typ), err)
		}
		if len(records) == 0 {
			continue
		}
		if err := insertEntities(tx, typ, manifest.Commit, records); err != nil {
			return "", fmt.Errorf("loading %s: %w", entityFile(typ), err)
		}
	}

	after, err := entityBodies(tx)
	if err != nil {
		return "", err
	}

	ordinal, err := nextCommitOrdinal(tx)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		"INSERT INTO commit_log (commit_id, ordinal, ingested_at) VALUES (?, ?, ?)",
		manifest.Commit, ordinal, now,
	); err != nil {
		return "", fmt.Errorf("recording commit %s: %w", manifest.Commit, err)
	}

	for _, c := range diffEntities(before, after) {
		if _, err := tx.Exec(
			"INSERT INTO commit_changes (commit_id, entity_type, entity_key, operation) VALUES (?, ?, ?, ?)",
			manifest.Commit, string(c.ref.Type), c.ref.Key, c.op,
		); err != nil {
			return "", fmt.Errorf("journaling change %s: %w", c.ref.String(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing ingest: %w", err)
	}

	if err := b.persistJournalJSONL(); err != nil {
		return "", fmt.Errorf("persisting commit journal: %w", err)
	}
	return manifest.Commit, nil
}

// entityChange pairs a changed entity with its journaled operation.
type entityChange struct {
	ref ontology.EntityRef
	op  string
}

// diffEntities compares two body maps and returns created, modified, and
// deleted entities sorted by type then key. Bodies compare as their stored
// JSON text, which is stable for identical content.
func diffEntities(before, after map[ontology.EntityRef]string) []entityChange {
	var changes []entityChange
	for ref, body := range after {
		prev, ok := before[ref]
		if !ok {
			changes = append(changes, entityChange{ref: ref, op: opCreated})
			continue
		}
		if prev != body {
			changes = append(changes, entityChange{ref: ref, op: opModified})
		}
	}
	for ref := range before {
		if _, ok := after[ref]; !ok {
			changes = append(changes, entityChange{ref: ref, op: opDeleted})
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].ref.Type != changes[j].ref.Type {
			return changes[i].ref.Type < changes[j].ref.Type
		}
		return changes[i].ref.Key < changes[j].ref.Key
	})
	return changes
}

// entityBodies reads every canonical document body keyed by entity
// reference.
func entityBodies(q querier) (map[ontology.EntityRef]string, error) {
	rows, err := q.Query("SELECT entity_type, entity_key, body FROM entities")
	if err != nil {
		return nil, fmt.Errorf("querying entity bodies: %w", err)
	}
	defer rows.Close()

	bodies := make(map[ontology.EntityRef]string)
	for rows.Next() {
		var typ, key, body string
		if err := rows.Scan(&typ, &key, &body); err != nil {
			return nil, fmt.Errorf("scanning entity body: %w", err)
		}
		bodies[ontology.Ref(ontology.EntityType(typ), key)] = body
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entity bodies: %w", err)
	}
	return bodies, nil
}

// persistJournalJSONL rewrites commits.jsonl and commit_changes.jsonl from
// the journal tables using the atomic write pattern.
func (b *Backend) persistJournalJSONL() error {
	commitRecs, err := b.collectCommitRecords()
	if err != nil {
		return err
	}
	changeRecs, err := b.collectCommitChangeRecords()
	if err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(b.config.DataDir, commitsFile), commitRecs); err != nil {
		return fmt.Errorf("writing %s: %w", commitsFile, err)
	}
	if err := writeJSONL(filepath.Join(b.config.DataDir, commitChangesFile), changeRecs); err != nil {
		return fmt.Errorf("writing %s: %w", commitChangesFile, err)
	}
	return nil
}

// collectCommitRecords reads the commit log from SQLite as JSONL records.
func (b *Backend) collectCommitRecords() ([]json.RawMessage, error) {
	rows, err := b.db.Query(
		"SELECT commit_id, ordinal, ingested_at FROM commit_log ORDER BY ordinal ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying commit log for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var rec commitJSON
		if err := rows.Scan(&rec.CommitID, &rec.Ordinal, &rec.IngestedAt); err != nil {
			return nil, fmt.Errorf("scanning commit for JSONL: %w", err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling commit for JSONL: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating commit log for JSONL: %w", err)
	}
	return records, nil
}

// collectCommitChangeRecords reads the change journal from SQLite as JSONL
// records, ordered by commit then entity.
func (b *Backend) collectCommitChangeRecords() ([]json.RawMessage, error) {
	rows, err := b.db.Query(
		"SELECT c.commit_id, c.entity_type, c.entity_key, c.operation FROM commit_changes c " +
			"JOIN commit_log l ON l.commit_id = c.commit_id " +
			"ORDER BY l.ordinal ASC, c.entity_type ASC, c.entity_key ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying commit changes for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var rec commitChangeJSON
		if err := rows.Scan(&rec.CommitID, &rec.EntityType, &rec.EntityKey, &rec.Operation); err != nil {
			return nil, fmt.Errorf("scanning commit change for JSONL: %w", err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling commit change for JSONL: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating commit changes for JSONL: %w", err)
	}
	return records, nil
}
