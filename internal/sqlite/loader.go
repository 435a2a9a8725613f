// This file implements data directory loading for startup: the commit
// journal, the canonical snapshot, and persisted drafts.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/labki-org/ontology-hub/pkg/ontology"
)

// snapshotManifest names the file identifying the commit the entity JSONL
// files were exported from.
const snapshotManifest = "snapshot.json"

// Journal and draft mirror files. These are owned by the backend; the
// per-type entity files and the manifest come from the snapshot exporter.
const (
	commitsFile       = "commits.jsonl"
	commitChangesFile = "commit_changes.jsonl"
	draftsFile        = "drafts.jsonl"
	draftChangesFile  = "draft_changes.jsonl"
)

// entityFile returns the JSONL file name holding canonical documents of the
// given type, such as categories.jsonl.
func entityFile(typ ontology.EntityType) string {
	return typ.Plural() + ".jsonl"
}

// initJSONLFiles creates empty journal and draft mirror files if they do
// not exist. Entity files are never created here; an absent entity file
// just means the snapshot has no documents of that type.
func (b *Backend) initJSONLFiles() error {
	for _, name := range []string{commitsFile, commitChangesFile, draftsFile, draftChangesFile} {
		path := filepath.Join(b.config.DataDir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("checking %s: %w", name, err)
		}
		if err := writeJSONL(path, nil); err != nil {
			return fmt.Errorf("initializing %s: %w", name, err)
		}
	}
	return nil
}

// readSnapshotManifest reads snapshot.json from the data dir. A missing
// manifest returns nil without error; the catalog simply has no canonical
// snapshot yet.
func readSnapshotManifest(dataDir string) (*snapshotJSON, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, snapshotManifest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", snapshotManifest, err)
	}
	var manifest snapshotJSON
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", snapshotManifest, err)
	}
	return &manifest, nil
}

// loadJournal reads commits.jsonl and commit_changes.jsonl into the commit
// journal tables. Loading is transactional and malformed lines are skipped.
func (b *Backend) loadJournal() error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning journal transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disabling foreign keys for load: %w", err)
	}

	records, err := readJSONL(filepath.Join(b.config.DataDir, commitsFile))
	if err != nil {
		return fmt.Errorf("reading %s: %w", commitsFile, err)
	}
	if len(records) > 0 {
		stmt, err := tx.Prepare(
			"INSERT INTO commit_log (commit_id, ordinal, ingested_at) VALUES (?, ?, ?)",
		)
		if err != nil {
			return fmt.Errorf("preparing commit insert: %w", err)
		}
		for _, rec := range records {
			var c commitJSON
			if err := json.Unmarshal(rec, &c); err != nil {
				continue
			}
			if c.CommitID == "" {
				continue
			}
			if _, err := stmt.Exec(c.CommitID, c.Ordinal, c.IngestedAt); err != nil {
				continue
			}
		}
		stmt.Close()
	}

	records, err = readJSONL(filepath.Join(b.config.DataDir, commitChangesFile))
	if err != nil {
		return fmt.Errorf("reading %s: %w", commitChangesFile, err)
	}
	if len(records) > 0 {
		stmt, err := tx.Prepare(
			"INSERT INTO commit_changes (commit_id, entity_type, entity_key, operation) VALUES (?, ?, ?, ?)",
		)
		if err != nil {
			return fmt.Errorf("preparing commit change insert: %w", err)
		}
		for _, rec := range records {
			var c commitChangeJSON
			if err := json.Unmarshal(rec, &c); err != nil {
				continue
			}
			if c.CommitID == "" || c.EntityKey == "" {
				continue
			}
			if _, err := stmt.Exec(c.CommitID, c.EntityType, c.EntityKey, c.Operation); err != nil {
				continue
			}
		}
		stmt.Close()
	}

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("re-enabling foreign keys: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing journal load: %w", err)
	}
	return nil
}

// loadSnapshot reads the snapshot manifest and the per-type entity files
// into the entities and category_edges tables. Loading is transactional and
// malformed lines are skipped. The snapshot commit is guaranteed a journal
// entry afterwards, so ChangedSince can anchor on it.
func (b *Backend) loadSnapshot() error {
	manifest, err := readSnapshotManifest(b.config.DataDir)
	if err != nil {
		return err
	}
	if manifest == nil || manifest.Commit == "" {
		return nil
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disabling foreign keys for load: %w", err)
	}

	for _, typ := range ontology.EntityTypes {
		path := filepath.Join(b.config.DataDir, entityFile(typ))
		records, err := readJSONL(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("reading %s: %w", entityFile(typ), err)
		}
		if len(records) == 0 {
			continue
		}
		if err := insertEntities(tx, typ, manifest.Commit, records); err != nil {
			return fmt.Errorf("loading %s: %w", entityFile(typ), err)
		}
	}

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("re-enabling foreign keys: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot load: %w", err)
	}

	return b.ensureCommitLogged(manifest.Commit)
}

// insertEntities inserts parsed entity records of one type. Records missing
// a key and records that violate constraints are skipped. Category records
// additionally populate category_edges from their parent lists.
func insertEntities(tx *sql.Tx, typ ontology.EntityType, commit string, records []json.RawMessage) error {
	stmt, err := tx.Prepare(
		"INSERT OR REPLACE INTO entities (entity_type, entity_key, body, origin_path, origin_commit) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("preparing entity insert: %w", err)
	}
	defer stmt.Close()

	var edgeStmt *sql.Stmt
	if typ == ontology.TypeCategory {
		edgeStmt, err = tx.Prepare(
			"INSERT OR REPLACE INTO category_edges (child_key, parent_key, ordinal) VALUES (?, ?, ?)",
		)
		if err != nil {
			return fmt.Errorf("preparing edge insert: %w", err)
		}
		defer edgeStmt.Close()
	}

	for _, rec := range records {
		var ent entityJSON
		if err := json.Unmarshal(rec, &ent); err != nil {
			continue
		}
		if ent.Key == "" {
			continue
		}
		if ent.Body == nil {
			ent.Body = map[string]any{}
		}
		bodyJSON, err := json.Marshal(ent.Body)
		if err != nil {
			continue
		}
		if _, err := stmt.Exec(string(typ), ent.Key, string(bodyJSON), ent.Path, commit); err != nil {
			continue
		}
		if edgeStmt != nil {
			doc := &ontology.Document{Type: typ, Key: ent.Key, Body: ent.Body}
			for i, parent := range doc.Parents() {
				if _, err := edgeStmt.Exec(ent.Key, parent, i); err != nil {
					continue
				}
			}
		}
	}
	return nil
}

// ensureCommitLogged records the given commit as a journal entry if it does
// not already have one. A fresh journal records the snapshot commit as its
// baseline with no changed entities.
func (b *Backend) ensureCommitLogged(commit string) error {
	var one int
	err := b.db.QueryRow("SELECT 1 FROM commit_log WHERE commit_id = ?", commit).Scan(&one)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking commit log: %w", err)
	}

	ordinal, err := nextCommitOrdinal(b.db)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := b.db.Exec(
		"INSERT INTO commit_log (commit_id, ordinal, ingested_at) VALUES (?, ?, ?)",
		commit, ordinal, now,
	); err != nil {
		return fmt.Errorf("recording baseline commit: %w", err)
	}
	return b.persistJournalJSONL()
}

// nextCommitOrdinal returns one past the highest journal ordinal.
func nextCommitOrdinal(q querier) (int64, error) {
	var max sql.NullInt64
	if err := q.QueryRow("SELECT MAX(ordinal) FROM commit_log").Scan(&max); err != nil {
		return 0, fmt.Errorf("reading commit ordinals: %w", err)
	}
	return max.Int64 + 1, nil
}

// loadDrafts reads the draft mirrors into the drafts and draft_changes
// tables. Loading is transactional and malformed lines are skipped.
func (b *Backend) loadDrafts() error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning draft transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disabling foreign keys for load: %w", err)
	}

	records, err := readJSONL(filepath.Join(b.config.DataDir, draftsFile))
	if err != nil {
		return fmt.Errorf("reading %s: %w", draftsFile, err)
	}
	if len(records) > 0 {
		stmt, err := tx.Prepare(
			"INSERT INTO drafts (draft_id, name, status, base_commit, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		)
		if err != nil {
			return fmt.Errorf("preparing draft insert: %w", err)
		}
		for _, rec := range records {
			var d draftJSON
			if err := json.Unmarshal(rec, &d); err != nil {
				continue
			}
			if d.DraftID == "" {
				continue
			}
			if _, err := stmt.Exec(d.DraftID, d.Name, d.Status, d.BaseCommit, d.CreatedAt, d.UpdatedAt); err != nil {
				continue
			}
		}
		stmt.Close()
	}

	records, err = readJSONL(filepath.Join(b.config.DataDir, draftChangesFile))
	if err != nil {
		return fmt.Errorf("reading %s: %w", draftChangesFile, err)
	}
	if len(records) > 0 {
		stmt, err := tx.Prepare(
			"INSERT INTO draft_changes (change_id, draft_id, ordinal, kind, entity_type, entity_key, document, patch, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		)
		if err != nil {
			return fmt.Errorf("preparing draft change insert: %w", err)
		}
		for _, rec := range records {
			var c draftChangeJSON
			if err := json.Unmarshal(rec, &c); err != nil {
				continue
			}
			if c.ChangeID == "" || c.DraftID == "" {
				continue
			}
			var doc, patch any
			if len(c.Document) > 0 {
				doc = string(c.Document)
			}
			if len(c.Patch) > 0 {
				patch = string(c.Patch)
			}
			if _, err := stmt.Exec(c.ChangeID, c.DraftID, c.Ordinal, c.Kind, c.EntityType, c.EntityKey, doc, patch, c.CreatedAt, c.UpdatedAt); err != nil {
				continue
			}
		}
		stmt.Close()
	}

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("re-enabling foreign keys: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing draft load: %w", err)
	}
	return nil
}
