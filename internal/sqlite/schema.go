// Package sqlite implements the reference storage backend for the ontology
// catalog. Canonical documents load from a snapshot of JSONL files into
// SQLite for querying; drafts and the commit journal mirror back to JSONL
// after every mutation, so the data directory, not the database file, is
// the durable source of truth.
package sqlite

// Schema DDL for all tables.
const (
	createEntities = `CREATE TABLE entities (
    entity_type TEXT NOT NULL,
    entity_key TEXT NOT NULL,
    body TEXT NOT NULL,
    origin_path TEXT NOT NULL,
    origin_commit TEXT NOT NULL,
    PRIMARY KEY (entity_type, entity_key)
);`

	createCategoryEdges = `CREATE TABLE category_edges (
    child_key TEXT NOT NULL,
    parent_key TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (child_key, parent_key)
);`

	createCommitLog = `CREATE TABLE commit_log (
    commit_id TEXT PRIMARY KEY,
    ordinal INTEGER NOT NULL UNIQUE,
    ingested_at TEXT NOT NULL
);`

	createCommitChanges = `CREATE TABLE commit_changes (
    commit_id TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_key TEXT NOT NULL,
    operation TEXT NOT NULL,
    FOREIGN KEY (commit_id) REFERENCES commit_log(commit_id)
);`

	createDrafts = `CREATE TABLE drafts (
    draft_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    status TEXT NOT NULL,
    base_commit TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createDraftChanges = `CREATE TABLE draft_changes (
    change_id TEXT PRIMARY KEY,
    draft_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    kind TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_key TEXT NOT NULL,
    document TEXT,
    patch TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (draft_id) REFERENCES drafts(draft_id)
);`
)

// Index DDL for common queries.
const (
	idxEntitiesType        = `CREATE INDEX idx_entities_type ON entities(entity_type);`
	idxCategoryEdgesParent = `CREATE INDEX idx_category_edges_parent ON category_edges(parent_key);`
	idxCommitChangesCommit = `CREATE INDEX idx_commit_changes_commit ON commit_changes(commit_id);`
	idxDraftsStatus        = `CREATE INDEX idx_drafts_status ON drafts(status);`
	idxDraftChangesDraft   = `CREATE UNIQUE INDEX idx_draft_changes_draft ON draft_changes(draft_id, ordinal);`
)

// schemaDDL orders table creation so foreign keys resolve.
var schemaDDL = []string{
	createEntities,
	createCategoryEdges,
	createCommitLog,
	createCommitChanges,
	createDrafts,
	createDraftChanges,
}

// indexDDL is applied after schemaDDL.
var indexDDL = []string{
	idxEntitiesType,
	idxCategoryEdgesParent,
	idxCommitChangesCommit,
	idxDraftsStatus,
	idxDraftChangesDraft,
}
