// JSONL record structures for backend persistence.
// These structures define the record formats for the data directory files.
package sqlite

import "encoding/json"

// snapshotJSON is the manifest in snapshot.json. The commit identifies the
// canonical state the per-type entity files were exported from.
type snapshotJSON struct {
	Commit string `json:"commit"`
}

// entityJSON represents one canonical document in a per-type entity file
// such as categories.jsonl.
type entityJSON struct {
	Key  string         `json:"key"`
	Path string         `json:"path,omitempty"`
	Body map[string]any `json:"body"`
}

// commitJSON represents a journal entry in commits.jsonl.
type commitJSON struct {
	CommitID   string `json:"commit_id"`
	Ordinal    int64  `json:"ordinal"`
	IngestedAt string `json:"ingested_at"`
}

// commitChangeJSON represents one changed entity in commit_changes.jsonl.
type commitChangeJSON struct {
	CommitID   string `json:"commit_id"`
	EntityType string `json:"entity_type"`
	EntityKey  string `json:"entity_key"`
	Operation  string `json:"operation"`
}

// draftJSON represents a draft in drafts.jsonl.
type draftJSON struct {
	DraftID    string `json:"draft_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	BaseCommit string `json:"base_commit"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// draftChangeJSON represents a staged change in draft_changes.jsonl.
// Document and Patch carry the payload as raw JSON; absent payloads are
// omitted.
type draftChangeJSON struct {
	ChangeID   string          `json:"change_id"`
	DraftID    string          `json:"draft_id"`
	Ordinal    int64           `json:"ordinal"`
	Kind       string          `json:"kind"`
	EntityType string          `json:"entity_type"`
	EntityKey  string          `json:"entity_key"`
	Document   json.RawMessage `json:"document,omitempty"`
	Patch      json.RawMessage `json:"patch,omitempty"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}
