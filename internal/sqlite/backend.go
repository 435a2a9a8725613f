// This file implements the backend lifecycle: attach, load, detach.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/labki-org/ontology-hub/pkg/ontology"
)

// Compile-time interface checks: Backend must implement both store
// interfaces.
var (
	_ ontology.Store      = (*Backend)(nil)
	_ ontology.DraftStore = (*Backend)(nil)
)

// dbFileName is the SQLite database file inside DataDir. The file is
// rebuilt from the JSONL sources on every Attach.
const dbFileName = "catalog.db"

// Backend implements ontology.Store and ontology.DraftStore using SQLite as
// the query engine and the data directory's JSONL files as the source of
// truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   ontology.Config
	db       *sql.DB
}

// querier is the query surface shared by *sql.DB and *sql.Tx, so helpers
// can run inside or outside a transaction.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NewBackend returns an unattached backend. Attach binds it to a data
// directory.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach initializes the backend with the given configuration. Creates
// DataDir if it does not exist, initializes the SQLite schema, and loads
// the commit journal, the canonical snapshot, and persisted drafts from the
// data directory. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config ontology.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return ontology.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	if config.DataDir == "" {
		config.DataDir = "."
	}
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// Remove any stale database file so the schema rebuilds fresh from the
	// JSONL sources.
	dbPath := filepath.Join(config.DataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating indexes: %w", err)
		}
	}

	b.db = db
	b.config = config

	if err := b.bootstrap(); err != nil {
		db.Close()
		b.db = nil
		return err
	}

	b.attached = true
	return nil
}

// bootstrap seeds the fresh database from the data directory files, in
// dependency order: mirrors first, then the journal the snapshot load
// anchors against, then the drafts cut against journaled commits.
func (b *Backend) bootstrap() error {
	if err := b.initJSONLFiles(); err != nil {
		return err
	}
	if err := b.loadJournal(); err != nil {
		return fmt.Errorf("loading commit journal: %w", err)
	}
	if err := b.loadSnapshot(); err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	if err := b.loadDrafts(); err != nil {
		return fmt.Errorf("loading drafts: %w", err)
	}
	return nil
}

// Detach releases all resources held by the backend. After Detach, all
// operations return ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
		b.db = nil
	}

	b.attached = false
	return nil
}

// generateUUID generates a new UUID v7 for draft and change IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// fall back to random v4
		return uuid.New().String()
	}
	return id.String()
}
