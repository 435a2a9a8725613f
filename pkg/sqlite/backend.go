// Package sqlite exposes the reference catalog backend. The implementation
// lives in internal/sqlite; callers construct it here and talk to it through
// the ontology.Catalog interface.
package sqlite

import (
	"github.com/labki-org/ontology-hub/internal/sqlite"
	"github.com/labki-org/ontology-hub/pkg/ontology"
)

// NewBackend returns an unattached catalog backed by SQLite with JSONL
// mirrors. Attach it to a data directory before use:
//
//	cat := sqlite.NewBackend()
//	err := cat.Attach(ontology.Config{
//		Backend: ontology.BackendSQLite,
//		DataDir: ".labki-data",
//	})
//	defer cat.Detach()
func NewBackend() ontology.Catalog {
	return sqlite.NewBackend()
}
