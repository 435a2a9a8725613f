// Package integration tests the catalog through its public surfaces: the
// SQLite backend behind the ontology.Catalog interface and the hub facade on
// top of it. These tests verify the full attach, read, draft, ingest, detach
// lifecycle against a snapshot seeded on disk, including JSONL persistence
// round-trips and rebase classification after a snapshot advances.
package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labki-org/ontology-hub/pkg/hub"
	"github.com/labki-org/ontology-hub/pkg/ontology"
)

// writeDataFile writes one file under dir, overwriting any previous content.
func writeDataFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

// seedCatalog writes the shared snapshot fixture at commit c1: an Equipment
// category with an Instrument child, a property constraining Organization,
// two Organization resources, a deletable template, a module, and a bundle.
func seedCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeDataFile(t, dir, "snapshot.json", `{"commit": "c1"}`)
	writeDataFile(t, dir, "categories.jsonl",
		`{"key": "Equipment", "path": "categories/Equipment.json", "body": {"label": "Equipment", "properties": [{"property": "Has manufacturer", "required": true}]}}
{"key": "Instrument", "path": "categories/Instrument.json", "body": {"label": "Instrument", "parents": ["Equipment"], "properties": [{"property": "Has serial number"}]}}
{"key": "Organization", "path": "categories/Organization.json", "body": {"label": "Organization"}}
`)
	writeDataFile(t, dir, "properties.jsonl",
		`{"key": "Has manufacturer", "path": "properties/Has_manufacturer.json", "body": {"datatype": "page", "constraint_category": "Organization"}}
{"key": "Has serial number", "path": "properties/Has_serial_number.json", "body": {"datatype": "text"}}
`)
	writeDataFile(t, dir, "templates.jsonl",
		`{"key": "EquipmentTable", "body": {"label": "Equipment table"}}
{"key": "Legacy", "body": {"label": "Legacy layout"}}
`)
	writeDataFile(t, dir, "resources.jsonl",
		`{"key": "Organization/Acme", "body": {"label": "Acme"}}
{"key": "Globex", "body": {"categories": ["Organization"], "label": "Globex"}}
`)
	writeDataFile(t, dir, "modules.jsonl",
		`{"key": "lab-equipment", "body": {"categories": ["Equipment"], "templates": ["EquipmentTable"]}}
`)
	writeDataFile(t, dir, "bundles.jsonl",
		`{"key": "starter", "body": {"modules": ["lab-equipment"]}}
`)
	return dir
}

// advanceSnapshot rewrites the on-disk snapshot to commit c2, relabeling the
// Equipment category and leaving every other entity untouched.
func advanceSnapshot(t *testing.T, dir string) {
	t.Helper()
	writeDataFile(t, dir, "snapshot.json", `{"commit": "c2"}`)
	writeDataFile(t, dir, "categories.jsonl",
		`{"key": "Equipment", "path": "categories/Equipment.json", "body": {"label": "Laboratory Equipment", "properties": [{"property": "Has manufacturer", "required": true}]}}
{"key": "Instrument", "path": "categories/Instrument.json", "body": {"label": "Instrument", "parents": ["Equipment"], "properties": [{"property": "Has serial number"}]}}
{"key": "Organization", "path": "categories/Organization.json", "body": {"label": "Organization"}}
`)
}

// openHub opens a hub over an already seeded data directory and registers
// detach as cleanup.
func openHub(t *testing.T, dir string) *hub.Hub {
	t.Helper()
	h, cat, err := hub.Open(ontology.Config{Backend: ontology.BackendSQLite, DataDir: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { cat.Detach() })
	return h
}

// mustCreateDraft creates a draft cut from head or fails the test.
func mustCreateDraft(t *testing.T, h *hub.Hub, name string) *ontology.Draft {
	t.Helper()
	d, err := h.CreateDraft(name, "")
	if err != nil {
		t.Fatalf("CreateDraft(%q): %v", name, err)
	}
	return d
}

// mustStage stages one change into a draft or fails the test.
func mustStage(t *testing.T, h *hub.Hub, draftID string, ch *ontology.Change) *ontology.Draft {
	t.Helper()
	d, err := h.StageChange(draftID, ch)
	if err != nil {
		t.Fatalf("StageChange(%s/%s): %v", ch.EntityType, ch.Key, err)
	}
	return d
}

// assertFileContains checks that a data-dir file contains a substring.
func assertFileContains(t *testing.T, dir, filename, substr string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("reading %s: %v", filename, err)
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("%s does not contain %q", filename, substr)
	}
}
