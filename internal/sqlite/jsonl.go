// JSONL mirror files: one JSON record per line, replaced atomically on write.
package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxRecordSize caps a single JSONL line. Draft documents are arbitrary
// caller JSON and can exceed the scanner's 64 KiB default token size.
const maxRecordSize = 4 * 1024 * 1024

// readJSONL returns every parseable line of the file as a raw JSON record.
// Blank and malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	for sc.Scan() {
		if rec, ok := parseRecord(sc.Bytes()); ok {
			records = append(records, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// parseRecord validates one JSONL line and copies it out of the scanner's
// reused buffer. Returns false for blank and malformed lines.
func parseRecord(line []byte) (json.RawMessage, bool) {
	if len(line) == 0 || !json.Valid(line) {
		return nil, false
	}
	return json.RawMessage(append([]byte(nil), line...)), true
}

// writeJSONL atomically replaces the file at path with one line per record.
func writeJSONL(path string, records []json.RawMessage) error {
	return replaceFile(path, func(w *bufio.Writer) error {
		for _, rec := range records {
			if _, err := w.Write(rec); err != nil {
				return err
			}
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
		}
		return nil
	})
}

// replaceFile fills a temp file in the target directory and renames it over
// path once synced, so a concurrent reader never observes a partial file.
func replaceFile(path string, fill func(*bufio.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".labki-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	// No-ops once the rename has claimed the temp file.
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	name := filepath.Base(path)
	w := bufio.NewWriter(tmp)
	if err := fill(w); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}
