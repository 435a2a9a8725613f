package ontology

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Patch operation names (RFC 6902). Update payloads prefer "add" over
// "replace" so an op against a not-yet-populated path fills it in instead of
// failing.
const (
	PatchOpAdd     = "add"
	PatchOpRemove  = "remove"
	PatchOpReplace = "replace"
	PatchOpMove    = "move"
	PatchOpCopy    = "copy"
	PatchOpTest    = "test"
)

// validPatchOps is the set of recognized patch operation names.
var validPatchOps = map[string]bool{
	PatchOpAdd:     true,
	PatchOpRemove:  true,
	PatchOpReplace: true,
	PatchOpMove:    true,
	PatchOpCopy:    true,
	PatchOpTest:    true,
}

// Patch validation errors.
var (
	ErrInvalidPatchOp   = errors.New("invalid patch operation")
	ErrInvalidPatchPath = errors.New("invalid patch path")
)

// PatchOp is a single RFC 6902 operation in an update change's payload.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	From  string `json:"from,omitempty"`
}

// ValidatePatchOps structurally checks an update payload: every op name must
// be recognized, paths must be JSON pointers, and move/copy ops need a from
// pointer. Whether the ops apply cleanly against a particular document is a
// resolution-time concern, not checked here.
func ValidatePatchOps(ops []PatchOp) error {
	if len(ops) == 0 {
		return ErrInvalidPatchOp
	}
	for _, op := range ops {
		if !validPatchOps[op.Op] {
			return fmt.Errorf("%w: %q", ErrInvalidPatchOp, op.Op)
		}
		if !validPointer(op.Path) {
			return fmt.Errorf("%w: %q", ErrInvalidPatchPath, op.Path)
		}
		if op.Op == PatchOpMove || op.Op == PatchOpCopy {
			if !validPointer(op.From) {
				return fmt.Errorf("%w: from %q", ErrInvalidPatchPath, op.From)
			}
		}
	}
	return nil
}

// validPointer reports whether s is a JSON pointer. The empty pointer
// addresses the whole document and is legal.
func validPointer(s string) bool {
	return s == "" || strings.HasPrefix(s, "/")
}

// ApplyPatch applies ordered RFC 6902 ops to a document body and returns the
// patched result as a fresh map; the input body is never mutated. An error
// means the ops could not be applied (bad path, failed test, malformed op);
// callers decide whether that is fatal or flagged in-band.
func ApplyPatch(body map[string]any, ops []PatchOp) (map[string]any, error) {
	if body == nil {
		body = map[string]any{}
	}
	docJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding document for patch: %w", err)
	}
	opsJSON, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("encoding patch ops: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(opsJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding patch: %w", err)
	}
	patched, err := patch.Apply(docJSON)
	if err != nil {
		return nil, fmt.Errorf("applying patch: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(patched, &out); err != nil {
		return nil, fmt.Errorf("decoding patched document: %w", err)
	}
	return out, nil
}
