// Package jsonpatch implements RFC 6902 JSON Patch, plus the domain
// extensions removeIfExists, safeReplace, and testAbsence, against
// values decoded the way encoding/json decodes into "any" (map[string]any,
// []any, string, float64, bool, nil). Apply is atomic: either it returns
// a complete new value, or it returns an error and the caller's input is
// observably unchanged.
package jsonpatch

import (
	"github.com/kvrepo/notifycore/pkg/coreerr"
	"github.com/kvrepo/notifycore/pkg/jsonpointer"
)

// Apply applies patch to value in order and returns the resulting value.
// value is never mutated: Apply clones it up front and applies every
// operation to the clone, so a failure midway leaves the caller's value
// untouched and Apply returns that unchanged value together with the
// error.
func Apply(value any, patch Patch) (any, error) {
	root, err := deepClone(value)
	if err != nil {
		return value, err
	}
	for _, op := range patch {
		root, err = applyOne(root, op)
		if err != nil {
			return value, err
		}
	}
	return root, nil
}

func applyOne(root any, op Operation) (any, error) {
	switch op.Op {
	case OpAdd:
		return insertAt(root, jsonpointer.Parse(op.Path), op.Value)
	case OpRemove:
		return removeRequired(root, jsonpointer.Parse(op.Path))
	case OpRemoveIfExists:
		return removeIfExists(root, jsonpointer.Parse(op.Path))
	case OpReplace:
		return replaceRequired(root, jsonpointer.Parse(op.Path), op.Value)
	case OpSafeReplace:
		return safeReplace(root, jsonpointer.Parse(op.Path), op.OldValue, op.NewValue)
	case OpTest:
		return test(root, jsonpointer.Parse(op.Path), op.Value)
	case OpTestAbsence:
		return testAbsence(root, jsonpointer.Parse(op.Path))
	case OpCopy:
		return copyOp(root, jsonpointer.Parse(op.From), jsonpointer.Parse(op.Path))
	case OpMove:
		return moveOp(root, jsonpointer.Parse(op.From), jsonpointer.Parse(op.Path))
	default:
		return root, &coreerr.JsonPatchConflict{Pointer: op.Path, Reason: "unknown op " + string(op.Op)}
	}
}

// insertAt implements add: the parent must exist and be a container; an
// object parent sets/overwrites the child key, an array parent inserts
// at "-" (append) or any index in [0, len]. The empty path replaces the
// whole document.
func insertAt(root any, path jsonpointer.Pointer, value any) (any, error) {
	if path.IsRoot() {
		return value, nil
	}
	parentPtr := path.ParentOf()
	token := path.LastToken()
	parent := jsonpointer.At(root, parentPtr)
	if parent == jsonpointer.Missing {
		return root, conflict(parentPtr, "non-existent parent")
	}
	switch p := parent.(type) {
	case map[string]any:
		p[token] = value
		return root, nil
	case []any:
		idx, ok := jsonpointer.ArrayIndex(token, len(p))
		if !ok || idx > len(p) {
			return root, conflict(path, "array index out of range")
		}
		newArr := insertSlice(p, idx, value)
		return replaceAt(root, parentPtr, newArr)
	default:
		return root, conflict(parentPtr, "parent is not a container")
	}
}

// removeRequired implements remove: the target must exist. The empty
// path is illegal (there is no parent to remove from).
func removeRequired(root any, path jsonpointer.Pointer) (any, error) {
	if path.IsRoot() {
		return root, conflict(path, "cannot remove the document root")
	}
	if jsonpointer.At(root, path) == jsonpointer.Missing {
		return root, conflict(path, "non-existent path")
	}
	return removeAt(root, path)
}

// removeIfExists implements removeIfExists: like remove, but a no-op
// when the target is already missing.
func removeIfExists(root any, path jsonpointer.Pointer) (any, error) {
	if jsonpointer.At(root, path) == jsonpointer.Missing {
		return root, nil
	}
	return removeRequired(root, path)
}

// removeAt deletes the value at path: an object key is deleted, an
// array element is deleted with the tail shifted down.
func removeAt(root any, path jsonpointer.Pointer) (any, error) {
	parentPtr := path.ParentOf()
	token := path.LastToken()
	parent := jsonpointer.At(root, parentPtr)
	switch p := parent.(type) {
	case map[string]any:
		delete(p, token)
		return root, nil
	case []any:
		idx, ok := jsonpointer.ArrayIndex(token, len(p))
		if !ok || idx >= len(p) {
			return root, conflict(path, "array index out of range")
		}
		newArr := removeSlice(p, idx)
		return replaceAt(root, parentPtr, newArr)
	default:
		return root, conflict(parentPtr, "parent is not a container")
	}
}

// replaceRequired implements replace: the target must exist; its value
// is replaced in place, its structural position unchanged.
func replaceRequired(root any, path jsonpointer.Pointer, value any) (any, error) {
	if jsonpointer.At(root, path) == jsonpointer.Missing {
		return root, conflict(path, "non-existent path")
	}
	return replaceAt(root, path, value)
}

// safeReplace implements safeReplace: the target must exist and deep-equal
// oldValue, or the operation fails with both the observed and expected
// values attached.
func safeReplace(root any, path jsonpointer.Pointer, oldValue, newValue any) (any, error) {
	actual := jsonpointer.At(root, path)
	if actual == jsonpointer.Missing {
		return root, &coreerr.TestFailed{Pointer: path.String(), Expected: oldValue, HasActual: false}
	}
	if !DeepEqual(actual, oldValue) {
		return root, &coreerr.TestFailed{Pointer: path.String(), Expected: oldValue, Actual: actual, HasActual: true}
	}
	return replaceAt(root, path, newValue)
}

// test implements test: the target must exist and deep-equal value.
func test(root any, path jsonpointer.Pointer, value any) (any, error) {
	actual := jsonpointer.At(root, path)
	if actual == jsonpointer.Missing {
		return root, &coreerr.TestFailed{Pointer: path.String(), Expected: value, HasActual: false}
	}
	if !DeepEqual(actual, value) {
		return root, &coreerr.TestFailed{Pointer: path.String(), Expected: value, Actual: actual, HasActual: true}
	}
	return root, nil
}

// testAbsence implements testAbsence: the target must be missing.
func testAbsence(root any, path jsonpointer.Pointer) (any, error) {
	if actual := jsonpointer.At(root, path); actual != jsonpointer.Missing {
		return root, &coreerr.TestFailed{Pointer: path.String(), Expected: nil, Actual: actual, HasActual: true}
	}
	return root, nil
}

// copyOp implements copy: from must exist; to's parent must exist and be
// a container. Semantically add(to, deepClone(at(from))) — nothing is
// removed, so any index in to is resolved against the document
// unchanged by this operation.
func copyOp(root any, from, to jsonpointer.Pointer) (any, error) {
	value := jsonpointer.At(root, from)
	if value == jsonpointer.Missing {
		return root, conflict(from, "non-existent source")
	}
	cloned, err := deepClone(value)
	if err != nil {
		return root, err
	}
	return insertAt(root, to, cloned)
}

// moveOp implements move: from must exist and must not be a proper
// prefix of to. Semantically remove(from) then add(to, value); because
// the add happens against the tree state left by the remove, a
// same-array move resolves its destination index against the
// post-removal array automatically.
func moveOp(root any, from, to jsonpointer.Pointer) (any, error) {
	if from.IsRoot() {
		return root, conflict(from, "cannot move the document root")
	}
	if isPrefix(from, to) {
		return root, conflict(to, "cannot move a node into itself")
	}
	value := jsonpointer.At(root, from)
	if value == jsonpointer.Missing {
		return root, conflict(from, "non-existent source")
	}
	root, err := removeAt(root, from)
	if err != nil {
		return root, err
	}
	return insertAt(root, to, value)
}

// isPrefix reports whether from is a proper prefix of to (to descends
// from from), which would make a move into itself.
func isPrefix(from, to jsonpointer.Pointer) bool {
	if len(from) >= len(to) {
		return false
	}
	for i, tok := range from {
		if to[i] != tok {
			return false
		}
	}
	return true
}

// replaceAt overwrites the value currently at path with newValue,
// without changing path's structural position. path must already
// resolve to something (the caller has checked existence); replaceAt
// itself just walks to path's parent and overwrites the one slot.
func replaceAt(root any, path jsonpointer.Pointer, newValue any) (any, error) {
	if path.IsRoot() {
		return newValue, nil
	}
	parentPtr := path.ParentOf()
	token := path.LastToken()
	parent := jsonpointer.At(root, parentPtr)
	switch p := parent.(type) {
	case map[string]any:
		p[token] = newValue
		return root, nil
	case []any:
		idx, ok := jsonpointer.ArrayIndex(token, len(p))
		if !ok || idx >= len(p) {
			return root, conflict(path, "array index out of range")
		}
		p[idx] = newValue
		return root, nil
	default:
		return root, conflict(parentPtr, "parent is not a container")
	}
}

func insertSlice(arr []any, idx int, value any) []any {
	out := make([]any, 0, len(arr)+1)
	out = append(out, arr[:idx]...)
	out = append(out, value)
	out = append(out, arr[idx:]...)
	return out
}

func removeSlice(arr []any, idx int) []any {
	out := make([]any, 0, len(arr)-1)
	out = append(out, arr[:idx]...)
	out = append(out, arr[idx+1:]...)
	return out
}

func conflict(path jsonpointer.Pointer, reason string) error {
	return &coreerr.JsonPatchConflict{Pointer: path.String(), Reason: reason}
}
