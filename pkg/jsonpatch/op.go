package jsonpatch

import (
	"encoding/json"
	"fmt"
)

// Op names the nine operation discriminators this engine understands:
// the six from RFC 6902 plus the three domain extensions
// (removeIfExists, safeReplace, testAbsence).
type Op string

const (
	OpAdd            Op = "add"
	OpCopy           Op = "copy"
	OpMove           Op = "move"
	OpRemove         Op = "remove"
	OpRemoveIfExists Op = "removeIfExists"
	OpReplace        Op = "replace"
	OpSafeReplace    Op = "safeReplace"
	OpTest           Op = "test"
	OpTestAbsence    Op = "testAbsence"
)

func (op Op) valid() bool {
	switch op {
	case OpAdd, OpCopy, OpMove, OpRemove, OpRemoveIfExists, OpReplace, OpSafeReplace, OpTest, OpTestAbsence:
		return true
	default:
		return false
	}
}

// Operation is a single JSON Patch operation. It is a pure description —
// it holds no state of its own, and the same Operation value can be
// applied to many documents. Field usage depends on Op:
//
//	add, replace, test:        Path, Value
//	copy, move:                From, Path
//	remove, removeIfExists:    Path
//	safeReplace:               Path, OldValue, NewValue
//	testAbsence:               Path
type Operation struct {
	Op       Op     `json:"op"`
	Path     string `json:"path"`
	From     string `json:"from,omitempty"`
	Value    any    `json:"value,omitempty"`
	OldValue any    `json:"oldValue,omitempty"`
	NewValue any    `json:"newValue,omitempty"`
}

// rawOperation mirrors Operation's wire shape but with Op left as a bare
// string, so UnmarshalJSON can validate it before committing to the
// typed Op.
type rawOperation struct {
	Op       string `json:"op"`
	Path     string `json:"path"`
	From     string `json:"from,omitempty"`
	Value    any    `json:"value,omitempty"`
	OldValue any    `json:"oldValue,omitempty"`
	NewValue any    `json:"newValue,omitempty"`
}

// UnmarshalJSON rejects unknown op discriminators; unrecognized
// properties on an otherwise-valid operation object are ignored, per the
// wire format's own rule.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var raw rawOperation
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	op := Op(raw.Op)
	if !op.valid() {
		return fmt.Errorf("jsonpatch: unknown op %q", raw.Op)
	}
	o.Op = op
	o.Path = raw.Path
	o.From = raw.From
	o.Value = raw.Value
	o.OldValue = raw.OldValue
	o.NewValue = raw.NewValue
	return nil
}

// Patch is an ordered, finite sequence of operations. Equality is
// sequence equality — two patches are equal when they have the same
// operations in the same order.
type Patch []Operation

// Parse decodes a wire-format JSON array of operations into a Patch,
// rejecting any operation with an unknown op discriminator.
func Parse(data []byte) (Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// Serialize encodes the patch back to its wire format.
func (p Patch) Serialize() ([]byte, error) {
	return json.Marshal(p)
}

// Equal reports whether two patches are the same sequence of operations.
func (p Patch) Equal(other Patch) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if !p[i].equal(other[i]) {
			return false
		}
	}
	return true
}

func (o Operation) equal(other Operation) bool {
	return o.Op == other.Op &&
		o.Path == other.Path &&
		o.From == other.From &&
		DeepEqual(o.Value, other.Value) &&
		DeepEqual(o.OldValue, other.OldValue) &&
		DeepEqual(o.NewValue, other.NewValue)
}
