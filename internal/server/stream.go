package server

import (
	"encoding/json"

	"github.com/wI2L/jsondiff"
)

// Update is one frame of a subscribed GET response: either the whole
// current value at the requested path (the first frame, or any frame for
// which no patch could be computed; Patches empty) or the patches that
// carried that value from the previous frame's revision to this one.
// Frames are written as newline-delimited JSON — a simpler wire framing
// than the teacher's header-per-field format, chosen because a
// streaming HTTP client can decode it with a plain bufio.Scanner.
type Update struct {
	Revision int64           `json:"revision"`
	Patches  []WireOp        `json:"patches,omitempty"`
	Body     json.RawMessage `json:"body,omitempty"`
}

// WireOp is a jsondiff operation in the JSON Patch wire shape clients
// already understand from PATCH requests.
type WireOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

func diffToWireOps(ops []jsondiff.Operation) []WireOp {
	wire := make([]WireOp, len(ops))
	for i, op := range ops {
		wire[i] = WireOp{Op: string(op.Type), Path: op.Path, From: op.From, Value: op.Value}
	}
	return wire
}
