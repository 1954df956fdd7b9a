package jsonpatch

import "encoding/json"

// DeepEqual implements the patch engine's structural JSON equality:
// numbers compare by numeric value (so 1 equals 1.0 regardless of
// whether either side came through as an int or a float64), strings
// compare by bytes, arrays compare element-wise in order, objects
// compare by key set with pairwise equal values, and null/bool compare
// by identity value.
func DeepEqual(a, b any) bool {
	an, aIsNum, aOk := asFloat(a)
	bn, bIsNum, bOk := asFloat(b)
	if aOk && bOk && aIsNum && bIsNum {
		return an == bn
	}

	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !DeepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, present := bv[k]
			if !present || !DeepEqual(v, bval) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// asFloat reports whether v is a JSON number (int, int64, float64, or
// json.Number all count, since values can arrive either freshly
// constructed in Go or freshly decoded from the wire) and its value.
func asFloat(v any) (float64, bool, bool) {
	switch n := v.(type) {
	case float64:
		return n, true, true
	case float32:
		return float64(n), true, true
	case int:
		return float64(n), true, true
	case int64:
		return float64(n), true, true
	case json.Number:
		f, err := n.Float64()
		return f, true, err == nil
	default:
		return 0, false, true
	}
}

// deepClone copies a JSON-like value (the result of decoding into any)
// via a JSON round trip, so the copy shares no map or slice with the
// original. Apply uses it to clone its input up front, and copy uses it
// to avoid aliasing two locations in the same tree.
func deepClone(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
