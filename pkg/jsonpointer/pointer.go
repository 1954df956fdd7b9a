// Package jsonpointer implements RFC 6901 JSON Pointers: parsing,
// navigation, and the small set of structural queries (parent, last
// token) the patch engine needs. All operations are total and pure; none
// of them mutate the tree they walk.
package jsonpointer

import "strings"

// Missing is the distinguished sentinel returned by At when the pointer
// does not resolve to anything in the tree, instead of failing.
var Missing = missingType{}

type missingType struct{}

// Pointer is a parsed RFC 6901 token list. The zero value is the empty
// (root) pointer.
type Pointer []string

// Parse splits a JSON Pointer string into its tokens, decoding "~1" to
// "/" and "~0" to "~" in each token. The empty string parses to the empty
// (root) pointer.
func Parse(raw string) Pointer {
	if raw == "" {
		return Pointer{}
	}
	parts := strings.Split(raw[1:], "/")
	tokens := make(Pointer, len(parts))
	for i, p := range parts {
		tokens[i] = decodeToken(p)
	}
	return tokens
}

// String renders the pointer back to RFC 6901 text, encoding "~" to "~0"
// and "/" to "~1". Parse(p.String()) reproduces p: encode/decode is an
// involution.
func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tok := range p {
		b.WriteByte('/')
		b.WriteString(encodeToken(tok))
	}
	return b.String()
}

func decodeToken(tok string) string {
	if !strings.Contains(tok, "~") {
		return tok
	}
	var b strings.Builder
	for i := 0; i < len(tok); i++ {
		if tok[i] == '~' && i+1 < len(tok) {
			switch tok[i+1] {
			case '0':
				b.WriteByte('~')
				i++
				continue
			case '1':
				b.WriteByte('/')
				i++
				continue
			}
		}
		b.WriteByte(tok[i])
	}
	return b.String()
}

func encodeToken(tok string) string {
	if !strings.ContainsAny(tok, "~/") {
		return tok
	}
	tok = strings.ReplaceAll(tok, "~", "~0")
	tok = strings.ReplaceAll(tok, "/", "~1")
	return tok
}

// ParentOf drops the last token. The parent of the empty pointer is
// itself.
func (p Pointer) ParentOf() Pointer {
	if len(p) == 0 {
		return p
	}
	parent := make(Pointer, len(p)-1)
	copy(parent, p[:len(p)-1])
	return parent
}

// LastToken returns the final token, or "" for the empty pointer.
func (p Pointer) LastToken() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// IsRoot reports whether the pointer addresses the document root.
func (p Pointer) IsRoot() bool { return len(p) == 0 }

// At navigates node according to the pointer's tokens and returns the
// node found there, or Missing if any token fails to resolve (an object
// key that doesn't exist, an array index out of range, or a traversal
// into a scalar).
func At(node any, p Pointer) any {
	cur := node
	for _, tok := range p {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[tok]
			if !ok {
				return Missing
			}
			cur = next
		case []any:
			idx, ok := ArrayIndex(tok, len(v))
			if !ok || idx >= len(v) {
				return Missing
			}
			cur = v[idx]
		default:
			return Missing
		}
	}
	return cur
}

// ArrayIndex decodes a pointer token as an array index. It accepts
// decimal integers without leading zeros (except the literal "0"), and
// treats "-" as the append position, reporting it as equal to length.
// The second return value is false for any other token.
func ArrayIndex(tok string, length int) (int, bool) {
	if tok == "-" {
		return length, true
	}
	if tok == "" {
		return 0, false
	}
	if tok == "0" {
		return 0, true
	}
	if tok[0] == '0' || tok[0] == '-' {
		return 0, false
	}
	n := 0
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
