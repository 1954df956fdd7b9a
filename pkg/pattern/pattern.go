// Package pattern implements the glob-like path pattern matcher used to
// filter watch buckets against changed paths. A pattern compiles once and
// is matched many times, so compilation does the expensive work (split,
// validate, trim) and matching stays a cheap walk.
package pattern

import (
	"strings"

	"github.com/kvrepo/notifycore/pkg/coreerr"
)

// PathPattern is a compiled, comma-separated set of glob alternatives.
// Two patterns compiled from equal source strings are Equal and hash the
// same, so they collide correctly as map keys in a watch registry's
// bucket map.
type PathPattern struct {
	raw          string
	alternatives [][]string // each alternative is its path split into segments
}

// Compile validates and compiles a pattern string. Each comma-separated
// alternative must be non-empty after trimming, must not contain a NUL
// byte, and must begin with "/".
func Compile(raw string) (PathPattern, error) {
	parts := strings.Split(raw, ",")
	alternatives := make([][]string, 0, len(parts))
	for _, part := range parts {
		alt := strings.TrimSpace(part)
		if alt == "" {
			return PathPattern{}, &coreerr.InvalidPattern{Pattern: raw, Reason: "empty alternative"}
		}
		if strings.IndexByte(alt, 0) >= 0 {
			return PathPattern{}, &coreerr.InvalidPattern{Pattern: raw, Reason: "contains NUL byte"}
		}
		if !strings.HasPrefix(alt, "/") {
			return PathPattern{}, &coreerr.InvalidPattern{Pattern: raw, Reason: "alternative must begin with '/'"}
		}
		alternatives = append(alternatives, splitSegments(alt))
	}
	return PathPattern{raw: normalized(alternatives), alternatives: alternatives}, nil
}

// MustCompile panics on an invalid pattern; useful for constants/tests.
func MustCompile(raw string) PathPattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func splitSegments(alt string) []string {
	// alt always begins with "/"; the leading empty segment from the
	// split is dropped so segments are indexed from the first path
	// component.
	segs := strings.Split(alt, "/")
	return segs[1:]
}

func normalized(alternatives [][]string) string {
	parts := make([]string, len(alternatives))
	for i, segs := range alternatives {
		parts[i] = "/" + strings.Join(segs, "/")
	}
	return strings.Join(parts, ",")
}

// String returns the normalized pattern text. Recompiling it yields an
// Equal pattern (compilation is idempotent).
func (p PathPattern) String() string { return p.raw }

// Equal reports whether two patterns were compiled from content-equal
// source, regardless of incidental whitespace differences in the original
// strings.
func (p PathPattern) Equal(other PathPattern) bool { return p.raw == other.raw }

// Key returns a value usable as a map key with the same equality as
// Equal. PathPattern itself is not comparable (it holds a slice, which
// is not map-key safe), so Key returns the normalized string.
func (p PathPattern) Key() string { return p.raw }

// Matches reports whether path matches any alternative of the pattern. A
// trailing "/" on path is not permitted and never matches.
func (p PathPattern) Matches(path string) bool {
	if path == "" || path[len(path)-1] == '/' || !strings.HasPrefix(path, "/") {
		return false
	}
	segs := strings.Split(path, "/")[1:]
	for _, alt := range p.alternatives {
		if matchSegments(alt, segs) {
			return true
		}
	}
	return false
}

// matchSegments matches a compiled alternative (pattern segments, where
// "*" matches exactly one segment and "**" matches zero or more) against
// the candidate path's segments. "**" backtracks: it tries the shortest
// span (zero segments) first and grows it until the rest of the pattern
// matches or all options are exhausted.
func matchSegments(pat, path []string) bool {
	if len(pat) == 0 {
		return len(path) == 0
	}
	head := pat[0]
	switch head {
	case "**":
		// Try consuming 0, 1, 2, ... segments with "**", then match the
		// remainder of the pattern against what's left.
		for consume := 0; consume <= len(path); consume++ {
			if matchSegments(pat[1:], path[consume:]) {
				return true
			}
		}
		return false
	case "*":
		if len(path) == 0 {
			return false
		}
		return matchSegments(pat[1:], path[1:])
	default:
		if len(path) == 0 || path[0] != head {
			return false
		}
		return matchSegments(pat[1:], path[1:])
	}
}
