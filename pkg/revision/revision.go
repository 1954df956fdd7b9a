// Package revision implements the total order over commit revisions,
// including HEAD resolution and the baseline-eligibility rule the watch
// registry relies on.
package revision

// Revision is a signed commit number. Values are >= 1 for concrete
// commits; Head is the sentinel meaning "latest known".
type Revision int64

// Head means "latest known revision". It must be resolved to a concrete
// Revision via Resolve before it can be compared.
const Head Revision = 0

// IsHead reports whether r is the HEAD sentinel.
func (r Revision) IsHead() bool { return r == Head }

// Resolve returns r unchanged unless it is Head, in which case it
// returns current.
func Resolve(r, current Revision) Revision {
	if r.IsHead() {
		return current
	}
	return r
}

// Compare returns -1, 0, or 1 as a is older than, equal to, or newer than
// b. Both must already be resolved (neither may be Head).
func Compare(a, b Revision) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IsEligible reports whether a watch registered at baseline should be
// delivered a commit at revision: strictly newer only. A baseline equal
// to or newer than revision is not eligible — such a watch must wait for
// the next commit.
func IsEligible(baseline, revision Revision) bool {
	return baseline < revision
}
