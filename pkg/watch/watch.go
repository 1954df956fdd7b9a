package watch

import (
	"github.com/kvrepo/notifycore/pkg/pattern"
	"github.com/kvrepo/notifycore/pkg/revision"
)

// State is a Watch's position in its lifecycle: created Pending,
// transitions to Notified (success or failure) exactly once, or to
// Cancelled if the holder abandons its future first. Removed is the
// terminal bookkeeping state once the registry has unlinked it from its
// bucket.
type State int

const (
	StatePending State = iota
	StateNotified
	StateCancelled
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateNotified:
		return "notified"
	case StateCancelled:
		return "cancelled"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Listener lets an in-process caller observe a watch's resolution
// without going through a Future. PropagatesFailure controls close's
// behavior: a listener that returns false is dropped silently on close
// rather than having OnFailure invoked.
type Listener interface {
	OnNotify(rev revision.Revision)
	OnFailure(cause error)
	PropagatesFailure() bool
}

// Watch is the registry's bookkeeping for one registration: a pattern
// plus a baseline revision, with identity given by a monotonically
// assigned handle rather than object identity (so that two otherwise
// identical registrations remain distinct entries in a bucket).
type Watch struct {
	handle   uint64
	pattern  pattern.PathPattern
	baseline revision.Revision
	future   *Future
	listener Listener
	state    State
}

// Handle uniquely identifies this watch within its registry for the
// lifetime of the process.
func (w *Watch) Handle() uint64 { return w.handle }

// Pattern returns the compiled pattern this watch is registered under.
func (w *Watch) Pattern() pattern.PathPattern { return w.pattern }

// Baseline returns the revision this watch was registered with.
func (w *Watch) Baseline() revision.Revision { return w.baseline }

// State returns the watch's current lifecycle state. It is only
// meaningful when read under the registry's lock or after the watch's
// future has resolved.
func (w *Watch) State() State { return w.state }
