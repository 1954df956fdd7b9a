package watch

import (
	"sync"

	"github.com/kvrepo/notifycore/pkg/revision"
)

// Future is the single suspension primitive the registry exposes: a
// caller registers one with Add and either blocks on Done or selects on
// it alongside its own timeout/cancellation. It resolves exactly once,
// whichever of notify, close, or the caller's own Cancel gets there
// first; the loser's call is a no-op.
type Future struct {
	once sync.Once
	done chan struct{}
	rev  revision.Revision
	err  error

	hooksMu sync.Mutex
	hooks   []func()
}

// NewFuture creates a pending Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Done returns a channel that is closed once the future resolves.
func (f *Future) Done() <-chan struct{} { return f.done }

// Result returns the delivered revision and error. It should only be
// read after Done is closed; reading before that races with completion.
func (f *Future) Result() (revision.Revision, error) { return f.rev, f.err }

// Cancel resolves the future early, as if the holder abandoned it. It
// reports whether this call was the one that resolved it — a concurrent
// notify may have already won the race.
func (f *Future) Cancel() bool { return f.complete(0, errCancelled) }

var errCancelled = &cancelledError{}

type cancelledError struct{}

func (*cancelledError) Error() string { return "watch cancelled by holder" }

// IsCancelled reports whether err is the sentinel Cancel produces.
func IsCancelled(err error) bool {
	_, ok := err.(*cancelledError)
	return ok
}

// complete resolves the future exactly once and reports whether this
// call won the race. Registered hooks run exactly once, after the race
// is decided, outside of any lock the caller might be holding.
func (f *Future) complete(rev revision.Revision, err error) bool {
	won := false
	f.once.Do(func() {
		f.rev, f.err = rev, err
		won = true
	})
	if !won {
		return false
	}

	f.hooksMu.Lock()
	hooks := f.hooks
	f.hooks = nil
	close(f.done)
	f.hooksMu.Unlock()

	for _, h := range hooks {
		h()
	}
	return true
}

// onComplete registers fn to run once, right after the future resolves
// (by whichever caller wins). If the future has already resolved, fn
// runs synchronously before onComplete returns.
func (f *Future) onComplete(fn func()) {
	f.hooksMu.Lock()
	select {
	case <-f.done:
		f.hooksMu.Unlock()
		fn()
	default:
		f.hooks = append(f.hooks, fn)
		f.hooksMu.Unlock()
	}
}
