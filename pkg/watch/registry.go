// Package watch implements the commit-watch registry: callers register
// interest in a (pattern, baseline revision) pair and are delivered the
// first commit past their baseline that touches a matching path,
// at-most-once. It is the hot path every commit fans out through.
package watch

import (
	"log"
	"sync"

	"github.com/kvrepo/notifycore/pkg/coreerr"
	"github.com/kvrepo/notifycore/pkg/pattern"
	"github.com/kvrepo/notifycore/pkg/revision"
)

// DefaultCapacity is the bucket map's default bound on idle pattern
// entries (not on live watches — see bucketMap).
const DefaultCapacity = 8192

// Registry fans out commit notifications to registered watches. All of
// its mutations of the bucket map happen inside one short critical
// section; futures and listeners are always completed after that
// section releases, so a caller's callback can never re-enter the
// registry under its own lock.
type Registry struct {
	mu         sync.Mutex
	buckets    *bucketMap
	nextHandle uint64
	closed     bool
}

// NewRegistry creates a Registry whose bucket map is bounded at
// capacity idle entries. Use DefaultCapacity absent a reason to pick
// something else.
func NewRegistry(capacity int) *Registry {
	return &Registry{buckets: newBucketMap(capacity)}
}

// Add registers a watch for pattern baselined at baseline. future and
// listener are both optional, but at least one should be non-nil or the
// registration is unobservable. If future is provided and the holder
// completes it (Cancel, or any other terminal completion) before the
// registry notifies it, the watch is unlinked from its bucket — lazily,
// via the future's completion hook, not by active polling.
func (r *Registry) Add(baseline revision.Revision, patternStr string, future *Future, listener Listener) (*Watch, error) {
	p, err := pattern.Compile(patternStr)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, &coreerr.RegistryClosed{}
	}
	r.nextHandle++
	w := &Watch{handle: r.nextHandle, pattern: p, baseline: baseline, future: future, listener: listener, state: StatePending}
	b := r.buckets.getOrCreate(p)
	b.watches[w.handle] = w
	r.mu.Unlock()

	if future != nil {
		future.onComplete(func() { r.unlink(w) })
	}
	return w, nil
}

// unlink removes w from its bucket if it is still there. It is safe to
// call more than once (notify and the future's completion hook can both
// try to unlink the same watch) and safe to call concurrently with
// notify/close.
func (r *Registry) unlink(w *Watch) {
	r.mu.Lock()
	if b, ok := r.buckets.get(w.pattern); ok {
		if _, present := b.watches[w.handle]; present {
			delete(b.watches, w.handle)
			if w.state == StatePending {
				w.state = StateCancelled
			}
			r.buckets.removeIfEmpty(b)
		}
	}
	r.mu.Unlock()
}

// Notify is called once per path a commit touched. Every watch whose
// pattern matches path and whose baseline is strictly older than
// revision is removed from its bucket and delivered revision, exactly
// once. Watches whose baseline is not older than revision are left in
// place for a future commit.
func (r *Registry) Notify(rev revision.Revision, path string) {
	var eligible []*Watch

	r.mu.Lock()
	if r.buckets.len() != 0 {
		r.buckets.all(func(b *bucket) {
			if !b.pattern.Matches(path) {
				return
			}
			for handle, w := range b.watches {
				if revision.IsEligible(w.baseline, rev) {
					delete(b.watches, handle)
					w.state = StateNotified
					eligible = append(eligible, w)
				} else {
					log.Printf("watch: not notifying handle %d, baseline %v not older than %v", handle, w.baseline, rev)
				}
			}
			r.buckets.removeIfEmpty(b)
		})
	}
	r.mu.Unlock()

	for _, w := range eligible {
		if w.future != nil {
			w.future.complete(rev, nil)
		}
		if w.listener != nil {
			w.listener.OnNotify(rev)
		}
	}
}

// Close terminates every outstanding watch. A watch whose listener opts
// out of failure propagation is dropped silently; every other watch is
// completed with cause's error. Close is idempotent — calling it again
// is a no-op.
func (r *Registry) Close(cause coreerr.ErrorFactory) {
	var failing []*Watch

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.buckets.all(func(b *bucket) {
		for handle, w := range b.watches {
			delete(b.watches, handle)
			if w.listener != nil && !w.listener.PropagatesFailure() {
				w.state = StateRemoved
				continue
			}
			w.state = StateNotified
			failing = append(failing, w)
		}
		r.buckets.removeIfEmpty(b)
	})
	r.mu.Unlock()

	if len(failing) == 0 {
		return
	}
	var err error
	if cause != nil {
		err = cause()
	} else {
		err = &coreerr.RegistryClosed{}
	}
	for _, w := range failing {
		if w.future != nil {
			w.future.complete(0, err)
		}
		if w.listener != nil {
			w.listener.OnFailure(err)
		}
	}
}
