package watch

import (
	"errors"
	"testing"

	"github.com/kvrepo/notifycore/pkg/pattern"
	"github.com/kvrepo/notifycore/pkg/revision"
)

func mustCompile(t *testing.T, s string) pattern.PathPattern {
	t.Helper()
	p, err := pattern.Compile(s)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", s, err)
	}
	return p
}

func mustResult(t *testing.T, f *Future) (revision.Revision, error) {
	t.Helper()
	select {
	case <-f.Done():
		return f.Result()
	default:
		t.Fatal("future not resolved")
		return 0, nil
	}
}

// Scenario 1: watch(baseline=5, "/a/**") + notify(6, "/a/b/c") completes
// with 6 and empties the bucket.
func TestNotifyDeliversAndEmptiesBucket(t *testing.T) {
	r := NewRegistry(DefaultCapacity)
	f := NewFuture()
	if _, err := r.Add(5, "/a/**", f, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	r.Notify(6, "/a/b/c")

	rev, err := mustResult(t, f)
	if err != nil || rev != 6 {
		t.Fatalf("got (%v, %v), want (6, nil)", rev, err)
	}
	if b, ok := r.buckets.get(mustCompile(t, "/a/**")); ok && !b.empty() {
		t.Error("bucket should be empty after delivery")
	}
}

// Scenario 2: watch(baseline=5, "/a/*") + notify(5, "/a/b") must not
// complete (baseline equal to revision is not eligible).
func TestNotifyDoesNotDeliverWhenBaselineNotOlder(t *testing.T) {
	r := NewRegistry(DefaultCapacity)
	f := NewFuture()
	if _, err := r.Add(5, "/a/*", f, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	r.Notify(5, "/a/b")

	select {
	case <-f.Done():
		t.Fatal("future should not have resolved")
	default:
	}
}

// Scenario 3: two watches on the same pattern both complete
// independently.
func TestNotifyDeliversToAllMatchingWatchesIndependently(t *testing.T) {
	r := NewRegistry(DefaultCapacity)
	f1, f2 := NewFuture(), NewFuture()
	if _, err := r.Add(1, "/x", f1, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Add(1, "/x", f2, nil); err != nil {
		t.Fatal(err)
	}
	r.Notify(2, "/x")

	for _, f := range []*Future{f1, f2} {
		rev, err := mustResult(t, f)
		if err != nil || rev != 2 {
			t.Fatalf("got (%v, %v), want (2, nil)", rev, err)
		}
	}
}

// Scenario 8: cancelling a watch's future before notify must stick; the
// registry must not double-complete it.
func TestCancelledWatchIsNotNotified(t *testing.T) {
	r := NewRegistry(DefaultCapacity)
	f := NewFuture()
	if _, err := r.Add(1, "/x", f, nil); err != nil {
		t.Fatal(err)
	}
	if !f.Cancel() {
		t.Fatal("Cancel should have won the race")
	}
	r.Notify(2, "/x")

	rev, err := mustResult(t, f)
	if !IsCancelled(err) {
		t.Fatalf("expected cancelled error, got (%v, %v)", rev, err)
	}
}

// Notify must not stop short after an earlier bucket in LRU order
// empties and unlinks itself: every matching bucket still has to be
// inspected in the same call, regardless of where in the list a
// preceding match was removed from.
func TestNotifyDeliversAcrossBucketsEvenWhenAnEarlierOneEmpties(t *testing.T) {
	r := NewRegistry(DefaultCapacity)
	f1, f2 := NewFuture(), NewFuture()

	// "/x" is inserted (and so is nearer the LRU head) before "/x,/y",
	// and notify's pass over the bucket list must still reach the
	// second bucket after unlinking the first as empty.
	if _, err := r.Add(1, "/x", f1, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Add(1, "/x,/y", f2, nil); err != nil {
		t.Fatal(err)
	}

	r.Notify(2, "/x")

	rev1, err1 := mustResult(t, f1)
	if err1 != nil || rev1 != 2 {
		t.Fatalf("f1: got (%v, %v), want (2, nil)", rev1, err1)
	}
	rev2, err2 := mustResult(t, f2)
	if err2 != nil || rev2 != 2 {
		t.Fatalf("f2: got (%v, %v), want (2, nil) - bucket after the emptied one was skipped", rev2, err2)
	}
}

func TestNotifySecondCallDoesNotRedeliver(t *testing.T) {
	r := NewRegistry(DefaultCapacity)
	f := NewFuture()
	if _, err := r.Add(1, "/x", f, nil); err != nil {
		t.Fatal(err)
	}
	r.Notify(2, "/x")
	first, _ := mustResult(t, f)

	// A second notify for the same path must not re-deliver to this
	// watch: it was already removed from its bucket.
	r.Notify(3, "/x")
	second, _ := mustResult(t, f)
	if first != second {
		t.Fatalf("future result changed across a second notify: %v -> %v", first, second)
	}
}

func TestCloseCompletesOutstandingWatchesWithCause(t *testing.T) {
	r := NewRegistry(DefaultCapacity)
	f := NewFuture()
	if _, err := r.Add(1, "/x", f, nil); err != nil {
		t.Fatal(err)
	}
	cause := errors.New("shutting down")
	r.Close(func() error { return cause })

	_, err := mustResult(t, f)
	if err != cause {
		t.Fatalf("got %v, want %v", err, cause)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	r := NewRegistry(DefaultCapacity)
	r.Close(func() error { return errors.New("first") })
	r.Close(func() error { t.Fatal("cause factory should not run on second close"); return nil })
}

func TestAddAfterCloseFails(t *testing.T) {
	r := NewRegistry(DefaultCapacity)
	r.Close(nil)
	if _, err := r.Add(1, "/x", NewFuture(), nil); err == nil {
		t.Fatal("expected error adding to a closed registry")
	}
}

type dropListener struct{ notified, failed bool }

func (l *dropListener) OnNotify(revision.Revision) { l.notified = true }
func (l *dropListener) OnFailure(error)            { l.failed = true }
func (l *dropListener) PropagatesFailure() bool     { return false }

func TestCloseDropsListenerThatDoesNotWantFailure(t *testing.T) {
	r := NewRegistry(DefaultCapacity)
	l := &dropListener{}
	if _, err := r.Add(1, "/x", nil, l); err != nil {
		t.Fatal(err)
	}
	r.Close(func() error { return errors.New("boom") })
	if l.failed {
		t.Error("listener opted out of failure propagation but was notified")
	}
}
