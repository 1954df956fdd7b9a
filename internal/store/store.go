// Package store implements the commit store: the in-memory tree that
// owns a repository's current JSON value
// and revision counter, and is the sole caller of the watch registry's
// Notify. It plays the role of "the storage engine" that spec.md names
// as an external collaborator of the notification core.
package store

import (
	"context"
	"sync"

	"github.com/kvrepo/notifycore/pkg/coreerr"
	"github.com/kvrepo/notifycore/pkg/jsonpatch"
	"github.com/kvrepo/notifycore/pkg/jsonpointer"
	"github.com/kvrepo/notifycore/pkg/revision"
	"github.com/kvrepo/notifycore/pkg/watch"
)

// CommitResult is returned by a successful Commit.
type CommitResult struct {
	Revision     revision.Revision
	ChangedPaths []string
	Value        any
}

// CommitStore serializes writers, applies their patches through the
// JSON Patch engine, and fans the resulting revision out through a
// watch Registry. Mirrors the teacher's mutex-guarded resource map: one
// lock covers the value and the revision counter together, so a reader
// of Get never observes a revision that doesn't yet correspond to the
// value it's paired with.
type CommitStore struct {
	mu       sync.Mutex
	value    any
	rev      revision.Revision
	registry *watch.Registry
	closed   bool
}

// New creates a CommitStore seeded with initial at revision 0 (so the
// first successful commit becomes revision 1), fanning notifications out
// through registry.
func New(registry *watch.Registry, initial any) *CommitStore {
	return &CommitStore{value: initial, registry: registry}
}

// Commit applies patch to the current value. On success it assigns the
// next revision, and notifies the registry once per path the patch
// touched. On failure — a JsonPatchConflict or TestFailed from the patch
// engine — the store's value and revision are left exactly as they
// were, and no notification is sent.
func (s *CommitStore) Commit(patch jsonpatch.Patch) (CommitResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return CommitResult{}, &coreerr.StorageClosed{Reason: "commit store is closed"}
	}

	newValue, err := jsonpatch.Apply(s.value, patch)
	if err != nil {
		s.mu.Unlock()
		return CommitResult{}, err
	}

	s.value = newValue
	s.rev++
	rev := s.rev
	changed := changedPaths(patch)
	s.mu.Unlock()

	for _, p := range changed {
		s.registry.Notify(rev, p)
	}
	return CommitResult{Revision: rev, ChangedPaths: changed, Value: newValue}, nil
}

// Get returns the current value and the revision it was committed at.
func (s *CommitStore) Get() (any, revision.Revision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.rev
}

// Watch registers baseline/pattern with the registry and blocks until
// either a matching commit notifies it or ctx is cancelled. A Head
// baseline is resolved against the store's current revision before
// registering, so "watch from now on" means exactly that.
func (s *CommitStore) Watch(ctx context.Context, baseline revision.Revision, pattern string) (revision.Revision, error) {
	if baseline.IsHead() {
		_, cur := s.Get()
		baseline = cur
	}

	future := watch.NewFuture()
	if _, err := s.registry.Add(baseline, pattern, future, nil); err != nil {
		return 0, err
	}

	select {
	case <-ctx.Done():
		future.Cancel()
		return 0, ctx.Err()
	case <-future.Done():
		return future.Result()
	}
}

// Close stops accepting commits and terminates every outstanding watch
// through the registry.
func (s *CommitStore) Close(cause coreerr.ErrorFactory) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.registry.Close(cause)
}

// changedPaths collects, in patch order but de-duplicated, every path a
// patch operation touches: its own path, plus (for move and copy) the
// source it read from. A root ("") path is reported as "/", since
// patterns — like paths — are always slash-rooted.
func changedPaths(patch jsonpatch.Patch) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(raw string) {
		p := normalize(raw)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, op := range patch {
		add(op.Path)
		if op.Op == jsonpatch.OpCopy || op.Op == jsonpatch.OpMove {
			add(op.From)
		}
	}
	return out
}

func normalize(raw string) string {
	if jsonpointer.Parse(raw).IsRoot() {
		return "/"
	}
	return raw
}
