package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/wI2L/jsondiff"

	"github.com/kvrepo/notifycore/pkg/jsonpatch"
)

// Mirror watches a directory of *.commit.json files and replays any
// externally written one into the commit store as a patch, diffed
// against the store's current value. It exists so an operator (or a
// colocated tool) can hand the store a whole new tree by dropping a
// file on disk, the same way the teacher's file watcher turned a
// ".braid" file write into a subscriber update — generalized here from
// "overwrite one resource" to "replay a diff against the live tree".
type Mirror struct {
	dir     string
	store   *CommitStore
	watcher *fsnotify.Watcher
}

// NewMirror creates a Mirror over dir, rooted at store. Call Start to
// begin watching; Close stops it.
func NewMirror(dir string, store *CommitStore) (*Mirror, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("mirror: create watcher: %w", err)
	}
	return &Mirror{dir: dir, store: store, watcher: watcher}, nil
}

// Start creates dir if needed, begins watching it, and returns once the
// watch is registered. Replay happens on a background goroutine.
func (m *Mirror) Start() error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("mirror: create %s: %w", m.dir, err)
	}
	if err := m.watcher.Add(m.dir); err != nil {
		return fmt.Errorf("mirror: watch %s: %w", m.dir, err)
	}
	go m.loop()
	return nil
}

// Close stops the underlying watcher.
func (m *Mirror) Close() error {
	return m.watcher.Close()
}

func (m *Mirror) loop() {
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".commit.json") || event.Op&fsnotify.Write != fsnotify.Write {
				continue
			}
			m.replay(event.Name)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("mirror: watcher error: %v", err)
		}
	}
}

// replay reads path, diffs its contents against the store's current
// value, and commits the resulting patch. An unchanged file (identical
// JSON) is a no-op, mirroring the teacher's hash-equality skip on
// unchanged resources.
func (m *Mirror) replay(path string) {
	next, err := os.ReadFile(path)
	if err != nil {
		log.Printf("mirror: read %s: %v", path, err)
		return
	}

	current, _ := m.store.Get()
	currentJSON, err := json.Marshal(current)
	if err != nil {
		log.Printf("mirror: marshal current value: %v", err)
		return
	}

	ops, err := jsondiff.CompareJSON(currentJSON, next)
	if err != nil {
		log.Printf("mirror: diff %s: %v", path, err)
		return
	}
	if len(ops) == 0 {
		return
	}

	patch := diffToPatch(ops)
	if _, err := m.store.Commit(patch); err != nil {
		log.Printf("mirror: replay %s: %v", path, err)
	}
}

func diffToPatch(ops []jsondiff.Operation) jsonpatch.Patch {
	patch := make(jsonpatch.Patch, 0, len(ops))
	for _, op := range ops {
		patch = append(patch, jsonpatch.Operation{
			Op:    jsonpatch.Op(op.Type),
			Path:  op.Path,
			From:  op.From,
			Value: op.Value,
		})
	}
	return patch
}

// SnapshotPath returns the file a Mirror watches for resourceID, for
// callers that want to write a snapshot for the mirror to pick up.
func (m *Mirror) SnapshotPath(resourceID string) string {
	resourceID = strings.TrimPrefix(resourceID, "/")
	return filepath.Join(m.dir, resourceID+".commit.json")
}
