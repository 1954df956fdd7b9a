package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kvrepo/notifycore/pkg/watch"
)

func TestMirrorReplaysWrittenSnapshot(t *testing.T) {
	dir := t.TempDir()
	s := New(watch.NewRegistry(watch.DefaultCapacity), decode(t, `{"a":1}`))

	m, err := NewMirror(dir, s)
	if err != nil {
		t.Fatalf("NewMirror: %v", err)
	}
	defer m.Close()
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	path := m.SnapshotPath("/root")
	if err := os.WriteFile(path, []byte(`{"a":2}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, rev := s.Get()
		if rev == 1 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	value, rev := s.Get()
	if rev != 1 {
		t.Fatalf("revision = %v, want 1", rev)
	}
	if m, ok := value.(map[string]any); !ok || m["a"].(float64) != 2 {
		t.Fatalf("value = %#v", value)
	}
}

func TestSnapshotPathJoinsDirAndResourceID(t *testing.T) {
	dir := t.TempDir()
	s := New(watch.NewRegistry(watch.DefaultCapacity), decode(t, `{}`))
	m, err := NewMirror(dir, s)
	if err != nil {
		t.Fatalf("NewMirror: %v", err)
	}
	defer m.Close()

	want := filepath.Join(dir, "a/b.commit.json")
	if got := m.SnapshotPath("/a/b"); got != want {
		t.Fatalf("SnapshotPath = %q, want %q", got, want)
	}
}
