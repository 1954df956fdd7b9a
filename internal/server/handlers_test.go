package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kvrepo/notifycore/internal/config"
	"github.com/kvrepo/notifycore/internal/store"
	"github.com/kvrepo/notifycore/pkg/watch"
)

func newTestServer(t *testing.T, initial string) (*Server, *store.CommitStore) {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(initial), &v); err != nil {
		t.Fatalf("unmarshal initial: %v", err)
	}
	cs := store.New(watch.NewRegistry(watch.DefaultCapacity), v)
	cfg := &config.Config{CORS: config.CORSConfig{}}
	return New(cfg, cs), cs
}

func TestHandleGetReturnsValueAndRevisionHeader(t *testing.T) {
	s, cs := newTestServer(t, `{"a":{"b":1}}`)
	if _, err := cs.Commit(mustTestPatch(t, `[{"op":"replace","path":"/a/b","value":2}]`)); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/repo/a/b", nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Revision") != "1" {
		t.Fatalf("Revision header = %q, want 1", rec.Header().Get("Revision"))
	}
	if rec.Body.String() != "2" {
		t.Fatalf("body = %q, want 2", rec.Body.String())
	}
}

func TestHandleGetMissingPathReturns404WithoutProxy(t *testing.T) {
	s, _ := newTestServer(t, `{}`)
	req := httptest.NewRequest(http.MethodGet, "/repo/missing", nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlePatchCommitsAndReturnsNewRevision(t *testing.T) {
	s, _ := newTestServer(t, `{"a":1}`)

	req := httptest.NewRequest(http.MethodPatch, "/repo", jsonBody(`[{"op":"replace","path":"/a","value":2}]`))
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Revision") != "1" {
		t.Fatalf("Revision header = %q, want 1", rec.Header().Get("Revision"))
	}
}

func TestHandlePatchConflictReturns409(t *testing.T) {
	s, _ := newTestServer(t, `{"a":1}`)

	req := httptest.NewRequest(http.MethodPatch, "/repo", jsonBody(`[{"op":"test","path":"/a","value":99}]`))
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleGetSubscribeStreamsSubsequentCommit(t *testing.T) {
	s, cs := newTestServer(t, `{"a":1}`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/repo/a", nil).WithContext(ctx)
	req.Header.Set("Subscribe", "true")
	rec := newFlushRecorder()

	go s.Routes().ServeHTTP(rec, req)

	time.Sleep(20 * time.Millisecond)
	if _, err := cs.Commit(mustTestPatch(t, `[{"op":"replace","path":"/a","value":2}]`)); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(rec.Body.String()) > 0 && countLines(rec.Body.String()) >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	if countLines(rec.Body.String()) < 2 {
		t.Fatalf("expected at least 2 stream frames, got body: %q", rec.Body.String())
	}
}

func TestBaselineFromRequestUsesRevisionHeaderWhenPresent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/repo/a", nil)
	req.Header.Set("Revision", "3")

	if got := baselineFromRequest(req, 7); got != 3 {
		t.Fatalf("baselineFromRequest = %v, want 3 (the header value, not the current revision 7)", got)
	}
}

func TestBaselineFromRequestFallsBackToCurrentRevision(t *testing.T) {
	cases := []string{"", "not-a-number"}
	for _, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/repo/a", nil)
		if header != "" {
			req.Header.Set("Revision", header)
		}
		if got := baselineFromRequest(req, 7); got != 7 {
			t.Fatalf("baselineFromRequest(%q) = %v, want fallback 7", header, got)
		}
	}
}

// A subscribing GET that supplies a stale "Revision" header must still
// be eligible for delivery on the very next commit - registering the
// watch at the header's baseline, not silently re-baselining to "now",
// is what SPEC_FULL.md's long-poll contract promises.
func TestHandleGetSubscribeWithRevisionHeaderStillDeliversNextCommit(t *testing.T) {
	s, cs := newTestServer(t, `{"a":1}`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/repo/a", nil).WithContext(ctx)
	req.Header.Set("Subscribe", "true")
	req.Header.Set("Revision", "0")
	rec := newFlushRecorder()

	go s.Routes().ServeHTTP(rec, req)

	time.Sleep(20 * time.Millisecond)
	if _, err := cs.Commit(mustTestPatch(t, `[{"op":"replace","path":"/a","value":2}]`)); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if countLines(rec.Body.String()) >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	if countLines(rec.Body.String()) < 2 {
		t.Fatalf("expected the commit to be delivered, got body: %q", rec.Body.String())
	}
}

func countLines(s string) int {
	n := 0
	for _, c := range s {
		if c == '\n' {
			n++
		}
	}
	return n
}
