package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kvrepo/notifycore/pkg/jsonpatch"
)

func mustTestPatch(t *testing.T, raw string) jsonpatch.Patch {
	t.Helper()
	p, err := jsonpatch.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return p
}

func jsonBody(raw string) io.Reader {
	return bytes.NewReader([]byte(raw))
}

// flushRecorder is an httptest.ResponseRecorder that also implements
// http.Flusher, needed to exercise the streaming GET handler.
type flushRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func newFlushRecorder() *flushRecorder {
	return &flushRecorder{ResponseRecorder: httptest.NewRecorder()}
}

func (f *flushRecorder) Flush() {}

func (f *flushRecorder) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ResponseRecorder.Write(b)
}

var _ http.Flusher = (*flushRecorder)(nil)
