package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/wI2L/jsondiff"

	"github.com/kvrepo/notifycore/internal/utils"
	"github.com/kvrepo/notifycore/pkg/coreerr"
	"github.com/kvrepo/notifycore/pkg/jsonpatch"
	"github.com/kvrepo/notifycore/pkg/jsonpointer"
	"github.com/kvrepo/notifycore/pkg/revision"
)

// handleRepo dispatches a request under /repo to a read or a commit.
func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	if s.config.CORS.Enabled {
		s.addCORSHeaders(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	path := strings.TrimPrefix(r.URL.Path, "/repo")
	if path == "" {
		path = "/"
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r, path)
	case http.MethodPatch:
		s.handlePatch(w, r, path)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGet resolves path against the current document. If the path is
// absent and a proxy is configured, the request is forwarded instead of
// returning 404 — the same fallback the teacher used for mock files it
// didn't have locally. A "Subscribe: true" header upgrades the request
// into a long-lived stream of further changes under pattern (from the
// "pattern" query parameter, defaulting to an exact match on path).
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, path string) {
	value, rev := s.store.Get()
	node := jsonpointer.At(value, jsonpointer.Parse(path))
	if node == jsonpointer.Missing {
		if s.reverseProxy != nil {
			s.reverseProxy.ServeHTTP(w, r)
			return
		}
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Revision", strconv.FormatInt(int64(rev), 10))

	if !subscribeRequested(r) {
		body, err := json.Marshal(node)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("ETag", utils.CalculateHash(body))
		w.Write(body)
		return
	}

	s.stream(w, r, path, node, rev, baselineFromRequest(r, rev))
}

// baselineFromRequest reads the client-supplied "Revision" header a
// subscribing GET uses to resume a stream from a point in the past,
// falling back to the store's current revision when absent or malformed.
func baselineFromRequest(r *http.Request, current revision.Revision) revision.Revision {
	raw := r.Header.Get("Revision")
	if raw == "" {
		return current
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return current
	}
	return revision.Revision(n)
}

func subscribeRequested(r *http.Request) bool {
	v := r.Header.Get("Subscribe")
	return strings.EqualFold(v, "true")
}

// stream keeps the connection open, pushing a frame every time a commit
// touches a path matching pattern. initial is the value already resolved
// at rev; baseline (from the client's "Revision" header, or rev if
// absent) is where the watch loop starts waiting from - they differ when
// a client resumes from a revision older than the document's current
// one. It stops when the client disconnects or the store is closed.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, path string, initial any, rev, baseline revision.Revision) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = path
	}

	w.Header().Set("Subscribe", "true")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	lastJSON, err := json.Marshal(initial)
	if err != nil {
		return
	}
	writeFrame(w, Update{Revision: int64(rev), Body: lastJSON})
	flusher.Flush()

	ctx := r.Context()
	for {
		rev, err := s.store.Watch(ctx, baseline, pattern)
		if err != nil {
			return
		}

		value, _ := s.store.Get()
		node := jsonpointer.At(value, jsonpointer.Parse(path))
		if node == jsonpointer.Missing {
			node = nil
		}
		nextJSON, err := json.Marshal(node)
		if err != nil {
			return
		}

		ops, err := jsondiff.CompareJSON(lastJSON, nextJSON)
		frame := Update{Revision: int64(rev)}
		if err == nil && len(ops) > 0 {
			frame.Patches = diffToWireOps(ops)
		} else {
			frame.Body = nextJSON
		}
		writeFrame(w, frame)
		flusher.Flush()

		lastJSON = nextJSON
		baseline = rev
	}
}

func writeFrame(w io.Writer, u Update) {
	data, err := json.Marshal(u)
	if err != nil {
		return
	}
	w.Write(data)
	w.Write([]byte("\n"))
}

// handlePatch decodes a JSON Patch body and commits it. Conflicts and
// failed tests map to 409 with a body describing the pointer and reason;
// a closed store maps to 503.
func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request, path string) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	patch, err := jsonpatch.Parse(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.store.Commit(patch)
	if err != nil {
		writeCommitError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Revision", strconv.FormatInt(int64(result.Revision), 10))
	json.NewEncoder(w).Encode(result.Value)
}

func writeCommitError(w http.ResponseWriter, err error) {
	var conflict *coreerr.JsonPatchConflict
	var testFailed *coreerr.TestFailed
	var closed *coreerr.StorageClosed

	w.Header().Set("Content-Type", "application/json")
	switch {
	case errors.As(err, &conflict):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"kind":    "conflict",
			"pointer": conflict.Pointer,
			"reason":  conflict.Reason,
		})
	case errors.As(err, &testFailed):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"kind":     "test_failed",
			"pointer":  testFailed.Pointer,
			"expected": testFailed.Expected,
		})
	case errors.As(err, &closed):
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"kind": "closed", "reason": closed.Reason})
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
