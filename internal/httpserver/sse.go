package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// sseWriter wraps an http.ResponseWriter that has already been asserted to
// support flushing, and sets the SSE headers exactly once (spec.md §6).
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter asserts flush support and sets the SSE response headers.
// Returns an error if the underlying ResponseWriter can't flush — the
// caller should treat this as an internal fault (spec.md §7, taxonomy
// item 6), since it can only happen if httpserver is embedded under a
// non-standard transport.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing (http.Flusher)")
	}
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	return &sseWriter{w: w, flusher: flusher}, nil
}

// writeData emits a Chat-Completions-style `data: <json>\n\n` frame (no
// `event:` line, per spec.md §6).
func (s *sseWriter) writeData(payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", body); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// writeDone emits the literal `data: [DONE]` sentinel.
func (s *sseWriter) writeDone() error {
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// writeNamed emits a Responses/OpenResponses-style `event: <name>\ndata:
// <json>\n\n` pair (spec.md §6).
func (s *sseWriter) writeNamed(eventName string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", eventName, body); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
