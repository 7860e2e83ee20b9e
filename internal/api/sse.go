package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/pressync/internal/sync"
)

// eventStream writes server-sent events, flushing after each one so the
// browser sees progress while the batch runs.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &eventStream{w: w, flusher: flusher}, nil
}

// send writes one named event with a JSON payload.
func (s *eventStream) send(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode progress event", "error", err)
		return
	}
	if _, err := s.w.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n")); err != nil {
		// Client went away; the batch keeps running to completion.
		slog.Warn("progress stream write failed", "error", err)
		return
	}
	s.flusher.Flush()
}

// sendProgress adapts the pipeline's progress callback onto the stream.
func (s *eventStream) sendProgress(event sync.ProgressEvent) {
	s.send("progress", event)
}
