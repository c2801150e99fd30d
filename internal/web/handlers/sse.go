package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/vfiala/photo-inspector/internal/session"
)

// isRunTerminal reports whether the run reached a final state.
func isRunTerminal(status session.Status) bool {
	return status == session.StatusCompleted ||
		status == session.StatusFailed ||
		status == session.StatusCancelled
}

// Events streams run progress via SSE until the run finishes or the
// client disconnects. An initial status event is sent immediately so a
// late subscriber sees the current state.
func (h *RunsHandler) Events(w http.ResponseWriter, r *http.Request) {
	run := h.lookup(w, r)
	if run == nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	eventCh := run.AddListener()
	defer run.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "status", runResponse(run))
	if isRunTerminal(run.Status()) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
			if isRunTerminal(run.Status()) {
				return
			}
		}
	}
}

// sendSSEEvent writes a single SSE event to the response.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
