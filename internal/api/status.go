package api

import (
	"context"
	"net/http"

	"github.com/que-labs/quecore/internal/eventbus"
)

// handleStatus returns the supervisor status snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Status())
}

// handleStats returns the event bus statistics.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.bus.Stats())
}

// handleEventStream bridges bus events to the client as server-sent events.
// The query parameter "name" selects the event name to stream; it defaults
// to the runtime heartbeat.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "runtime.heartbeat"
	}

	events := make(chan eventbus.Event, 16)
	sub, err := s.bus.Subscribe(name, func(_ context.Context, e eventbus.Event) error {
		// A slow client must not stall sibling handlers; drop instead.
		select {
		case events <- e:
		default:
		}
		return nil
	}, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer s.bus.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-events:
			sendSSEEvent(w, flusher, e.Name, e)
		}
	}
}
