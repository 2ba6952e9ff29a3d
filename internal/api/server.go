// Package api implements the REST handlers for the quecore runtime: tool
// listing and invocation, runtime status, bus statistics, persisted settings,
// and a server-sent-events stream of bus events.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/que-labs/quecore/internal/eventbus"
	"github.com/que-labs/quecore/internal/runtime"
	"github.com/que-labs/quecore/internal/storage"
	"github.com/que-labs/quecore/internal/tools"
)

// StatusProvider exposes the supervisor's status snapshot to the API.
type StatusProvider interface {
	Status() runtime.Status
}

// Server holds all dependencies for the REST API handlers.
type Server struct {
	registry *tools.Registry
	status   StatusProvider
	bus      *eventbus.Bus
	settings storage.SettingsStore // optional
	logger   *slog.Logger
}

// New creates a new API Server backed by the provided collaborators.
// settings may be nil, in which case the settings endpoints return 404.
func New(registry *tools.Registry, status StatusProvider, bus *eventbus.Bus, settings storage.SettingsStore, logger *slog.Logger) *Server {
	return &Server{
		registry: registry,
		status:   status,
		bus:      bus,
		settings: settings,
		logger:   logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	// Tools
	r.Get("/tools", s.handleListTools)
	r.Post("/call", s.handleCallTool)

	// Runtime
	r.Get("/status", s.handleStatus)
	r.Get("/stats", s.handleStats)
	r.Get("/events", s.handleEventStream)

	// Settings
	if s.settings != nil {
		r.Get("/settings", s.handleListSettings)
		r.Get("/settings/{key}", s.handleGetSetting)
		r.Put("/settings/{key}", s.handleSetSetting)
		r.Delete("/settings/{key}", s.handleDeleteSetting)
	}
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	b, _ := json.Marshal(data)
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(b))
	if flusher != nil {
		flusher.Flush()
	}
}
