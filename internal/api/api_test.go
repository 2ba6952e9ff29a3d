package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/que-labs/quecore/internal/api"
	"github.com/que-labs/quecore/internal/eventbus"
	"github.com/que-labs/quecore/internal/runtime"
	"github.com/que-labs/quecore/internal/storage"
	"github.com/que-labs/quecore/internal/tools"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// stubStatus implements api.StatusProvider.
type stubStatus struct {
	status runtime.Status
}

func (s *stubStatus) Status() runtime.Status { return s.status }

// testHarness bundles the collaborators and router used by every test.
type testHarness struct {
	bus      *eventbus.Bus
	registry *tools.Registry
	settings storage.SettingsStore
	router   chi.Router
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	logger := newTestLogger()
	bus := eventbus.New(eventbus.WithLogger(logger))

	db, err := storage.Open(filepath.Join(t.TempDir(), "quecore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	settings := storage.NewSQLiteSettingsStore(db)

	registry := tools.NewRegistry(logger, nil)
	require.NoError(t, tools.RegisterBuiltins(registry, settings, time.Second))

	status := &stubStatus{status: runtime.Status{
		Running:   true,
		ToolCount: registry.Count(),
	}}

	srv := api.New(registry, status, bus, settings, logger)
	r := chi.NewRouter()
	srv.Mount(r)

	return &testHarness{
		bus:      bus,
		registry: registry,
		settings: settings,
		router:   r,
	}
}

func (h *testHarness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// ---------- Tools ----------

func TestListTools(t *testing.T) {
	h := newHarness(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/tools", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Tools []tools.Info `json:"tools"`
		Count int          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 6, body.Count)
	assert.Equal(t, "current_time", body.Tools[0].Name)
}

func TestCallTool(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantSuccess bool
	}{
		{
			name:        "echo succeeds",
			body:        `{"tool_name":"echo","args":{"msg":"hello"}}`,
			wantStatus:  http.StatusOK,
			wantSuccess: true,
		},
		{
			name:        "tool failure is carried in the envelope",
			body:        `{"tool_name":"file_manager","args":{"action":"read","path":"/does/not/exist"}}`,
			wantStatus:  http.StatusOK,
			wantSuccess: false,
		},
		{
			name:       "unknown tool",
			body:       `{"tool_name":"warp_drive"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "missing tool_name",
			body:       `{"args":{}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid body",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			req := httptest.NewRequest(http.MethodPost, "/call", strings.NewReader(tt.body))
			w := h.do(req)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp struct {
				Success  bool   `json:"success"`
				ToolName string `json:"tool_name"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantSuccess, resp.Success)
			assert.NotEmpty(t, resp.ToolName)
		})
	}
}

// ---------- Runtime ----------

func TestStatus(t *testing.T) {
	h := newHarness(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status runtime.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Running)
	assert.Equal(t, 6, status.ToolCount)
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	h.bus.Publish("some.event", nil)

	w := h.do(httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats eventbus.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.EventsPublished)
	assert.Equal(t, 1, stats.QueueSize)
}

func TestEventStream(t *testing.T) {
	h := newHarness(t)
	h.bus.Start()
	t.Cleanup(h.bus.Stop)

	srv := httptest.NewServer(h.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?name=job.done", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// The stream subscription is registered before the handler writes the
	// header, so a short settling wait is enough.
	require.Eventually(t, func() bool {
		return h.bus.Stats().AsyncSubscriberCount == 1
	}, 2*time.Second, 5*time.Millisecond)

	h.bus.Publish("job.done", map[string]any{"id": "42"})

	reader := bufio.NewReader(resp.Body)
	var eventLine, dataLine string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "event: ") {
			eventLine = line
		}
		if strings.HasPrefix(line, "data: ") {
			dataLine = line
			break
		}
	}

	assert.Equal(t, "event: job.done", eventLine)

	var e eventbus.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(dataLine, "data: ")), &e))
	assert.Equal(t, "job.done", e.Name)
}

// ---------- Settings ----------

func TestSettingsCRUD(t *testing.T) {
	h := newHarness(t)

	// Unknown key.
	w := h.do(httptest.NewRequest(http.MethodGet, "/settings/theme", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Create.
	req := httptest.NewRequest(http.MethodPut, "/settings/theme", strings.NewReader(`{"value":"dark"}`))
	w = h.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Read back.
	w = h.do(httptest.NewRequest(http.MethodGet, "/settings/theme", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "dark", got["value"])

	// List.
	w = h.do(httptest.NewRequest(http.MethodGet, "/settings", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	// Delete.
	w = h.do(httptest.NewRequest(http.MethodDelete, "/settings/theme", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(httptest.NewRequest(http.MethodGet, "/settings/theme", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettingsBadBody(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPut, "/settings/theme", strings.NewReader(`{`))
	w := h.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallToolExecutionTimeReported(t *testing.T) {
	h := newHarness(t)

	body := fmt.Sprintf(`{"tool_name":%q,"args":{"timezone":"UTC"}}`, "current_time")
	w := h.do(httptest.NewRequest(http.MethodPost, "/call", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ExecutionTimeMS float64 `json:"execution_time_ms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.ExecutionTimeMS, 0.0)
}
