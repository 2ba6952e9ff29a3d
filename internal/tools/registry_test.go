package tools_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/que-labs/quecore/internal/storage"
	"github.com/que-labs/quecore/internal/tools"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- EventPublisher stub ---

type stubPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *stubPublisher) Publish(eventType string, _ map[string]any) {
	p.mu.Lock()
	p.events = append(p.events, eventType)
	p.mu.Unlock()
}

func (p *stubPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// --- Tool stubs ---

type stubTool struct {
	name string
	res  tools.Result
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub" }
func (t *stubTool) Execute(_ context.Context, _ map[string]any) tools.Result {
	return t.res
}

type panicTool struct{}

func (t *panicTool) Name() string        { return "panicker" }
func (t *panicTool) Description() string { return "always panics" }
func (t *panicTool) Execute(_ context.Context, _ map[string]any) tools.Result {
	panic("tool exploded")
}

func TestRegistryRegisterAndCount(t *testing.T) {
	reg := tools.NewRegistry(newTestLogger(), nil)
	require.NoError(t, reg.Register(&stubTool{name: "a"}))
	require.NoError(t, reg.Register(&stubTool{name: "b"}))

	assert.Equal(t, 2, reg.Count())
	assert.Error(t, reg.Register(&stubTool{name: "a"}), "duplicate registration")

	infos := reg.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, "b", infos[1].Name)
}

func TestExecuteUnknownTool(t *testing.T) {
	reg := tools.NewRegistry(newTestLogger(), nil)

	_, err := reg.Execute(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, tools.ErrToolNotFound)
}

func TestExecutePublishesLifecycleEvents(t *testing.T) {
	pub := &stubPublisher{}
	reg := tools.NewRegistry(newTestLogger(), pub)
	require.NoError(t, reg.Register(&stubTool{name: "good", res: tools.OK("fine")}))
	require.NoError(t, reg.Register(&stubTool{name: "bad", res: tools.Fail("broken")}))

	res, err := reg.Execute(context.Background(), "good", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = reg.Execute(context.Background(), "bad", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "broken", res.Error)

	assert.Equal(t, []string{tools.EventToolExecuted, tools.EventToolFailed}, pub.published())
}

func TestExecuteRecoversPanic(t *testing.T) {
	reg := tools.NewRegistry(newTestLogger(), nil)
	require.NoError(t, reg.Register(&panicTool{}))

	res, err := reg.Execute(context.Background(), "panicker", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "tool exploded")
}

func TestCurrentTimeTool(t *testing.T) {
	tool := &tools.CurrentTimeTool{}

	res := tool.Execute(context.Background(), map[string]any{"timezone": "UTC"})
	require.True(t, res.Success)
	payload := res.Result.(map[string]any)
	assert.Equal(t, "UTC", payload["timezone"])
	_, err := time.Parse(time.RFC3339, payload["iso"].(string))
	assert.NoError(t, err)

	res = tool.Execute(context.Background(), map[string]any{"timezone": "Not/AZone"})
	assert.False(t, res.Success)
}

func TestSystemInfoTool(t *testing.T) {
	tool := &tools.SystemInfoTool{}

	res := tool.Execute(context.Background(), nil)
	require.True(t, res.Success)
	payload := res.Result.(map[string]any)
	assert.Equal(t, runtime.GOOS, payload["os"])

	res = tool.Execute(context.Background(), map[string]any{"what": "memory"})
	assert.True(t, res.Success)

	res = tool.Execute(context.Background(), map[string]any{"what": "bogus"})
	assert.False(t, res.Success)
}

func TestEchoTool(t *testing.T) {
	tool := &tools.EchoTool{}

	res := tool.Execute(context.Background(), map[string]any{"hello": "world"})
	require.True(t, res.Success)
	assert.Equal(t, map[string]any{"hello": "world"}, res.Result)

	res = tool.Execute(context.Background(), nil)
	require.True(t, res.Success)
	assert.Equal(t, map[string]any{}, res.Result)
}

func TestFileManagerTool(t *testing.T) {
	tool := &tools.FileManagerTool{}
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")

	res := tool.Execute(ctx, map[string]any{"action": "write", "path": path, "content": "hello"})
	require.True(t, res.Success, res.Error)

	res = tool.Execute(ctx, map[string]any{"action": "read", "path": path})
	require.True(t, res.Success, res.Error)
	payload := res.Result.(map[string]any)
	assert.Equal(t, "hello", payload["content"])

	res = tool.Execute(ctx, map[string]any{"action": "list", "path": dir})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.Result.(map[string]any)["count"])

	res = tool.Execute(ctx, map[string]any{"action": "delete", "path": path})
	require.True(t, res.Success, res.Error)

	res = tool.Execute(ctx, map[string]any{"action": "read", "path": path})
	assert.False(t, res.Success)

	res = tool.Execute(ctx, map[string]any{"action": "read"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "path")

	res = tool.Execute(ctx, map[string]any{"path": path})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "action")
}

func TestShellExecTool(t *testing.T) {
	tool := tools.NewShellExecTool(5 * time.Second)
	ctx := context.Background()

	res := tool.Execute(ctx, map[string]any{"command": "echo hi"})
	require.True(t, res.Success, res.Error)
	payload := res.Result.(map[string]any)
	assert.Equal(t, "hi\n", payload["stdout"])
	assert.Equal(t, 0, payload["exit_code"])

	res = tool.Execute(ctx, map[string]any{"command": "exit 3"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 3, res.Result.(map[string]any)["exit_code"])

	res = tool.Execute(ctx, map[string]any{})
	assert.False(t, res.Success)
}

func TestShellExecToolTimeout(t *testing.T) {
	tool := tools.NewShellExecTool(100 * time.Millisecond)

	res := tool.Execute(context.Background(), map[string]any{"command": "sleep 5"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "timed out")
}

func TestSettingsManagerTool(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "quecore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tool := tools.NewSettingsManagerTool(storage.NewSQLiteSettingsStore(db))
	ctx := context.Background()

	res := tool.Execute(ctx, map[string]any{"action": "set", "key": "theme", "value": "dark"})
	require.True(t, res.Success, res.Error)

	res = tool.Execute(ctx, map[string]any{"action": "get", "key": "theme"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "dark", res.Result.(map[string]any)["value"])

	res = tool.Execute(ctx, map[string]any{"action": "list"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.Result.(map[string]any)["count"])

	res = tool.Execute(ctx, map[string]any{"action": "delete", "key": "theme"})
	require.True(t, res.Success, res.Error)

	res = tool.Execute(ctx, map[string]any{"action": "get", "key": "theme"})
	assert.False(t, res.Success)

	res = tool.Execute(ctx, map[string]any{"action": "warp"})
	assert.False(t, res.Success)
}

func TestRegisterBuiltins(t *testing.T) {
	reg := tools.NewRegistry(newTestLogger(), nil)
	require.NoError(t, tools.RegisterBuiltins(reg, nil, 0))

	// Settings tool skipped without a store.
	assert.Equal(t, 5, reg.Count())
	assert.Nil(t, reg.Get("settings_manager"))
	assert.NotNil(t, reg.Get("echo"))
}
