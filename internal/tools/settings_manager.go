package tools

import (
	"context"
	"errors"

	"github.com/que-labs/quecore/internal/storage"
)

// SettingsManagerTool reads and writes persisted runtime settings. The
// "action" argument selects: get, set, delete, list.
type SettingsManagerTool struct {
	store storage.SettingsStore
}

// NewSettingsManagerTool creates the tool backed by the given store.
func NewSettingsManagerTool(store storage.SettingsStore) *SettingsManagerTool {
	return &SettingsManagerTool{store: store}
}

func (t *SettingsManagerTool) Name() string { return "settings_manager" }

func (t *SettingsManagerTool) Description() string {
	return "Persisted settings management. Argument 'action' selects: get, set, delete, list; 'key' and 'value' as needed."
}

func (t *SettingsManagerTool) Execute(ctx context.Context, args map[string]any) Result {
	action, ok := requireString(args, "action")
	if !ok {
		return Fail("missing required argument: action")
	}

	switch action {
	case "get":
		return t.get(ctx, args)
	case "set":
		return t.set(ctx, args)
	case "delete":
		return t.delete(ctx, args)
	case "list":
		return t.list(ctx)
	default:
		return Fail("unknown action %q, expected get, set, delete, or list", action)
	}
}

func (t *SettingsManagerTool) get(ctx context.Context, args map[string]any) Result {
	key, ok := requireString(args, "key")
	if !ok {
		return Fail("missing required argument: key")
	}
	value, err := t.store.Get(ctx, key)
	if errors.Is(err, storage.ErrSettingNotFound) {
		return Fail("setting %q not found", key)
	}
	if err != nil {
		return Fail("loading setting: %v", err)
	}
	return OK(map[string]any{"key": key, "value": value})
}

func (t *SettingsManagerTool) set(ctx context.Context, args map[string]any) Result {
	key, ok := requireString(args, "key")
	if !ok {
		return Fail("missing required argument: key")
	}
	value, ok := args["value"].(string)
	if !ok {
		return Fail("missing required argument: value")
	}
	if err := t.store.Set(ctx, key, value); err != nil {
		return Fail("saving setting: %v", err)
	}
	return OK(map[string]any{"key": key, "value": value})
}

func (t *SettingsManagerTool) delete(ctx context.Context, args map[string]any) Result {
	key, ok := requireString(args, "key")
	if !ok {
		return Fail("missing required argument: key")
	}
	if err := t.store.Delete(ctx, key); err != nil {
		return Fail("deleting setting: %v", err)
	}
	return OK(map[string]any{"key": key, "deleted": true})
}

func (t *SettingsManagerTool) list(ctx context.Context) Result {
	all, err := t.store.List(ctx)
	if err != nil {
		return Fail("listing settings: %v", err)
	}
	return OK(map[string]any{"settings": all, "count": len(all)})
}
