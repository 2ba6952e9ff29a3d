package tools

import (
	"context"
	"os"
	"path/filepath"
	"sort"
)

// FileManagerTool performs basic file operations selected by the "action"
// argument: read, write, list, delete.
type FileManagerTool struct{}

func (t *FileManagerTool) Name() string { return "file_manager" }

func (t *FileManagerTool) Description() string {
	return "File operations. Argument 'action' selects: read, write, list, delete; 'path' is required, 'content' for write."
}

func (t *FileManagerTool) Execute(_ context.Context, args map[string]any) Result {
	action, ok := requireString(args, "action")
	if !ok {
		return Fail("missing required argument: action")
	}
	path, ok := requireString(args, "path")
	if !ok {
		return Fail("missing required argument: path")
	}

	switch action {
	case "read":
		return t.read(path)
	case "write":
		return t.write(path, stringArg(args, "content", ""))
	case "list":
		return t.list(path)
	case "delete":
		return t.delete(path)
	default:
		return Fail("unknown action %q, expected read, write, list, or delete", action)
	}
}

func (t *FileManagerTool) read(path string) Result {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-supplied by design
	if err != nil {
		return Fail("reading %q: %v", path, err)
	}
	return OK(map[string]any{
		"path":    path,
		"content": string(data),
		"size":    len(data),
	})
}

func (t *FileManagerTool) write(path, content string) Result {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return Fail("creating parent directory for %q: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return Fail("writing %q: %v", path, err)
	}
	return OK(map[string]any{
		"path":    path,
		"written": len(content),
	})
}

func (t *FileManagerTool) list(path string) Result {
	entries, err := os.ReadDir(path)
	if err != nil {
		return Fail("listing %q: %v", path, err)
	}

	names := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		names = append(names, map[string]any{
			"name":   e.Name(),
			"is_dir": e.IsDir(),
		})
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i]["name"].(string) < names[j]["name"].(string)
	})
	return OK(map[string]any{
		"path":    path,
		"entries": names,
		"count":   len(names),
	})
}

func (t *FileManagerTool) delete(path string) Result {
	if err := os.Remove(path); err != nil {
		return Fail("deleting %q: %v", path, err)
	}
	return OK(map[string]any{"path": path, "deleted": true})
}
