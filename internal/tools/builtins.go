package tools

import (
	"fmt"
	"time"

	"github.com/que-labs/quecore/internal/storage"
)

// RegisterBuiltins registers the built-in tool set on the registry. The
// settings tool is skipped when store is nil.
func RegisterBuiltins(r *Registry, store storage.SettingsStore, shellTimeout time.Duration) error {
	builtins := []Tool{
		&CurrentTimeTool{},
		&SystemInfoTool{},
		&EchoTool{},
		&FileManagerTool{},
		NewShellExecTool(shellTimeout),
	}
	if store != nil {
		builtins = append(builtins, NewSettingsManagerTool(store))
	}

	for _, t := range builtins {
		if err := r.Register(t); err != nil {
			return fmt.Errorf("registering built-in tools: %w", err)
		}
	}
	return nil
}
