package tools

import (
	"context"
	"os"
	"runtime"
)

// SystemInfoTool answers system information queries. The "what" argument
// selects the section: overview (default), memory, or cpu.
type SystemInfoTool struct{}

func (t *SystemInfoTool) Name() string { return "system_info" }

func (t *SystemInfoTool) Description() string {
	return "Universal system information query. Argument 'what' selects: overview, memory, cpu."
}

func (t *SystemInfoTool) Execute(_ context.Context, args map[string]any) Result {
	what := stringArg(args, "what", "overview")

	switch what {
	case "overview":
		hostname, _ := os.Hostname()
		return OK(map[string]any{
			"os":           runtime.GOOS,
			"architecture": runtime.GOARCH,
			"hostname":     hostname,
			"cpu_count":    runtime.NumCPU(),
			"pid":          os.Getpid(),
		})
	case "memory":
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return OK(map[string]any{
			"heap_alloc_mb": float64(m.HeapAlloc) / (1 << 20),
			"heap_sys_mb":   float64(m.HeapSys) / (1 << 20),
			"num_gc":        m.NumGC,
		})
	case "cpu":
		return OK(map[string]any{
			"cpu_count":  runtime.NumCPU(),
			"goroutines": runtime.NumGoroutine(),
		})
	default:
		return Fail("unknown query %q, expected overview, memory, or cpu", what)
	}
}
