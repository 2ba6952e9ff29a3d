// Package tools implements the named-tool registry and the built-in tools.
// Each tool validates a loosely typed argument bag and normalizes its outcome
// into a uniform {success, result, error} envelope.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Event type constants for tool invocation notifications.
const (
	EventToolExecuted = "tool.executed"
	EventToolFailed   = "tool.failed"
)

// ErrToolNotFound is returned when invoking an unregistered tool name.
var ErrToolNotFound = errors.New("tool not found")

// Result is the uniform tool invocation envelope.
type Result struct {
	Success bool   `json:"success"`
	Result  any    `json:"result"`
	Error   string `json:"error,omitempty"`
}

// OK wraps a successful tool result.
func OK(v any) Result {
	return Result{Success: true, Result: v}
}

// Fail wraps a tool failure message.
func Fail(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Tool is a named operation invoked with an argument bag.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args map[string]any) Result
}

// Info describes a registered tool for listing purposes.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// EventPublisher lets the registry emit invocation events without depending
// on a concrete event bus implementation.
type EventPublisher interface {
	Publish(eventType string, payload map[string]any)
}

// Registry holds the registered tools and dispatches invocations by name.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]Tool
	logger    *slog.Logger
	publisher EventPublisher // optional
}

// NewRegistry creates an empty Registry. The publisher is optional; when set,
// tool.executed / tool.failed events are published for every invocation.
func NewRegistry(logger *slog.Logger, publisher EventPublisher) *Registry {
	return &Registry{
		tools:     make(map[string]Tool),
		logger:    logger,
		publisher: publisher,
	}
}

// Register adds a tool. Registering a duplicate name is an error.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[t.Name()]; ok {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Get returns the tool with the given name, or nil.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// List returns the registered tools sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	infos := make([]Info, 0, len(r.tools))
	for _, t := range r.tools {
		infos = append(infos, Info{Name: t.Name(), Description: t.Description()})
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Execute invokes the named tool. An unknown name returns ErrToolNotFound;
// every other failure is carried inside the Result envelope. A panicking
// tool is converted into a failure envelope.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (Result, error) {
	tool := r.Get(name)
	if tool == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}

	start := time.Now()
	res := r.safeExecute(ctx, tool, args)
	elapsed := time.Since(start)

	if res.Success {
		r.logger.Debug("tool executed", "tool", name, "duration", elapsed)
		r.publish(EventToolExecuted, map[string]any{
			"tool":        name,
			"duration_ms": elapsed.Milliseconds(),
		})
	} else {
		r.logger.Warn("tool failed", "tool", name, "error", res.Error)
		r.publish(EventToolFailed, map[string]any{
			"tool":  name,
			"error": res.Error,
		})
	}
	return res, nil
}

func (r *Registry) safeExecute(ctx context.Context, tool Tool, args map[string]any) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Fail("tool panicked: %v", rec)
		}
	}()
	return tool.Execute(ctx, args)
}

func (r *Registry) publish(eventType string, payload map[string]any) {
	if r.publisher != nil {
		r.publisher.Publish(eventType, payload)
	}
}
