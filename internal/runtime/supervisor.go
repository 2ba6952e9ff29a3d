// Package runtime composes the event bus, the periodic heartbeat, and the
// HTTP server into a supervised lifecycle with signal-driven shutdown.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/que-labs/quecore/internal/eventbus"
)

// Well-known event names produced by the supervisor. These are conventions,
// not an enforced schema.
const (
	EventRuntimeStarted   = "runtime.started"
	EventRuntimeStopping  = "runtime.stopping"
	EventRuntimeHeartbeat = "runtime.heartbeat"
)

// ToolCounter is the read-only view of the tool registry the supervisor
// needs for status reporting.
type ToolCounter interface {
	Count() int
}

// Runner is a blocking server started alongside the bus. Run must return
// after ctx is cancelled and its shutdown has completed.
type Runner interface {
	Run(ctx context.Context) error
}

// Status is the supervisor's status snapshot.
type Status struct {
	Running       bool           `json:"running"`
	ToolCount     int            `json:"tool_count"`
	EventBusStats eventbus.Stats `json:"eventbus_stats"`
}

// Config holds the supervisor configuration.
type Config struct {
	Bus    *eventbus.Bus
	Tools  ToolCounter // optional
	Logger *slog.Logger
	Host   string
	Port   int
	// HeartbeatInterval is the delay between heartbeat events. Values <= 0
	// fall back to 30 seconds.
	HeartbeatInterval time.Duration
}

// Supervisor orchestrates startup and orderly shutdown of the runtime.
type Supervisor struct {
	bus      *eventbus.Bus
	tools    ToolCounter
	server   Runner
	logger   *slog.Logger
	host     string
	port     int
	interval time.Duration

	cron    gocron.Scheduler
	running atomic.Bool
}

// New creates a Supervisor. Attach the HTTP server with AttachServer before
// calling Run; a supervisor without a server runs the bus and heartbeat only.
func New(cfg Config) *Supervisor {
	interval := cfg.HeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Supervisor{
		bus:      cfg.Bus,
		tools:    cfg.Tools,
		logger:   cfg.Logger,
		host:     cfg.Host,
		port:     cfg.Port,
		interval: interval,
	}
}

// AttachServer sets the blocking server started by Run. Must be called
// before Run.
func (s *Supervisor) AttachServer(r Runner) {
	s.server = r
}

// Run starts the event bus, the heartbeat, and the attached server, then
// blocks until ctx is cancelled (or the server fails) and performs the stop
// sequence. Calling Run on an already running supervisor is a no-op.
func (s *Supervisor) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	s.bus.Start()

	if err := s.startHeartbeat(); err != nil {
		s.running.Store(false)
		s.bus.Stop()
		return fmt.Errorf("starting heartbeat: %w", err)
	}

	errCh := make(chan error, 1)
	if s.server != nil {
		go func() {
			errCh <- s.server.Run(ctx)
		}()
	}

	s.bus.Publish(EventRuntimeStarted, map[string]any{
		"host":       s.host,
		"port":       s.port,
		"tool_count": s.toolCount(),
	}, eventbus.WithSource("runtime"))
	s.logger.Info("runtime started",
		"host", s.host, "port", s.port, "tool_count", s.toolCount())

	var runErr error
	if s.server != nil {
		select {
		case <-ctx.Done():
			// The server observes the same ctx; wait for its shutdown.
			runErr = <-errCh
		case err := <-errCh:
			runErr = err
		}
	} else {
		<-ctx.Done()
	}

	s.stop()
	return runErr
}

// stop performs the shutdown sequence: a best-effort stopping notification,
// heartbeat shutdown, then the bus.
func (s *Supervisor) stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}

	s.logger.Info("runtime shutting down")
	s.bus.Publish(EventRuntimeStopping, nil, eventbus.WithSource("runtime"))

	if s.cron != nil {
		if err := s.cron.Shutdown(); err != nil {
			s.logger.Warn("heartbeat shutdown failed", "error", err)
		}
	}

	s.bus.Stop()
	s.logger.Info("runtime stopped")
}

// startHeartbeat schedules the periodic heartbeat event, firing once
// immediately and then at every interval.
func (s *Supervisor) startHeartbeat() error {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	_, err = cron.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.heartbeatTick),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("scheduling heartbeat: %w", err)
	}

	cron.Start()
	s.cron = cron
	s.logger.Info("heartbeat started", "interval", s.interval)
	return nil
}

// heartbeatTick publishes one heartbeat event. Publish isolates handler
// failures, so a bad subscriber never terminates the heartbeat loop.
func (s *Supervisor) heartbeatTick() {
	s.bus.Publish(EventRuntimeHeartbeat, map[string]any{
		"timestamp": time.Now().UnixNano(),
		"status":    "running",
	}, eventbus.WithSource("runtime"))
}

// Status reports whether the runtime is running, the registered tool count,
// and the bus statistics snapshot.
func (s *Supervisor) Status() Status {
	return Status{
		Running:       s.running.Load(),
		ToolCount:     s.toolCount(),
		EventBusStats: s.bus.Stats(),
	}
}

func (s *Supervisor) toolCount() int {
	if s.tools == nil {
		return 0
	}
	return s.tools.Count()
}
