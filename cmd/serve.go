package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/que-labs/quecore/internal/api"
	"github.com/que-labs/quecore/internal/config"
	"github.com/que-labs/quecore/internal/eventbus"
	"github.com/que-labs/quecore/internal/logger"
	"github.com/que-labs/quecore/internal/runtime"
	"github.com/que-labs/quecore/internal/server"
	"github.com/que-labs/quecore/internal/storage"
	"github.com/que-labs/quecore/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the quecore runtime",
	Long:  "Start the event bus, heartbeat, and HTTP API server, and run until interrupted.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "Host to bind to (overrides HOST env var)")
	serveCmd.Flags().Int("port", 0, "HTTP server port (overrides PORT env var)")
	serveCmd.Flags().Bool("debug", false, "Enable debug logging to stderr")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}

	debug, _ := cmd.Flags().GetBool("debug")
	level := cfg.SlogLevel()
	if debug {
		level = slog.LevelDebug
	}

	log, err := logger.NewSystemLogger(cfg.LogDir(), level, debug)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	db, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()
	settings := storage.NewSQLiteSettingsStore(db)

	bus := eventbus.New(
		eventbus.WithQueueSize(cfg.QueueSize),
		eventbus.WithLogger(log),
		eventbus.WithHandlerTimeout(cfg.HandlerTimeout()),
		eventbus.WithMetrics(prometheus.DefaultRegisterer),
	)

	registry := tools.NewRegistry(log, busPublisher{bus: bus})
	if err := tools.RegisterBuiltins(registry, settings, cfg.ShellTimeoutDuration()); err != nil {
		return err
	}

	sup := runtime.New(runtime.Config{
		Bus:               bus,
		Tools:             registry,
		Logger:            log,
		Host:              cfg.Host,
		Port:              cfg.Port,
		HeartbeatInterval: cfg.HeartbeatDuration(),
	})

	apiSrv := api.New(registry, sup, bus, settings, log)
	httpSrv := server.New(apiSrv, cfg.Host, cfg.Port, log, prometheus.DefaultGatherer)
	sup.AttachServer(httpSrv)

	fmt.Fprintf(os.Stderr, "quecore runtime listening on http://%s:%d (%d tools)\n",
		cfg.Host, cfg.Port, registry.Count())

	return sup.Run(ctx)
}

// busPublisher adapts the event bus to the tool registry's publisher
// interface.
type busPublisher struct {
	bus *eventbus.Bus
}

func (p busPublisher) Publish(eventType string, payload map[string]any) {
	p.bus.Publish(eventType, payload, eventbus.WithSource("tools"))
}
