package eventbus

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultQueueSize = 1000

type busConfig struct {
	queueSize      int
	handlerTimeout time.Duration
	logger         *slog.Logger
	registerer     prometheus.Registerer
}

func defaultBusConfig() busConfig {
	return busConfig{
		queueSize: defaultQueueSize,
		logger:    slog.Default(),
	}
}

// Option configures a Bus at construction time.
type Option func(*busConfig)

// WithQueueSize sets the capacity of the pending-event queue. Values <= 0
// fall back to the default (1000).
func WithQueueSize(n int) Option {
	return func(c *busConfig) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithLogger sets the structured logger used for handler failures and
// dropped events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *busConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHandlerTimeout bounds each handler invocation. On expiry the
// invocation is recorded as a handler failure; the handler goroutine itself
// is left to finish on its own. Zero (the default) disables the bound, and a
// stalled handler then delays all subsequent events.
func WithHandlerTimeout(d time.Duration) Option {
	return func(c *busConfig) {
		if d > 0 {
			c.handlerTimeout = d
		}
	}
}

// WithMetrics registers prometheus counters for published, processed,
// dropped, and failed-handler events against reg. Without this option the
// bus only keeps its internal counters.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *busConfig) {
		c.registerer = reg
	}
}
