package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// busMetrics holds the optional prometheus counters. A nil *busMetrics is
// valid and makes every method a no-op.
type busMetrics struct {
	published     prometheus.Counter
	processed     prometheus.Counter
	dropped       prometheus.Counter
	handlerErrors prometheus.Counter
}

func newBusMetrics(reg prometheus.Registerer) *busMetrics {
	factory := promauto.With(reg)
	return &busMetrics{
		published: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quecore",
			Subsystem: "eventbus",
			Name:      "events_published_total",
			Help:      "Events accepted onto the dispatch queue.",
		}),
		processed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quecore",
			Subsystem: "eventbus",
			Name:      "events_processed_total",
			Help:      "Events fully fanned out to asynchronous subscribers.",
		}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quecore",
			Subsystem: "eventbus",
			Name:      "events_dropped_total",
			Help:      "Events dropped because the dispatch queue was full.",
		}),
		handlerErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quecore",
			Subsystem: "eventbus",
			Name:      "handler_errors_total",
			Help:      "Subscriber handler failures, panics included.",
		}),
	}
}

func (m *busMetrics) incPublished() {
	if m != nil {
		m.published.Inc()
	}
}

func (m *busMetrics) incProcessed() {
	if m != nil {
		m.processed.Inc()
	}
}

func (m *busMetrics) incDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *busMetrics) incHandlerError() {
	if m != nil {
		m.handlerErrors.Inc()
	}
}
