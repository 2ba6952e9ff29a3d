// Package eventbus provides the in-memory pub/sub core of the quecore
// runtime. Synchronous subscribers run inline during publish, in
// registration order; asynchronous subscribers are fanned out concurrently
// by a single dispatcher goroutine draining a bounded FIFO queue.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrEmptyEventName is returned by Subscribe when the event name is empty.
	ErrEmptyEventName = errors.New("eventbus: empty event name")
	// ErrNilHandler is returned by Subscribe when the handler is nil.
	ErrNilHandler = errors.New("eventbus: nil handler")
)

// Subscription identifies one registered handler. The same function may be
// subscribed multiple times; each call yields a distinct Subscription.
type Subscription struct {
	id      uuid.UUID
	name    string
	handler Handler
	async   bool
}

// EventName returns the event name the subscription is registered for.
func (s *Subscription) EventName() string { return s.name }

// Async reports whether the subscription receives events via the dispatcher
// loop rather than inline during publish.
func (s *Subscription) Async() bool { return s.async }

// Stats is a point-in-time snapshot of bus counters.
type Stats struct {
	EventsPublished      uint64 `json:"events_published"`
	EventsProcessed      uint64 `json:"events_processed"`
	Errors               uint64 `json:"errors"`
	QueueSize            int    `json:"queue_size"`
	SubscriberCount      int    `json:"subscriber_count"`
	AsyncSubscriberCount int    `json:"async_subscriber_count"`
	Running              bool   `json:"running"`
}

// Bus routes events by name to synchronous and asynchronous subscribers.
// Construct with New; the zero value is not usable.
type Bus struct {
	mu        sync.RWMutex
	syncSubs  map[string][]*Subscription
	asyncSubs map[string][]*Subscription

	queue          chan Event
	logger         *slog.Logger
	handlerTimeout time.Duration
	metrics        *busMetrics

	published atomic.Uint64
	processed atomic.Uint64
	errCount  atomic.Uint64

	lifecycle sync.Mutex
	running   atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a stopped Bus. Call Start to launch the dispatcher loop;
// Publish works before Start but queued events are only fanned out while the
// loop runs.
func New(opts ...Option) *Bus {
	cfg := defaultBusConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Bus{
		syncSubs:       make(map[string][]*Subscription),
		asyncSubs:      make(map[string][]*Subscription),
		queue:          make(chan Event, cfg.queueSize),
		logger:         cfg.logger,
		handlerTimeout: cfg.handlerTimeout,
	}
	if cfg.registerer != nil {
		b.metrics = newBusMetrics(cfg.registerer)
	}
	return b
}

// Subscribe registers a handler for events with the given name. Handlers
// registered async=false run inline during publish in registration order;
// async handlers run concurrently in the dispatcher loop. Duplicate
// registrations are appended, not deduplicated.
func (b *Bus) Subscribe(name string, handler Handler, async bool) (*Subscription, error) {
	if name == "" {
		return nil, ErrEmptyEventName
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	sub := &Subscription{
		id:      uuid.New(),
		name:    name,
		handler: handler,
		async:   async,
	}

	b.mu.Lock()
	if async {
		b.asyncSubs[name] = append(b.asyncSubs[name], sub)
	} else {
		b.syncSubs[name] = append(b.syncSubs[name], sub)
	}
	b.mu.Unlock()

	b.logger.Debug("subscribed", "event", name, "async", async)
	return sub, nil
}

// Unsubscribe removes a subscription. Both subscriber lists are checked
// defensively; removing a subscription that is absent (or nil) is a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(b.syncSubs, sub)
	b.removeLocked(b.asyncSubs, sub)
}

// removeLocked deletes the first matching entry and drops the name's list
// when it becomes empty. Caller holds b.mu.
func (b *Bus) removeLocked(m map[string][]*Subscription, sub *Subscription) {
	subs, ok := m[sub.name]
	if !ok {
		return
	}
	for i, s := range subs {
		if s.id == sub.id {
			subs = append(subs[:i], subs[i+1:]...)
			if len(subs) == 0 {
				delete(m, sub.name)
			} else {
				m[sub.name] = subs
			}
			return
		}
	}
}

// ClearSubscribers removes every subscription from both lists.
func (b *Bus) ClearSubscribers() {
	b.mu.Lock()
	b.syncSubs = make(map[string][]*Subscription)
	b.asyncSubs = make(map[string][]*Subscription)
	b.mu.Unlock()
	b.logger.Info("all subscribers cleared")
}

// Publish delivers the event to synchronous subscribers inline, then
// enqueues it for asynchronous fan-out without blocking. If the queue is
// full the event is dropped and counted as an error; synchronous delivery
// has already happened at that point, so under backpressure sync and async
// subscribers can observe different event sets.
func (b *Bus) Publish(name string, payload any, opts ...PublishOption) {
	e := b.newEvent(name, payload, opts)
	b.deliverSync(context.Background(), e)

	select {
	case b.queue <- e:
		b.published.Add(1)
		b.metrics.incPublished()
	default:
		b.errCount.Add(1)
		b.metrics.incDropped()
		b.logger.Warn("event queue full, dropping event", "event", name)
	}
}

// PublishCtx is the blocking variant of Publish: after synchronous delivery
// it waits for queue capacity instead of dropping. It returns the context
// error if ctx is cancelled before the event is enqueued.
func (b *Bus) PublishCtx(ctx context.Context, name string, payload any, opts ...PublishOption) error {
	e := b.newEvent(name, payload, opts)
	b.deliverSync(ctx, e)

	select {
	case b.queue <- e:
		b.published.Add(1)
		b.metrics.incPublished()
		return nil
	case <-ctx.Done():
		b.errCount.Add(1)
		return ctx.Err()
	}
}

func (b *Bus) newEvent(name string, payload any, opts []PublishOption) Event {
	e := Event{
		Name:      name,
		Payload:   payload,
		Timestamp: time.Now(),
		Priority:  PriorityNormal,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// deliverSync invokes all synchronous subscribers in registration order.
// Failures are isolated per handler: logged, counted, never propagated.
func (b *Bus) deliverSync(ctx context.Context, e Event) {
	b.mu.RLock()
	subs := append([]*Subscription(nil), b.syncSubs[e.Name]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := b.call(ctx, sub.handler, e); err != nil {
			b.errCount.Add(1)
			b.metrics.incHandlerError()
			b.logger.Error("sync handler failed", "event", e.Name, "error", err)
		}
	}
}

// Start launches the dispatcher loop. Calling Start on a running bus is a
// no-op.
func (b *Bus) Start() {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()
	if b.running.Load() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	b.running.Store(true)

	go b.run(ctx)
	b.logger.Info("event bus started", "queue_capacity", cap(b.queue))
}

// Stop cancels the dispatcher loop and waits for it to exit. Cancellation is
// observed at the dequeue boundary, so an in-flight fan-out finishes before
// Stop returns. Calling Stop on a stopped bus is a no-op.
func (b *Bus) Stop() {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()
	if !b.running.Load() {
		return
	}

	b.cancel()
	<-b.done
	b.running.Store(false)
	b.logger.Info("event bus stopped")
}

// run drains the queue until ctx is cancelled. Each event's fan-out is
// awaited in full before the next dequeue, so fan-out is serialized across
// events even though handlers within one fan-out run concurrently.
func (b *Bus) run(ctx context.Context) {
	defer close(b.done)

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-b.queue:
			b.fanOut(e)
			b.processed.Add(1)
			b.metrics.incProcessed()
		}
	}
}

// fanOut invokes every asynchronous subscriber for the event concurrently
// and waits for all of them to settle. Handlers receive a background
// context so a bus stop does not abandon a partially notified set.
func (b *Bus) fanOut(e Event) {
	b.mu.RLock()
	subs := append([]*Subscription(nil), b.asyncSubs[e.Name]...)
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub *Subscription) {
			defer wg.Done()
			if err := b.call(context.Background(), sub.handler, e); err != nil {
				b.errCount.Add(1)
				b.metrics.incHandlerError()
				b.logger.Error("async handler failed", "event", e.Name, "error", err)
			}
		}(sub)
	}
	wg.Wait()
}

// call invokes one handler with panic recovery and, when configured, the
// per-handler timeout. A timed-out handler goroutine is left to finish on
// its own; its eventual result is discarded.
func (b *Bus) call(ctx context.Context, h Handler, e Event) error {
	if b.handlerTimeout <= 0 {
		return safeCall(ctx, h, e)
	}

	tctx, cancel := context.WithTimeout(ctx, b.handlerTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- safeCall(tctx, h, e)
	}()

	select {
	case err := <-errCh:
		return err
	case <-tctx.Done():
		return fmt.Errorf("handler timed out after %s", b.handlerTimeout)
	}
}

func safeCall(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, e)
}

// Stats returns a snapshot of the bus counters, queue depth, and subscriber
// counts.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	syncCount := 0
	for _, subs := range b.syncSubs {
		syncCount += len(subs)
	}
	asyncCount := 0
	for _, subs := range b.asyncSubs {
		asyncCount += len(subs)
	}
	b.mu.RUnlock()

	return Stats{
		EventsPublished:      b.published.Load(),
		EventsProcessed:      b.processed.Load(),
		Errors:               b.errCount.Load(),
		QueueSize:            len(b.queue),
		SubscriberCount:      syncCount,
		AsyncSubscriberCount: asyncCount,
		Running:              b.running.Load(),
	}
}
