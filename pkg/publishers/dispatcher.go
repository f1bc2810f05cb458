package publishers

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultDispatchQueueSize = 256
	defaultDispatchWorkers   = 2
	defaultDispatchTimeout   = 5 * time.Second
)

var (
	// ErrQueueFull is returned when an event is dropped because the
	// dispatcher is saturated.
	ErrQueueFull = errors.New("publish queue is full")
	// ErrDispatcherClosed is returned for events handed in after Close.
	ErrDispatcherClosed = errors.New("dispatcher is closed")
)

// Sink receives events. Fanout and every Publisher satisfy it.
type Sink interface {
	Publish(ctx context.Context, evt Event) error
}

// DispatcherConfig bounds background delivery. Zero values use defaults.
type DispatcherConfig struct {
	QueueSize int
	Workers   int

	// Timeout caps each delivery to the sink.
	Timeout time.Duration
}

// Dispatcher hands events to a sink from background workers so callers
// never wait on delivery.
type Dispatcher struct {
	sink    Sink
	queue   chan Event
	timeout time.Duration
	log     Logger

	mu     sync.RWMutex
	closed bool
	g      errgroup.Group
}

// NewDispatcher starts the workers delivering to sink.
func NewDispatcher(sink Sink, cfg DispatcherConfig, log Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultDispatchQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultDispatchWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultDispatchTimeout
	}

	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan Event, cfg.QueueSize),
		timeout: cfg.Timeout,
		log:     ensureLogger(log),
	}
	for range cfg.Workers {
		d.g.Go(d.work)
	}
	return d
}

// Publish enqueues evt without blocking. The context is not used for
// delivery; each delivery gets its own deadline.
func (d *Dispatcher) Publish(_ context.Context, evt Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- evt:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) work() error {
	for evt := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.sink.Publish(ctx, evt)
		cancel()
		if err != nil {
			d.log.WarnObj("article event delivery failed", "dispatch_error", map[string]any{
				"article_id": evt.ID,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

// Close stops accepting events and waits until queued ones are delivered or
// ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = d.g.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
