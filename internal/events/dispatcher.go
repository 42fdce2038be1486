package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrDispatcherClosed is returned by Publish after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type registry struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

func (r *registry) Subscribe(eventType EventType, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[eventType] = append(r.listeners[eventType], handler)
}

func (r *registry) handlers(eventType EventType) []EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]EventHandler{}, r.listeners[eventType]...)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	registry
}

// NewInMemoryDispatcher creates a dispatcher that runs handlers on the publishing goroutine.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{registry: registry{listeners: make(map[EventType][]EventHandler)}}
}

// Publish synchronously invokes handlers for the given event. Every handler
// runs even if an earlier one fails; the failures are joined.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, handler := range d.handlers(event.Type) {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AsyncDispatcher runs each handler on its own goroutine. Handlers see a
// context detached from the publisher's cancellation, so they can outlive
// the request that triggered them.
type AsyncDispatcher struct {
	registry
	logger *zap.Logger

	stateMu sync.Mutex
	closed  bool
	wg      sync.WaitGroup
}

// NewAsyncDispatcher creates a fire-and-forget dispatcher.
func NewAsyncDispatcher(logger *zap.Logger) *AsyncDispatcher {
	return &AsyncDispatcher{
		registry: registry{listeners: make(map[EventType][]EventHandler)},
		logger:   logger,
	}
}

// Publish schedules the handlers and returns immediately. Handler errors
// and panics are logged and never reach the publisher.
func (d *AsyncDispatcher) Publish(ctx context.Context, event Event) error {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	detached := context.WithoutCancel(ctx)
	for _, handler := range d.handlers(event.Type) {
		d.wg.Add(1)
		go d.run(detached, handler, event)
	}
	return nil
}

func (d *AsyncDispatcher) run(ctx context.Context, handler EventHandler, event Event) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(fmt.Errorf("panic: %v", r)),
			)
		}
	}()

	if err := handler(ctx, event); err != nil {
		d.logger.Warn("event handler failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}

// Close stops accepting events and waits for in-flight handlers until ctx is done.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.stateMu.Lock()
	d.closed = true
	d.stateMu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
