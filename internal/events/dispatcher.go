package events

import (
	"context"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// CancelFunc removes a subscription. Safe to call more than once.
type CancelFunc func()

// Dispatcher interface allows event publication/subscription. Subscribe
// returns a cancellation handle so callers can detach without tearing
// down the dispatcher.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler) CancelFunc
}

type subscription struct {
	id      int
	handler EventHandler
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[EventType][]subscription
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]subscription),
	}
}

// Publish synchronously invokes handlers for the given event. Handler
// errors do not stop delivery to the remaining handlers.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subs := append([]subscription{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, sub := range subs {
		_ = sub.handler(ctx, event)
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) CancelFunc {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.listeners[eventType] = append(d.listeners[eventType], subscription{id: id, handler: handler})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		subs := d.listeners[eventType]
		for i, sub := range subs {
			if sub.id == id {
				d.listeners[eventType] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}
