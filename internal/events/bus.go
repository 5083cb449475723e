package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultEventBus is a thread-safe in-memory event bus with asynchronous
// delivery. Publishers never block on slow subscribers: events are queued and
// dispatched by a background goroutine.
type DefaultEventBus struct {
	mu            sync.RWMutex
	subscriptions map[EventType]map[SubscriptionID]EventHandler
	nextID        int64

	eventQueue chan Event
	stopCh     chan struct{}
	wg         sync.WaitGroup
	stopped    atomic.Bool
}

// NewEventBus creates a new event bus with the given queue size
func NewEventBus(queueSize int) *DefaultEventBus {
	if queueSize <= 0 {
		queueSize = 100
	}

	bus := &DefaultEventBus{
		subscriptions: make(map[EventType]map[SubscriptionID]EventHandler),
		eventQueue:    make(chan Event, queueSize),
		stopCh:        make(chan struct{}),
	}

	bus.wg.Add(1)
	go bus.processEvents()

	return bus
}

// Subscribe registers a handler for a specific event type
func (b *DefaultEventBus) Subscribe(eventType EventType, handler EventHandler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := SubscriptionID(atomic.AddInt64(&b.nextID, 1))

	if b.subscriptions[eventType] == nil {
		b.subscriptions[eventType] = make(map[SubscriptionID]EventHandler)
	}
	b.subscriptions[eventType][id] = handler

	return id
}

// Unsubscribe removes a subscription by ID
func (b *DefaultEventBus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, handlers := range b.subscriptions {
		delete(handlers, id)
	}
}

// Publish queues an event for delivery. Events published after Stop, or when
// the queue is full, are dropped silently.
func (b *DefaultEventBus) Publish(event Event) {
	if b.stopped.Load() {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventQueue <- event:
	case <-b.stopCh:
	default:
		// Queue full. Progress events are advisory; dropping beats blocking
		// the deploy loop.
	}
}

// Stop shuts down the bus and waits for queued events to be delivered
func (b *DefaultEventBus) Stop() {
	if b.stopped.Swap(true) {
		return
	}

	close(b.stopCh)
	b.wg.Wait()
}

// SubscriberCount returns how many handlers are registered for an event type
func (b *DefaultEventBus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions[eventType])
}

func (b *DefaultEventBus) processEvents() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventQueue:
			b.dispatch(event)
		case <-b.stopCh:
			// Drain whatever is still queued before exiting
			for {
				select {
				case event := <-b.eventQueue:
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

// dispatch delivers an event to all its subscribers synchronously, in
// subscription order not guaranteed
func (b *DefaultEventBus) dispatch(event Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.subscriptions[event.Type]))
	for _, handler := range b.subscriptions[event.Type] {
		handlers = append(handlers, handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.safeCall(handler, event)
	}
}

// safeCall invokes a handler, recovering from panics so a broken subscriber
// cannot kill the dispatch goroutine
func (b *DefaultEventBus) safeCall(handler EventHandler, event Event) {
	defer func() {
		_ = recover()
	}()
	handler(event)
}
