package events

import "sync"

// Handler receives one event. Handlers run sequentially on the stream
// goroutine, so events are observed strictly in arrival order; handlers must
// not block for long and must not mutate the event.
type Handler func(Event)

// StateHandler observes connection health changes.
type StateHandler func(connected bool, errMsg string)

// Bus 单写多读的事件广播 / Bus is a single-writer multi-reader broadcast.
// It is an explicit injected object, not a package singleton, so tests can
// feed it synthetic events without a live stream.
type Bus struct {
	mu            sync.RWMutex
	handlers      []Handler
	stateHandlers []StateHandler

	connected bool
	lastErr   string
	lastEvent *Event
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for every subsequent event.
func (b *Bus) Subscribe(fn Handler) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, fn)
	b.mu.Unlock()
}

// SubscribeState registers a connection-health observer.
func (b *Bus) SubscribeState(fn StateHandler) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.stateHandlers = append(b.stateHandlers, fn)
	b.mu.Unlock()
}

// Publish delivers the event to every handler in registration order.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	evCopy := ev
	b.lastEvent = &evCopy
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// SetConnected records connection health and notifies state observers.
func (b *Bus) SetConnected(connected bool, errMsg string) {
	b.mu.Lock()
	changed := b.connected != connected || b.lastErr != errMsg
	b.connected = connected
	b.lastErr = errMsg
	handlers := append([]StateHandler(nil), b.stateHandlers...)
	b.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range handlers {
		fn(connected, errMsg)
	}
}

// Connected reports the current connection health and last error text.
func (b *Bus) Connected() (bool, string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected, b.lastErr
}

// LastEvent returns the most recently published event, if any.
func (b *Bus) LastEvent() (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.lastEvent == nil {
		return Event{}, false
	}
	return *b.lastEvent, true
}
