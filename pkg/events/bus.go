package events

import (
	"log/slog"
	"sync"

	"github.com/jedundon/card-game-pdf-transformer-sub005/internal/logging"
)

// Listener receives events from a Bus.
type Listener func(Event)

type subscriber struct {
	id uint64
	fn Listener
}

// Bus is a synchronous publish/subscribe hub. Delivery for one emission is
// ordered: type-specific listeners in subscription order, then global
// listeners in subscription order. A panicking listener is recovered and
// logged; remaining listeners still receive the event.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	byType map[Type][]subscriber
	global []subscriber
	log    *slog.Logger
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		byType: make(map[Type][]subscriber),
		log:    logging.L(),
	}
}

// On subscribes fn to one event type. The returned closure unsubscribes;
// calling it more than once is a no-op.
func (b *Bus) On(t Type, fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.byType[t] = append(b.byType[t], subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.byType[t] = remove(b.byType[t], id)
		})
	}
}

// OnAny subscribes fn to every event. The returned closure unsubscribes;
// calling it more than once is a no-op.
func (b *Bus) OnAny(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.global = append(b.global, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.global = remove(b.global, id)
		})
	}
}

// Emit delivers e synchronously to all matching listeners.
func (b *Bus) Emit(e Event) {
	b.mu.Lock()
	typed := append([]subscriber(nil), b.byType[e.Kind()]...)
	global := append([]subscriber(nil), b.global...)
	b.mu.Unlock()

	for _, s := range typed {
		b.deliver(s, e)
	}
	for _, s := range global {
		b.deliver(s, e)
	}
}

func (b *Bus) deliver(s subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event listener panicked", "event", string(e.Kind()), "panic", r)
		}
	}()
	s.fn(e)
}

// RemoveAllListeners clears the listeners for the given types. With no
// arguments it clears every type-specific list and the global list.
func (b *Bus) RemoveAllListeners(types ...Type) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(types) == 0 {
		b.byType = make(map[Type][]subscriber)
		b.global = nil
		return
	}
	for _, t := range types {
		delete(b.byType, t)
	}
}

func remove(subs []subscriber, id uint64) []subscriber {
	for i, s := range subs {
		if s.id == id {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}
