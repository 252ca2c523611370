// Package event implements the intra-process observer-signal bus used by
// the entity graph, domains, and persistence manager.
//
// Unlike a double-buffered, next-tick event bus, this one delivers
// synchronously: external signals must fire from inside the mutation that
// caused them, so there is no buffer swap — Emit calls subscribers
// immediately, in registration order.
package event

import (
	"reflect"
	"sync"
)

// Bus dispatches typed signals synchronously to their subscribers.
type Bus struct {
	mu       sync.Mutex
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[reflect.Type][]any)}
}

// Emit delivers event to every handler subscribed to type T, in
// registration order, synchronously on the calling goroutine.
func Emit[T any](b *Bus, event T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	handlers := append([]any(nil), b.handlers[t]...)
	b.mu.Unlock()
	for _, h := range handlers {
		h.(func(T))(event)
	}
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}
