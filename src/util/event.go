package util

import (
	"context"
	"sync"
)

// An Eventer is a type that emits events through an Emitter.
type Eventer interface {
	Events() *Emitter
}

// Emitter broadcasts events to all current listeners.
//
// The zero value is ready for use.
type Emitter struct {
	listeners map[chan interface{}]context.Context
	lock      sync.RWMutex
}

// Emit sends an event to all listeners. It never blocks: listeners that are
// unable to keep up are skipped when their context is done.
func (emitter *Emitter) Emit(event interface{}) {
	emitter.lock.RLock()
	defer emitter.lock.RUnlock()
	for listener, ctx := range emitter.listeners {
		go func(listener chan interface{}, ctx context.Context) {
			select {
			case listener <- event:
			case <-ctx.Done():
			}
		}(listener, ctx)
	}
}

// Listen registers a new listener. The listener is removed when the context
// is cancelled.
func (emitter *Emitter) Listen(ctx context.Context) <-chan interface{} {
	emitter.lock.Lock()
	defer emitter.lock.Unlock()
	if emitter.listeners == nil {
		emitter.listeners = map[chan interface{}]context.Context{}
	}

	ch := make(chan interface{}, 16)
	emitter.listeners[ch] = ctx
	go func() {
		<-ctx.Done()
		emitter.lock.Lock()
		delete(emitter.listeners, ch)
		emitter.lock.Unlock()
	}()
	return ch
}

// Events implements the Eventer interface.
func (emitter *Emitter) Events() *Emitter {
	return emitter
}
