package service

import "sync"

// ---------------------------------------------------------------------------
// syncWaiter — correlation-ID-based rendezvous between a blocked tool call
// and an HTTP submit arriving on another goroutine.
// ---------------------------------------------------------------------------

// syncWaiter manages channel-based waiters keyed by request ID. Map deletion
// is the claim: whichever path (deliver or unregister) removes the entry owns
// the resolution, so a timeout and an external submit can never both resolve
// the same waiter.
type syncWaiter[T any] struct {
	mu      sync.Mutex
	waiters map[string]chan *T
}

func newSyncWaiter[T any]() *syncWaiter[T] {
	return &syncWaiter[T]{waiters: make(map[string]chan *T)}
}

// register creates a buffered channel for the given request ID.
func (w *syncWaiter[T]) register(requestID string) chan *T {
	ch := make(chan *T, 1)
	w.mu.Lock()
	w.waiters[requestID] = ch
	w.mu.Unlock()
	return ch
}

// unregister removes the waiter for the given request ID. Returns false when
// the entry was already claimed by deliver; in that case the payload is
// guaranteed to be sitting in the channel buffer.
func (w *syncWaiter[T]) unregister(requestID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.waiters[requestID]; !ok {
		return false
	}
	delete(w.waiters, requestID)
	return true
}

// deliver claims the waiter and sends the result. The send happens under the
// same lock as the claim, so an unregister that loses the race observes a
// fully delivered payload. Returns false if no waiter was registered.
func (w *syncWaiter[T]) deliver(requestID string, payload *T) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch, ok := w.waiters[requestID]
	if !ok {
		return false
	}
	delete(w.waiters, requestID)
	ch <- payload // buffer of 1, never blocks
	return true
}
