package state

import (
	"context"
	"sync"

	"forkful/internal/api"
)

// snapshot holds one slice's current value. Transitions build a new value and
// swap it under the lock, so readers never observe a partial update.
// Listeners run after the swap, outside the lock.
type snapshot[T any] struct {
	mu    sync.RWMutex
	value T
	clone func(T) T

	subsMu sync.Mutex
	subs   map[int]func(T)
	nextID int
}

func newSnapshot[T any](initial T, clone func(T) T) *snapshot[T] {
	return &snapshot[T]{value: initial, clone: clone, subs: make(map[int]func(T))}
}

func (s *snapshot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clone(s.value)
}

// apply runs a pure transition and returns the new value.
func (s *snapshot[T]) apply(transition func(T) T) T {
	s.mu.Lock()
	next := transition(s.value)
	s.value = next
	s.mu.Unlock()

	s.notify(next)
	return next
}

func (s *snapshot[T]) subscribe(fn func(T)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *snapshot[T]) notify(value T) {
	s.subsMu.Lock()
	fns := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(s.clone(value))
	}
}

// run drives a three-phase operation: pending before the call, then
// fulfilled with the result or rejected with a display message.
func run[S, R any](
	ctx context.Context,
	snap *snapshot[S],
	pending func(S) S,
	call func(context.Context) (R, error),
	fulfilled func(S, R) S,
	rejected func(S, string) S,
	fallback string,
) (R, error) {
	snap.apply(pending)
	result, err := call(ctx)
	if err != nil {
		msg := api.Message(err, fallback)
		snap.apply(func(s S) S { return rejected(s, msg) })
		var zero R
		return zero, err
	}
	snap.apply(func(s S) S { return fulfilled(s, result) })
	return result, nil
}
