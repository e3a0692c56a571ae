// Package store provides an observable value container.
//
// A Store holds one snapshot. Update replaces it with the result of a pure
// function and hands the new snapshot to every subscriber, in commit order.
// The store does no validation of its own.
package store

import (
	"sync"
)

// Subscriber receives published snapshots.
type Subscriber[T any] func(T)

// Store is safe for concurrent use. Subscribers are called without the
// lock held, so they may call Update or Get. An update made while a
// publication is in progress is queued and delivered after it.
type Store[T any] struct {
	mu         sync.Mutex
	value      T
	subs       map[uint64]Subscriber[T]
	order      []uint64
	nextID     uint64
	pending    []delivery[T]
	publishing bool
}

// delivery names subscribers by id so one removed before its turn is skipped.
type delivery[T any] struct {
	value T
	ids   []uint64
}

// New creates a store holding initial.
func New[T any](initial T) *Store[T] {
	return &Store[T]{
		value: initial,
		subs:  make(map[uint64]Subscriber[T]),
	}
}

// Get returns the current snapshot.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Subscribe registers fn and calls it with the current snapshot. The
// returned function removes the subscription; calling it twice is a no-op.
// Once it returns, fn receives no further snapshots, queued ones included.
// A call already in progress on another goroutine still completes.
func (s *Store[T]) Subscribe(fn Subscriber[T]) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.pending = append(s.pending, delivery[T]{value: s.value, ids: []uint64{id}})
	s.drainLocked()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Update commits fn(current) as the new snapshot and publishes it.
func (s *Store[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.value = fn(s.value)
	s.pending = append(s.pending, delivery[T]{value: s.value, ids: append([]uint64(nil), s.order...)})
	s.drainLocked()
}

// Set commits v as the new snapshot and publishes it.
func (s *Store[T]) Set(v T) {
	s.Update(func(T) T { return v })
}

// Len returns the number of active subscribers.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// drainLocked must be called with mu held; it releases mu before returning.
// Only one goroutine delivers at a time so subscribers observe snapshots in
// the order they were committed.
func (s *Store[T]) drainLocked() {
	if s.publishing {
		s.mu.Unlock()
		return
	}
	s.publishing = true
	for len(s.pending) > 0 {
		d := s.pending[0]
		s.pending = s.pending[1:]
		for _, id := range d.ids {
			fn, ok := s.subs[id]
			if !ok {
				continue
			}
			s.mu.Unlock()
			fn(d.value)
			s.mu.Lock()
		}
	}
	s.publishing = false
	s.mu.Unlock()
}
