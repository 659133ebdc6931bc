// Package stream provides in-process observable fan-out for view-state
// services: a state cell mutated by a single writer, republished to any
// number of subscribers over buffered channels.
package stream

import "sync"

// subscriber buffer; a consumer this far behind only needs the latest
// snapshot anyway, so newer values are dropped rather than blocking the
// publisher.
const subscriberBuffer = 32

// Subject fans values out to all current subscribers. Publish never blocks.
type Subject[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]chan T
	nextID uint64
	closed bool
}

// NewSubject creates an empty subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{subs: make(map[uint64]chan T)}
}

// Subscribe registers a consumer. The returned cancel function is
// idempotent and closes the channel.
func (s *Subject[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan T, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers v to every subscriber that has buffer room.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// Close terminates the subject; all subscriber channels are closed and
// later Publish calls are no-ops.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// Subscriptions collects cancel functions so a service can release every
// subscription it owns in one call.
type Subscriptions struct {
	mu      sync.Mutex
	cancels []func()
}

// Add registers a cancel function.
func (g *Subscriptions) Add(cancel func()) {
	g.mu.Lock()
	g.cancels = append(g.cancels, cancel)
	g.mu.Unlock()
}

// Clear runs and drops every registered cancel function.
func (g *Subscriptions) Clear() {
	g.mu.Lock()
	cancels := g.cancels
	g.cancels = nil
	g.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}
