package recorder

import (
	"sync"
)

// Broadcaster fans published values out to every subscriber in publish
// order. Each subscriber has its own queue, so a slow reader never blocks
// the publisher or other readers. Values for which droppable returns true are
// discarded for a subscriber whose queue already holds limit entries; all
// other values are always delivered.
type Broadcaster[T any] struct {
	mu          sync.Mutex
	subscribers map[*subscriber[T]]struct{}
	limit       int
	droppable   func(T) bool
	stopped     bool
}

// NewBroadcaster returns a Broadcaster. A nil droppable keeps every value.
func NewBroadcaster[T any](limit int, droppable func(T) bool) *Broadcaster[T] {
	if limit < 1 {
		limit = 1
	}
	if droppable == nil {
		droppable = func(T) bool { return false }
	}
	return &Broadcaster[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		limit:       limit,
		droppable:   droppable,
	}
}

// Subscribe registers a new subscriber. The returned function unsubscribes
// and closes the channel; it is safe to call more than once. Subscribing to
// a stopped Broadcaster yields an already closed channel.
func (b *Broadcaster[T]) Subscribe() (<-chan T, func()) {
	s := &subscriber[T]{
		out:  make(chan T),
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		close(s.out)
		return s.out, func() {}
	}
	b.subscribers[s] = struct{}{}
	b.mu.Unlock()

	go s.pump()
	return s.out, func() { b.unsubscribe(s) }
}

func (b *Broadcaster[T]) unsubscribe(s *subscriber[T]) {
	b.mu.Lock()
	delete(b.subscribers, s)
	b.mu.Unlock()
	s.quitOnce.Do(func() { close(s.quit) })
}

// Publish queues msg for every current subscriber and returns without
// waiting for delivery. It reports how many subscribers dropped msg.
func (b *Broadcaster[T]) Publish(msg T) (dropped int) {
	drop := b.droppable(msg)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return 0
	}
	for s := range b.subscribers {
		if !s.push(msg, drop, b.limit) {
			dropped++
		}
	}
	return dropped
}

// Len returns the number of active subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Stop delivers what is already queued and then closes every subscriber
// channel. Later publishes are ignored.
func (b *Broadcaster[T]) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	for s := range b.subscribers {
		s.finish()
	}
	b.subscribers = nil
}

type subscriber[T any] struct {
	out      chan T
	wake     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once

	mu      sync.Mutex
	queue   []T
	closing bool
}

func (s *subscriber[T]) push(msg T, droppable bool, limit int) bool {
	s.mu.Lock()
	if droppable && len(s.queue) >= limit {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, msg)
	s.mu.Unlock()
	s.signal()
	return true
}

func (s *subscriber[T]) finish() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber[T]) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump is the only sender on out, so it owns closing it.
func (s *subscriber[T]) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			closing := s.closing
			s.mu.Unlock()
			if closing {
				return
			}
			select {
			case <-s.wake:
				continue
			case <-s.quit:
				return
			}
		}
		msg := s.queue[0]
		var zero T
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- msg:
		case <-s.quit:
			return
		}
	}
}
