package broadcast

import (
	"context"
	"sync"
)

// Message wraps a broadcast payload.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
type Subscriber[T any] interface {
	// Receive returns the channel messages are delivered on. The channel is
	// closed when the subscriber is closed or its broadcaster shuts down.
	Receive(ctx context.Context) <-chan Message[T]

	// Close stops delivery and closes the receive channel. Idempotent.
	Close() error
}

// Broadcaster fans messages out to every active subscriber.
// Delivery never blocks the sender: a subscriber whose buffer is full is
// dropped instead.
type Broadcaster[T any] interface {
	// Subscribe registers a new subscriber. Cancelling ctx unsubscribes it.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast delivers msg to all current subscribers.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close closes all subscribers; later broadcasts are no-ops.
	Close() error
}

type subscriber[T any] struct {
	ch     chan Message[T]
	closed bool
	mu     sync.RWMutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{ch: make(chan Message[T], bufferSize)}
}

func (s *subscriber[T]) Receive(context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send reports false when the message could not be delivered.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
