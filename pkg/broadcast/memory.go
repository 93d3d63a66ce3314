package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryBroadcaster is an in-process Broadcaster. Delivery never blocks:
// a subscriber whose buffer is full misses the message.
type MemoryBroadcaster[T any] struct {
	mu     sync.RWMutex
	subs   map[*memorySubscriber[T]]struct{}
	buffer int
	closed bool

	dropped atomic.Int64
}

// NewMemoryBroadcaster creates a broadcaster with a per-subscriber buffer.
func NewMemoryBroadcaster[T any](buffer int) *MemoryBroadcaster[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &MemoryBroadcaster[T]{
		subs:   make(map[*memorySubscriber[T]]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a subscriber. It is removed when ctx ends or Close is called.
// Subscribing to a closed broadcaster yields a subscriber whose channel is closed.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	s := &memorySubscriber[T]{
		ch:     make(chan Message[T], b.buffer),
		done:   make(chan struct{}),
		parent: b,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		s.closeChan()
		return s
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
	return s
}

// Broadcast delivers msg to every subscriber with buffer space.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBroadcasterClosed
	}
	for s := range b.subs {
		select {
		case s.ch <- msg:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

// Subscribers returns the number of active subscribers.
func (b *MemoryBroadcaster[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (b *MemoryBroadcaster[T]) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes every subscriber. Further broadcasts fail with ErrBroadcasterClosed.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*memorySubscriber[T]]struct{})
	b.mu.Unlock()

	for s := range subs {
		s.closeChan()
	}
	return nil
}

func (b *MemoryBroadcaster[T]) remove(s *memorySubscriber[T]) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

type memorySubscriber[T any] struct {
	ch     chan Message[T]
	done   chan struct{}
	parent *MemoryBroadcaster[T]
	once   sync.Once
}

// closeChan closes the channels once. Close removes the subscriber under the
// write lock first, so no Broadcast can be sending at this point.
func (s *memorySubscriber[T]) closeChan() {
	s.once.Do(func() {
		close(s.ch)
		close(s.done)
	})
}

func (s *memorySubscriber[T]) Receive(context.Context) <-chan Message[T] {
	return s.ch
}

func (s *memorySubscriber[T]) Close() error {
	s.parent.remove(s)
	s.closeChan()
	return nil
}
