package broadcast

import (
	"context"
	"errors"
)

var (
	ErrBroadcasterClosed = errors.New("broadcast: broadcaster closed")
	ErrSubscriberClosed  = errors.New("broadcast: subscriber closed")
)

// Message wraps a broadcast payload.
type Message[T any] struct {
	Data T
}

// Broadcaster fans messages out to every current subscriber.
type Broadcaster[T any] interface {
	Subscribe(ctx context.Context) Subscriber[T]
	Broadcast(ctx context.Context, msg Message[T]) error
	Close() error
}

// Subscriber receives broadcast messages.
type Subscriber[T any] interface {
	// Receive returns the message channel. It is closed when the subscriber
	// or the broadcaster is closed, or the subscription context ends.
	Receive(ctx context.Context) <-chan Message[T]
	Close() error
}
