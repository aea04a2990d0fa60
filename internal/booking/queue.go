package booking

import (
	"context"
)

// Handler processes one booking event taken from the queue.
type Handler func(ctx context.Context, event Event) error

// Producer publishes booking events.
type Producer interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Consumer drains booking events and hands them to a Handler.
type Consumer interface {
	Consume(ctx context.Context, workerCount int, handler Handler) error
	Close() error
}

// Queue combines both sides.
type Queue interface {
	Producer
	Consumer
}
