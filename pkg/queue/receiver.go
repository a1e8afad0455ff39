// Package queue provides the consumer side of the raw-news transports:
// receive one message at a time, and delete it once its effects are durable.
package queue

import "context"

// Message is one received queue message. Receipt is the transport's handle
// for deletion; Body is the opaque payload as published.
type Message struct {
	ID      string
	Receipt string
	Body    []byte
}

// Receiver pulls messages from a durable queue. Receive returns (nil, nil)
// when the queue is empty; visibility and redelivery are owned by the
// transport, not the application.
type Receiver interface {
	Receive(ctx context.Context) (*Message, error)
	Delete(ctx context.Context, msg *Message) error
}
