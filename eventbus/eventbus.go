package eventbus

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("event bus closed")

// Message is anything that can travel over a bus
type Message interface {
	Serialize() []byte
}

type Bus interface {
	Publish(topic string, msg Message) error
	Subscribe(topic string, handler MessageReceiver) error
	Close() error
}

type MessageReceiver interface {
	Receive(ctx context.Context, msg Message)
}

// ReceiverFunc adapts a function to MessageReceiver
type ReceiverFunc func(ctx context.Context, msg Message)

func (f ReceiverFunc) Receive(ctx context.Context, msg Message) {
	f(ctx, msg)
}
