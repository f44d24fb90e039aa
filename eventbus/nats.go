package eventbus

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
)

var _ Bus = (*NatsConn[Message])(nil)

// NatsConn publishes serialized messages on NATS subjects. Subscribers get
// the payload decoded as T.
type NatsConn[T Message] struct {
	nc      *nats.Conn
	onError func(topic string, err error)
}

func NewNatsBus[T Message](url string, opts ...nats.Option) (*NatsConn[T], error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NatsConn[T]{nc: nc}, nil
}

// OnDecodeError registers a callback for payloads that don't decode as T.
// Such messages are dropped.
func (eb *NatsConn[T]) OnDecodeError(fn func(topic string, err error)) {
	eb.onError = fn
}

func (eb *NatsConn[T]) Publish(topic string, msg Message) error {
	return eb.nc.Publish(topic, msg.Serialize())
}

func (eb *NatsConn[T]) Subscribe(topic string, handler MessageReceiver) error {
	_, err := eb.nc.Subscribe(topic, eb.consumedMessages(context.Background(), handler.Receive))
	return err
}

// Flush waits until the server has processed everything published so far
func (eb *NatsConn[T]) Flush() error {
	return eb.nc.Flush()
}

func (eb *NatsConn[T]) Close() error {
	if err := eb.nc.Drain(); err != nil {
		eb.nc.Close()
		return err
	}
	return nil
}

func (eb *NatsConn[T]) consumedMessages(ctx context.Context, receiver func(ctx context.Context, msg Message)) func(*nats.Msg) {
	return func(msg *nats.Msg) {
		decoded, err := deserialize[T](msg)
		if err != nil {
			if eb.onError != nil {
				eb.onError(msg.Subject, err)
			}
			return
		}
		receiver(ctx, decoded)
	}
}

func deserialize[T any](message *nats.Msg) (T, error) {
	var msg T
	err := json.Unmarshal(message.Data, &msg)
	return msg, err
}
