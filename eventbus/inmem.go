package eventbus

import (
	"context"
	"sync"
)

var _ Bus = (*InMem)(nil)

// InMem delivers messages to the subscribers of a topic, each subscriber on
// its own goroutine and in publish order.
type InMem struct {
	mu     sync.RWMutex
	subs   map[string][]chan Message
	wg     sync.WaitGroup
	closed bool
}

func NewInMemBus() *InMem {
	return &InMem{
		subs: make(map[string][]chan Message),
	}
}

func (b *InMem) Publish(topic string, msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for _, ch := range b.subs[topic] {
		ch <- msg
	}
	return nil
}

func (b *InMem) Subscribe(topic string, handler MessageReceiver) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	ch := make(chan Message, 100)
	b.subs[topic] = append(b.subs[topic], ch)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for m := range ch {
			handler.Receive(context.Background(), m)
		}
	}()
	return nil
}

// Close stops accepting messages and waits for subscribers to drain.
func (b *InMem) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}
