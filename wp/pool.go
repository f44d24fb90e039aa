package wp

import (
	"context"
	"errors"
	"sync"

	"github.com/segmentio/fasthash/fnv1a"
)

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("worker pool stopped")

// Pool runs tasks on a fixed set of workers. Tasks submitted with the same
// key always land on the same worker, so they run one at a time and in
// submission order.
type Pool struct {
	maxWorkers int
	taskQueues []chan func()
	wg         sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewPool(maxWorkers int, queueBuffer int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueBuffer < 1 {
		queueBuffer = 1
	}

	p := &Pool{
		maxWorkers: maxWorkers,
		taskQueues: make([]chan func(), maxWorkers),
	}

	for i := 0; i < maxWorkers; i++ {
		p.taskQueues[i] = make(chan func(), queueBuffer)
		p.wg.Add(1)
		go p.startWorker(p.taskQueues[i])
	}

	return p
}

func (p *Pool) startWorker(queue chan func()) {
	defer p.wg.Done()
	for task := range queue {
		task()
	}
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.maxWorkers
}

// Slot returns the worker index key hashes to.
func (p *Pool) Slot(key string) int {
	return int(fnv1a.HashString64(key) % uint64(p.maxWorkers))
}

// Submit queues task on the worker owning key, blocking while that queue is full.
func (p *Pool) Submit(key string, task func()) error {
	return p.SubmitContext(context.Background(), key, task)
}

// SubmitContext is Submit giving up with ctx's error when ctx is done before
// the queue has room.
func (p *Pool) SubmitContext(ctx context.Context, key string, task func()) error {
	if task == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.taskQueues[p.Slot(key)] <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop rejects new tasks and waits for the queued ones to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for _, q := range p.taskQueues {
		close(q)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
