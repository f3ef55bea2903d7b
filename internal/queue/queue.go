package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrQueueEmpty  = errors.New("queue is empty")
	ErrQueueClosed = errors.New("queue is closed")
)

// Task is one product waiting to be looked up on Worten.
type Task struct {
	OriginalID string
	EAN        string
	Name       string
	EnqueuedAt time.Time
}

type Queue interface {
	Push(task *Task) error
	Pop(ctx context.Context) (*Task, error)
	Size() int
	Close() error
}

// InMemoryQueue is a FIFO task queue. Pop blocks until a task arrives, the
// queue closes or the context ends. Blocked waiters are woken through
// per-waiter channels registered under the lock, so a cancelled Pop never
// touches synchronization state it does not own.
type InMemoryQueue struct {
	tasks   []*Task
	mu      sync.Mutex
	waiters []chan struct{}
	closed  bool
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		tasks: make([]*Task, 0),
	}
}

func (q *InMemoryQueue) Push(task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}
	q.tasks = append(q.tasks, task)
	q.wakeOne()

	return nil
}

func (q *InMemoryQueue) Pop(ctx context.Context) (*Task, error) {
	q.mu.Lock()
	for {
		if len(q.tasks) > 0 {
			task := q.tasks[0]
			q.tasks = q.tasks[1:]
			q.mu.Unlock()
			return task, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, ErrQueueClosed
		}

		ready := make(chan struct{})
		q.waiters = append(q.waiters, ready)
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			q.abandonWait(ready)
			return nil, ctx.Err()
		case <-ready:
		}

		q.mu.Lock()
	}
}

func (q *InMemoryQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	for _, w := range q.waiters {
		close(w)
	}
	q.waiters = nil

	return nil
}

// wakeOne signals the oldest waiter. Caller holds the lock.
func (q *InMemoryQueue) wakeOne() {
	if len(q.waiters) > 0 {
		close(q.waiters[0])
		q.waiters = q.waiters[1:]
	}
}

// abandonWait deregisters a waiter whose context ended. If the waiter was
// already signaled, the wakeup it consumed is passed on so no Push is lost.
func (q *InMemoryQueue) abandonWait(ready chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, w := range q.waiters {
		if w == ready {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return
		}
	}
	q.wakeOne()
}
