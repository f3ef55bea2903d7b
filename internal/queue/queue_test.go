package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopOrder(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	require.NoError(t, q.Push(&Task{OriginalID: "1", Name: "Aspirador"}))
	require.NoError(t, q.Push(&Task{OriginalID: "2", Name: "Coluna"}))
	assert.Equal(t, 2, q.Size())

	first, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", first.OriginalID)
	assert.False(t, first.EnqueuedAt.IsZero())

	second, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2", second.OriginalID)
	assert.Equal(t, 0, q.Size())
}

func TestPopDrainsClosedQueue(t *testing.T) {
	q := NewInMemoryQueue()
	require.NoError(t, q.Push(&Task{OriginalID: "1"}))
	require.NoError(t, q.Close())

	task, err := q.Pop(context.Background())
	require.NoError(t, err, "tasks pushed before close remain poppable")
	assert.Equal(t, "1", task.OriginalID)

	_, err = q.Pop(context.Background())
	assert.Equal(t, ErrQueueClosed, err)
}

func TestPushAfterClose(t *testing.T) {
	q := NewInMemoryQueue()
	require.NoError(t, q.Close())
	assert.Equal(t, ErrQueueClosed, q.Push(&Task{OriginalID: "1"}))
}

func TestPopRespectsContext(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPopSurvivesRepeatedTimeouts(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	// Timed-out waits must leave the queue's internal state intact, no matter
	// how many of them pile up.
	for i := 0; i < 500; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		_, err := q.Pop(ctx)
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}

	require.NoError(t, q.Push(&Task{OriginalID: "1"}))
	task, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", task.OriginalID)
}

func TestCancelledWaiterDoesNotSwallowWakeup(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := q.Pop(firstCtx)
		firstDone <- err
	}()

	secondDone := make(chan *Task, 1)
	go func() {
		task, err := q.Pop(context.Background())
		if err == nil {
			secondDone <- task
		}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelFirst()

	select {
	case err := <-firstDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled waiter never returned")
	}

	// The abandoned registration must not steal the wakeup from the waiter
	// that is still alive.
	require.NoError(t, q.Push(&Task{OriginalID: "7"}))

	select {
	case task := <-secondDone:
		assert.Equal(t, "7", task.OriginalID)
	case <-time.After(2 * time.Second):
		t.Fatal("surviving waiter never received the pushed task")
	}
}

func TestPopWakesOnPush(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	done := make(chan *Task, 1)
	go func() {
		task, err := q.Pop(context.Background())
		if err == nil {
			done <- task
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Push(&Task{OriginalID: "42"}))

	select {
	case task := <-done:
		assert.Equal(t, "42", task.OriginalID)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Pop never woke up")
	}
}
