package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopOrdersByPriority(t *testing.T) {
	q := NewInMemoryQueue()

	require.NoError(t, q.Push(&Job{ID: "low", Priority: 1}))
	require.NoError(t, q.Push(&Job{ID: "high", Priority: 10}))
	require.NoError(t, q.Push(&Job{ID: "mid", Priority: 5}))

	assert.Equal(t, 3, q.Size())

	for _, want := range []string{"high", "mid", "low"} {
		job, err := q.Pop(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, job.ID)
	}
	assert.Equal(t, 0, q.Size())
}

func TestPopPreservesPushOrderWithinPriority(t *testing.T) {
	q := NewInMemoryQueue()

	require.NoError(t, q.Push(&Job{ID: "first", Priority: 5}))
	require.NoError(t, q.Push(&Job{ID: "second", Priority: 5}))

	job, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", job.ID)
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := NewInMemoryQueue()

	got := make(chan *Job, 1)
	go func() {
		job, err := q.Pop(context.Background())
		if err == nil {
			got <- job
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Push(&Job{ID: "late"}))

	select {
	case job := <-got:
		assert.Equal(t, "late", job.ID)
	case <-time.After(time.Second):
		t.Fatal("pop did not wake after push")
	}
}

func TestPopHonorsContextCancellation(t *testing.T) {
	q := NewInMemoryQueue()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job, err := q.Pop(ctx)
	assert.Nil(t, job)
	assert.ErrorIs(t, err, context.Canceled)

	// The queue stays usable after a cancelled waiter.
	require.NoError(t, q.Push(&Job{ID: "after"}))
	assert.Equal(t, 1, q.Size())
}

func TestCloseDrainsThenReportsClosed(t *testing.T) {
	q := NewInMemoryQueue()

	require.NoError(t, q.Push(&Job{ID: "pending"}))
	require.NoError(t, q.Close())

	job, err := q.Pop(context.Background())
	require.NoError(t, err, "jobs queued before close are still delivered")
	assert.Equal(t, "pending", job.ID)

	_, err = q.Pop(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestPushAfterCloseFails(t *testing.T) {
	q := NewInMemoryQueue()
	require.NoError(t, q.Close())

	err := q.Push(&Job{ID: "too-late"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestCloseWakesBlockedPoppers(t *testing.T) {
	q := NewInMemoryQueue()

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := q.Pop(context.Background())
			errs <- err
		}()
	}

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Close())

	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrQueueClosed)
		case <-time.After(time.Second):
			t.Fatal("blocked pop did not wake on close")
		}
	}
}
