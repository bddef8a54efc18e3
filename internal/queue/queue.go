package queue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrQueueClosed = errors.New("queue is closed")

// Job is one URL waiting to be scraped.
type Job struct {
	ID        string
	URL       string
	Priority  int
	CreatedAt time.Time
}

type Queue interface {
	Push(job *Job) error
	Pop(ctx context.Context) (*Job, error)
	Size() int
	Close() error
}

// InMemoryQueue is a priority-ordered job queue. Pop blocks until a job
// arrives, the queue closes, or the context ends.
type InMemoryQueue struct {
	mu     sync.Mutex
	jobs   []*Job
	closed bool

	// notify carries at most one pending wakeup; waiters re-check the job
	// slice after every wake, so coalesced signals are safe.
	notify chan struct{}
	done   chan struct{}
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		jobs:   make([]*Job, 0),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (q *InMemoryQueue) Push(job *Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.jobs = append(q.jobs, job)
	q.sortByPriority()
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}

	return nil
}

func (q *InMemoryQueue) Pop(ctx context.Context) (*Job, error) {
	for {
		q.mu.Lock()
		if len(q.jobs) > 0 {
			job := q.jobs[0]
			q.jobs = q.jobs[1:]
			q.mu.Unlock()
			return job, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		case <-q.done:
		}
	}
}

func (q *InMemoryQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.done)
	}

	return nil
}

func (q *InMemoryQueue) sortByPriority() {
	sort.SliceStable(q.jobs, func(i, j int) bool {
		return q.jobs[i].Priority > q.jobs[j].Priority
	})
}
