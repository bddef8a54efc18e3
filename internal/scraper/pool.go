package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finchdev/ffe-scraper/internal/models"
	"github.com/finchdev/ffe-scraper/internal/queue"
)

// Result is the outcome of one queued job. Either Record or Err is set.
type Result struct {
	Job    *queue.Job
	Record *models.ProductRecord
	Err    error
}

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// JobState is the queryable view of one job's progress. Record is set once
// the job is done; Error once it failed.
type JobState struct {
	ID        string                `json:"id"`
	URL       string                `json:"url"`
	Status    JobStatus             `json:"status"`
	Record    *models.ProductRecord `json:"record,omitempty"`
	Error     string                `json:"error,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// ResultHandler receives results as workers finish; the service binary
// persists them. Handlers run on worker goroutines and should be quick.
type ResultHandler func(ctx context.Context, res *Result)

// Pool drains the job queue with a small fixed set of workers. Each
// worker holds at most one browser page at a time, so the worker count
// stays single-digit; more concurrency raises anti-bot blocking risk
// faster than it raises throughput.
type Pool struct {
	svc        *Service
	q          queue.Queue
	workers    int
	jobTimeout time.Duration
	handler    ResultHandler
	logger     *slog.Logger
	wg         sync.WaitGroup

	mu        sync.RWMutex
	states    map[string]*JobState
	order     []string
	maxStates int
}

// defaultMaxTrackedJobs bounds the state tracker; finished states carry
// full records (embedded image payload included), so they cannot be kept
// for the life of the daemon.
const defaultMaxTrackedJobs = 1000

func NewPool(svc *Service, q queue.Queue, workers int, jobTimeout time.Duration, handler ResultHandler) *Pool {
	if workers < 1 {
		workers = 1
	}
	if jobTimeout == 0 {
		jobTimeout = 60 * time.Second
	}
	return &Pool{
		svc:        svc,
		q:          q,
		workers:    workers,
		jobTimeout: jobTimeout,
		handler:    handler,
		logger:     slog.Default().With("component", "pool"),
		states:     make(map[string]*JobState),
		maxStates:  defaultMaxTrackedJobs,
	}
}

// Enqueue queues one URL and returns its job id.
func (p *Pool) Enqueue(url string, priority int) (string, error) {
	job := &queue.Job{
		ID:        uuid.New().String(),
		URL:       url,
		Priority:  priority,
		CreatedAt: time.Now(),
	}
	if err := p.q.Push(job); err != nil {
		return "", err
	}

	p.mu.Lock()
	p.states[job.ID] = &JobState{
		ID:        job.ID,
		URL:       job.URL,
		Status:    JobQueued,
		CreatedAt: job.CreatedAt,
	}
	p.order = append(p.order, job.ID)
	if len(p.states) > p.maxStates {
		p.evictTerminalLocked()
	}
	p.mu.Unlock()

	return job.ID, nil
}

// evictTerminalLocked drops the oldest done or failed states until the
// tracker fits the cap again. Queued and running jobs are never evicted.
func (p *Pool) evictTerminalLocked() {
	kept := p.order[:0]
	for _, id := range p.order {
		state, ok := p.states[id]
		if !ok {
			continue
		}
		if len(p.states) > p.maxStates && (state.Status == JobDone || state.Status == JobFailed) {
			delete(p.states, id)
			continue
		}
		kept = append(kept, id)
	}
	p.order = kept
}

// Status returns the state of a previously enqueued job.
func (p *Pool) Status(jobID string) (*JobState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	state, ok := p.states[jobID]
	if !ok {
		return nil, false
	}
	copied := *state
	return &copied, true
}

func (p *Pool) setStatus(jobID string, status JobStatus, record *models.ProductRecord, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.states[jobID]
	if !ok {
		return
	}
	state.Status = status
	state.Record = record
	if err != nil {
		state.Error = err.Error()
	}
}

// Start launches the workers. They exit when the context is cancelled or
// the queue closes; Wait blocks until all are done.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("worker pool starting", "workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
}

func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	logger := p.logger.With("worker", id)
	logger.Info("worker started")

	for {
		job, err := p.q.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, queue.ErrQueueClosed) {
				logger.Info("worker stopping")
				return
			}
			logger.Error("failed to pop job", "error", err)
			continue
		}

		p.setStatus(job.ID, JobRunning, nil, nil)

		jobCtx, cancel := context.WithTimeout(ctx, p.jobTimeout)
		record, err := p.svc.Scrape(jobCtx, job.URL)
		cancel()

		if err != nil {
			p.setStatus(job.ID, JobFailed, nil, err)
			logger.Warn("job failed", "job", job.ID, "url", job.URL, "error", err)
		} else {
			p.setStatus(job.ID, JobDone, record, nil)
			logger.Info("job complete", "job", job.ID, "url", job.URL)
		}

		if p.handler != nil {
			p.handler(ctx, &Result{Job: job, Record: record, Err: err})
		}
	}
}
