package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/statement-ledger/internal/jobs"
	"github.com/google/uuid"
)

// Options configures a Queue.
type Options struct {
	// Workers is the number of concurrent handlers. Defaults to 1.
	Workers int
	// BufferSize is how many jobs can wait before PublishCheck blocks.
	BufferSize int
	// MaxRetries applies to jobs published without their own value.
	MaxRetries int
	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff time.Duration
	// Store records every status transition when set.
	Store jobs.JobStore
}

// Queue is an in-memory job queue served by a fixed pool of workers.
// It uses Go channels for job distribution and is safe for concurrent use.
// Finished jobs are delivered on Completed, which is closed once every
// worker has exited; the caller must keep reading it.
type Queue struct {
	jobChan   chan *jobs.AccountCheckJob
	completed chan *jobs.AccountCheckJob
	wg        sync.WaitGroup
	mu        sync.RWMutex
	opts      Options
	closed    bool
	started   bool
	doneOnce  sync.Once
}

// NewQueue creates a new in-memory job queue.
func NewQueue(opts Options) *Queue {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BufferSize < 0 {
		opts.BufferSize = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	return &Queue{
		jobChan:   make(chan *jobs.AccountCheckJob, opts.BufferSize),
		completed: make(chan *jobs.AccountCheckJob, opts.Workers),
		opts:      opts,
	}
}

// Completed delivers each job once it reaches a terminal status.
func (q *Queue) Completed() <-chan *jobs.AccountCheckJob {
	return q.completed
}

// PublishCheck records job as pending and hands it to the workers. It
// blocks while the buffer is full.
func (q *Queue) PublishCheck(ctx context.Context, job *jobs.AccountCheckJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = q.opts.MaxRetries
	}

	q.save(ctx, job)

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the configured number of workers, each calling handler
// for one job at a time. Workers exit when ctx is done.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("queue is closed")
	}
	if q.started {
		return fmt.Errorf("queue already started")
	}
	q.started = true

	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.jobChan:
			if !ok || job == nil {
				return
			}
			q.processJob(ctx, job, handler)
			q.completed <- job
		}
	}
}

// processJob runs the handler until it yields a verdict or retries run out.
func (q *Queue) processJob(ctx context.Context, job *jobs.AccountCheckJob, handler jobs.JobHandler) {
	now := time.Now()
	job.StartedAt = &now

	for {
		job.Status = jobs.JobStatusChecking
		q.save(ctx, job)

		status, msg, err := q.call(ctx, job, handler)
		if err == nil && !status.Terminal() {
			err = fmt.Errorf("handler returned non-terminal status %q", status)
		}
		if err == nil {
			job.Status = status
			job.Message = msg
			job.Error = ""
			break
		}

		job.Error = err.Error()
		if job.RetryCount >= job.MaxRetries || ctx.Err() != nil {
			job.Status = jobs.JobStatusInconclusive
			job.Message = err.Error()
			break
		}

		job.RetryCount++
		job.Status = jobs.JobStatusRetrying
		q.save(ctx, job)

		select {
		case <-time.After(time.Duration(job.RetryCount) * q.opts.RetryBackoff):
		case <-ctx.Done():
		}
	}

	completedAt := time.Now()
	job.CompletedAt = &completedAt
	q.save(ctx, job)
}

// call runs handler, turning a panic into an error so one account can not
// take the pool down.
func (q *Queue) call(ctx context.Context, job *jobs.AccountCheckJob, handler jobs.JobHandler) (status jobs.JobStatus, msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(ctx, job)
}

func (q *Queue) save(ctx context.Context, job *jobs.AccountCheckJob) {
	if q.opts.Store != nil {
		_ = q.opts.Store.SaveJob(ctx, job)
	}
}

// Drain refuses further publishing and lets queued jobs run. It returns
// when every worker has exited or ctx is done.
func (q *Queue) Drain(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobChan)
	}
	q.mu.Unlock()
	return q.wait(ctx)
}

func (q *Queue) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		q.doneOnce.Do(func() { close(q.completed) })
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
