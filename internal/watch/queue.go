package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
	"git.home.luguber.info/inful/spritegen/internal/logfields"
)

// JobStatus is the lifecycle state of a rebuild job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCoalesced JobStatus = "coalesced"
)

// Job is one scoped rebuild request.
type Job struct {
	ID          string
	Sheet       string
	Reason      string
	Path        string
	Status      JobStatus
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Duration    time.Duration
	Error       string
}

// RebuildFunc rebuilds one sheet.
type RebuildFunc func(ctx context.Context, sheet string) error

// Queue runs sheet rebuilds on a fixed set of workers. A sheet is never built
// twice at once: requests for a sheet that is queued or running collapse into
// a single follow-up build.
type Queue struct {
	jobs    chan *Job
	workers int
	rebuild RebuildFunc

	mu          sync.Mutex
	running     map[string]bool
	pending     map[string]*Job
	history     []*Job
	historySize int
	idle        *sync.Cond
	inflight    int

	wg sync.WaitGroup
}

// NewQueue creates a queue with the given worker count.
func NewQueue(workers int, rebuild RebuildFunc) *Queue {
	if workers <= 0 {
		workers = 2
	}
	if rebuild == nil {
		panic("watch.NewQueue: rebuild is required")
	}
	q := &Queue{
		jobs:        make(chan *Job, 256),
		workers:     workers,
		rebuild:     rebuild,
		running:     make(map[string]bool),
		pending:     make(map[string]*Job),
		historySize: 50,
	}
	q.idle = sync.NewCond(&q.mu)
	return q
}

// Start launches the workers; they exit when ctx is canceled.
func (q *Queue) Start(ctx context.Context) {
	for range q.workers {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Stop waits for the workers to exit after ctx was canceled.
func (q *Queue) Stop() {
	q.wg.Wait()
}

// Enqueue requests a rebuild of sheet. It returns false when the request was
// folded into one already waiting for the same sheet.
func (q *Queue) Enqueue(sheet, reason, path string) (bool, error) {
	if sheet == "" {
		return false, errors.ValidationError("sheet is required").Build()
	}
	job := &Job{
		ID:        uuid.NewString(),
		Sheet:     sheet,
		Reason:    reason,
		Path:      path,
		Status:    JobQueued,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, waiting := q.pending[sheet]; waiting {
		job.Status = JobCoalesced
		q.addToHistory(job)
		return false, nil
	}
	q.pending[sheet] = job
	q.inflight++
	if q.running[sheet] {
		// The worker holding the sheet dispatches it when done.
		return true, nil
	}
	select {
	case q.jobs <- job:
		return true, nil
	default:
		delete(q.pending, sheet)
		q.inflight--
		return false, errors.NewError(errors.CategoryRuntime, "rebuild queue is full").
			ForSheet(sheet).Build()
	}
}

// Wait blocks until no job is queued or running.
func (q *Queue) Wait() {
	q.mu.Lock()
	for q.inflight > 0 {
		q.idle.Wait()
	}
	q.mu.Unlock()
}

// History returns the most recent finished and coalesced jobs, oldest first.
func (q *Queue) History() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Job, len(q.history))
	for i, j := range q.history {
		out[i] = *j
	}
	return out
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.process(ctx, job)
		}
	}
}

func (q *Queue) process(ctx context.Context, job *Job) {
	q.mu.Lock()
	delete(q.pending, job.Sheet)
	q.running[job.Sheet] = true
	started := time.Now()
	job.StartedAt = &started
	job.Status = JobRunning
	q.mu.Unlock()

	err := q.rebuild(ctx, job.Sheet)

	ended := time.Now()
	q.mu.Lock()
	job.CompletedAt = &ended
	job.Duration = ended.Sub(started)
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
	} else {
		job.Status = JobCompleted
	}
	q.addToHistory(job)
	delete(q.running, job.Sheet)
	next := q.pending[job.Sheet]
	q.inflight--
	if next != nil {
		select {
		case q.jobs <- next:
		default:
			delete(q.pending, job.Sheet)
			q.inflight--
			slog.Warn("Dropping follow-up rebuild, queue is full", logfields.Sheet(job.Sheet))
		}
	}
	if q.inflight == 0 {
		q.idle.Broadcast()
	}
	q.mu.Unlock()
}

func (q *Queue) addToHistory(job *Job) {
	q.history = append(q.history, job)
	if len(q.history) > q.historySize {
		copy(q.history, q.history[len(q.history)-q.historySize:])
		q.history = q.history[:q.historySize]
	}
}
