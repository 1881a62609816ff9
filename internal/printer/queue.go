package printer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a job
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusPrinting  JobStatus = "printing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Work is the body of a job. The returned summary is stored on the job.
type Work func(ctx context.Context) (Summary, error)

// Summary describes what a finished job did
type Summary struct {
	Path    string `json:"path,omitempty"`
	Targets int    `json:"targets,omitempty"`
	Failed  int    `json:"failed,omitempty"`
	NoMatch bool   `json:"no_match,omitempty"`
}

// Job is a snapshot of one queued print
type Job struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Status     JobStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	Summary    Summary   `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Duration is the time spent printing
func (j Job) Duration() time.Duration {
	if j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

type entry struct {
	job  Job
	work Work
	done chan struct{}
}

// Queue runs jobs one at a time in submission order. A failed or panicking
// job never stops the jobs after it.
type Queue struct {
	mu      sync.Mutex
	entries []*entry
	wake    chan struct{}
	log     *slog.Logger

	onStart    func(Job)
	onFinished func(Job)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a queue and starts its worker
func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		wake:   make(chan struct{}, 1),
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
	}

	q.wg.Add(1)
	go q.worker()

	return q
}

// OnStart sets a callback for when a job starts
func (q *Queue) OnStart(callback func(Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onStart = callback
}

// OnFinished sets a callback for when a job completes or fails
func (q *Queue) OnFinished(callback func(Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onFinished = callback
}

// Enqueue appends a job and returns its ID
func (q *Queue) Enqueue(source string, work Work) string {
	e := &entry{
		job: Job{
			ID:        uuid.New().String(),
			Source:    source,
			Status:    StatusQueued,
			CreatedAt: time.Now(),
		},
		work: work,
		done: make(chan struct{}),
	}

	q.mu.Lock()
	q.entries = append(q.entries, e)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return e.job.ID
}

// Wait blocks until the job finishes or ctx ends
func (q *Queue) Wait(ctx context.Context, id string) (Job, error) {
	q.mu.Lock()
	e := q.find(id)
	q.mu.Unlock()
	if e == nil {
		return Job{}, fmt.Errorf("job not found: %s", id)
	}

	select {
	case <-e.done:
		q.mu.Lock()
		defer q.mu.Unlock()
		return e.job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		e := q.next()
		if e == nil {
			select {
			case <-q.ctx.Done():
				return
			case <-q.wake:
			}
			continue
		}
		q.run(e)
	}
}

// next marks the oldest queued job as printing
func (q *Queue) next() *entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.entries {
		if e.job.Status == StatusQueued {
			e.job.Status = StatusPrinting
			e.job.StartedAt = time.Now()
			return e
		}
	}
	return nil
}

func (q *Queue) run(e *entry) {
	q.mu.Lock()
	started, onStart := e.job, q.onStart
	q.mu.Unlock()

	q.log.Info("job.start", "id", started.ID, "source", started.Source)
	if onStart != nil {
		onStart(started)
	}

	summary, err := q.safeRun(e.work)

	q.mu.Lock()
	e.job.Summary = summary
	e.job.FinishedAt = time.Now()
	if err != nil {
		e.job.Status = StatusFailed
		e.job.Error = err.Error()
	} else {
		e.job.Status = StatusCompleted
	}
	finished, onFinished := e.job, q.onFinished
	q.mu.Unlock()
	close(e.done)

	if err != nil {
		q.log.Error("job.end", "id", finished.ID, "status", finished.Status, "duration", finished.Duration(), "error", err)
	} else {
		q.log.Info("job.end", "id", finished.ID, "status", finished.Status, "duration", finished.Duration())
	}
	if onFinished != nil {
		onFinished(finished)
	}
}

func (q *Queue) safeRun(work Work) (summary Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("job.panic", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return work(q.ctx)
}

func (q *Queue) find(id string) *entry {
	for _, e := range q.entries {
		if e.job.ID == id {
			return e
		}
	}
	return nil
}

// GetJob returns a job by ID
func (q *Queue) GetJob(id string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if e := q.find(id); e != nil {
		return e.job, true
	}
	return Job{}, false
}

// GetAllJobs returns every job in submission order
func (q *Queue) GetAllJobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]Job, len(q.entries))
	for i, e := range q.entries {
		jobs[i] = e.job
	}
	return jobs
}

// Pending counts jobs not yet finished
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, e := range q.entries {
		if e.job.Status == StatusQueued || e.job.Status == StatusPrinting {
			n++
		}
	}
	return n
}

// ClearCompleted removes finished jobs from the queue and returns how many
// were removed
func (q *Queue) ClearCompleted() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	filtered := make([]*entry, 0, len(q.entries))
	for _, e := range q.entries {
		if e.job.Status != StatusCompleted && e.job.Status != StatusFailed {
			filtered = append(filtered, e)
		}
	}
	removed := len(q.entries) - len(filtered)
	q.entries = filtered
	return removed
}

// Stop cancels the running job and stops the worker
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
}
