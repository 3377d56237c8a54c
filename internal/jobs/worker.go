package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sjperalta/ordino-api/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

// Worker runs queued jobs on a fixed pool of goroutines and drives named
// scheduled jobs such as the stale intent sweep.
type Worker struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	queue      chan Job
	numWorkers int
	stats      WorkerStats
	statsMu    sync.RWMutex
	stateMu    sync.RWMutex
	stopped    bool
}

// WorkerStats holds statistics about the worker. FinishedJobs counts every
// job that ran, FailedJobs the subset that returned an error or panicked.
type WorkerStats struct {
	ActiveJobs    int                  `json:"active_jobs"`
	FinishedJobs  int64                `json:"finished_jobs"`
	FailedJobs    int64                `json:"failed_jobs"`
	QueueLength   int                  `json:"queue_length"`
	MaxConcurrent int                  `json:"max_concurrent"`
	LastRunAt     map[string]time.Time `json:"last_run_at"`
}

// NewWorker creates a worker with N concurrent processors
func NewWorker(numWorkers int) *Worker {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		ctx:        ctx,
		cancel:     cancel,
		queue:      make(chan Job, 100),
		numWorkers: numWorkers,
		stats:      WorkerStats{LastRunAt: make(map[string]time.Time)},
	}

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	return w
}

// Enqueue adds a job to be processed by the worker pool. When the queue is
// full the job runs on the caller's goroutine.
func (w *Worker) Enqueue(job Job) {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	if w.stopped {
		logger.Warn("[Worker] Worker stopped, dropping job")
		return
	}

	select {
	case w.queue <- job:
	default:
		logger.Warn("[Worker] Queue full, running job synchronously")
		w.run(w.ctx, "queue", job)
	}
}

// process runs queued jobs until the queue is closed and drained. Queued jobs
// are not cancelled by Shutdown, so writes accepted before it still land.
func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	name := fmt.Sprintf("worker-%d", workerID)
	ctx := context.WithoutCancel(w.ctx)
	for job := range w.queue {
		w.run(ctx, name, job)
	}
}

// ScheduleEvery runs a named job at fixed intervals. The first run happens after the interval.
func (w *Worker) ScheduleEvery(name string, interval time.Duration, job Job) {
	w.schedule(name, interval, false, job)
}

// ScheduleEveryImmediate runs a named job once at startup, then at fixed intervals
func (w *Worker) ScheduleEveryImmediate(name string, interval time.Duration, job Job) {
	w.schedule(name, interval, true, job)
}

func (w *Worker) schedule(name string, interval time.Duration, immediate bool, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if immediate {
			w.runScheduled(name, job)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.runScheduled(name, job)
			}
		}
	}()
}

func (w *Worker) runScheduled(name string, job Job) {
	w.run(w.ctx, name, job)

	w.statsMu.Lock()
	w.stats.LastRunAt[name] = time.Now()
	w.statsMu.Unlock()
}

// run executes job, recovering from panics so one bad job cannot stop the pool
func (w *Worker) run(ctx context.Context, name string, job Job) {
	w.trackJobStart()
	start := time.Now()
	failed := false

	defer func() {
		if r := recover(); r != nil {
			logger.Error("[Worker] Job panic", "job", name, "panic", r)
			failed = true
		}
		w.trackJobEnd(failed)
	}()

	if err := job(ctx); err != nil {
		logger.Error("[Worker] Job error", "job", name, "error", err)
		failed = true
		return
	}
	logger.Debug("[Worker] Job completed", "job", name, "elapsed", time.Since(start))
}

// Shutdown stops the scheduled jobs and waits for queued jobs to finish
func (w *Worker) Shutdown() {
	w.stateMu.Lock()
	if w.stopped {
		w.stateMu.Unlock()
		return
	}
	w.stopped = true
	w.cancel()
	close(w.queue)
	w.stateMu.Unlock()

	w.wg.Wait()
}

// Context returns the worker's context for checking cancellation
func (w *Worker) Context() context.Context {
	return w.ctx
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()

	stats := w.stats
	stats.LastRunAt = make(map[string]time.Time, len(w.stats.LastRunAt))
	for k, v := range w.stats.LastRunAt {
		stats.LastRunAt[k] = v
	}
	stats.QueueLength = len(w.queue)
	stats.MaxConcurrent = w.numWorkers
	return stats
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

func (w *Worker) trackJobEnd(failed bool) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.FinishedJobs++
	if failed {
		w.stats.FailedJobs++
	}
}
