// Package worker scores queued batch jobs and records their outcome.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/okian/detbench/internal/adapters/eventlog"
	"github.com/okian/detbench/internal/adapters/repository"
	"github.com/okian/detbench/internal/domain/matching"
	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/internal/domain/scoring"
	"github.com/okian/detbench/pkg/errkind"
	"github.com/okian/detbench/pkg/logger"
	"github.com/okian/detbench/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue() <-chan model.Job
}

// Recorder stores the outcome of a job.
type Recorder interface {
	Put(ctx context.Context, r repository.Record) error
}

// Worker processes jobs until its queue is drained or it is stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	recorder Recorder
	load     Loader
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		recorder: recorder,
		load:     eventlog.ReadFile,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process scores one job and records the outcome, successful or not.
func (w *InMemoryWorker) process(ctx context.Context, job model.Job) { //nolint:gocritic // hugeParam: jobs arrive by value
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	rec := repository.Record{
		JobID:          job.ID,
		Path:           job.Path,
		SequenceLength: job.SequenceLength,
		SubmittedAt:    job.SubmittedAt,
	}

	rep, err := w.evaluate(ctx, job)
	rec.FinishedAt = time.Now()
	if err != nil {
		kind := errkind.KindOf(err)
		rec.Status = repository.StatusFailed
		rec.Error = err.Error()
		rec.ErrorKind = kind
		metrics.RecordEvaluation("job", kind)
		metrics.RecordJobFailed(kind)
		metrics.RecordErrorByComponent("worker", kind)
		w.logger.Error(ctx, "job failed",
			logger.String("job_id", job.ID),
			logger.String("path", job.Path),
			logger.String("kind", kind),
			logger.Error(err),
		)
	} else {
		rec.Status = repository.StatusDone
		rec.Report = &rep
		metrics.RecordEvaluation("job", "ok")
		metrics.RecordJobCompleted()
		metrics.RecordEvaluationLatency(float64(time.Since(start).Milliseconds()))
		w.logger.Debug(ctx, "job scored",
			logger.String("job_id", job.ID),
			logger.Float64("precision", rep.Precision),
			logger.Float64("recall", rep.Recall),
		)
	}

	if err := w.recorder.Put(ctx, rec); err != nil {
		metrics.RecordErrorByComponent("worker", "record_error")
		w.logger.Error(ctx, "failed to record job outcome", logger.String("job_id", job.ID), logger.Error(err))
	}
}

// evaluate scores one job. A panic fails only that job.
func (w *InMemoryWorker) evaluate(ctx context.Context, job model.Job) (rep model.Report, err error) { //nolint:gocritic // hugeParam
	const op = "worker.evaluate"
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "job panicked",
				logger.String("job_id", job.ID),
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())),
			)
			rep, err = model.Report{}, errkind.WrapKind(op, errkind.ErrInternal, fmt.Errorf("%w: %v", ErrJobPanicked, r))
		}
	}()
	samples, err := w.load(ctx, job.Path)
	if err != nil {
		return model.Report{}, errkind.Wrap(op, err)
	}
	res, err := matching.Evaluate(matching.Input{
		Pattern:     job.Pattern,
		StartOffset: job.StartOffset,
		MaxOffset:   job.MaxOffset,
		Samples:     samples,
		Tolerance:   job.Tolerance,
	})
	if err != nil {
		return model.Report{}, errkind.Wrap(op, err)
	}
	rep = scoring.Score(res)
	metrics.RecordMatchCounts(rep.TruePositives, rep.FalsePositives, rep.FalseNegatives)
	metrics.ObserveScores(rep.Precision, rep.Recall)
	return rep, nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A non-positive count uses one worker per CPU.
func NewPool(workerCount int, queue Queue, recorder Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, recorder, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and waits for the workers to drain it. Workers
// still busy when ctx expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker did not drain in time", logger.Int("worker_id", i))
			_ = w.Shutdown(shutdownCtx)
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
