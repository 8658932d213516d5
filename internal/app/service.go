// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/detbench/internal/adapters/mq/queue"
	workerpool "github.com/okian/detbench/internal/adapters/mq/worker"
	"github.com/okian/detbench/internal/adapters/repository"
	"github.com/okian/detbench/internal/domain/coprime"
	"github.com/okian/detbench/internal/domain/cyclic"
	"github.com/okian/detbench/internal/domain/matching"
	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/internal/domain/pattern"
	"github.com/okian/detbench/internal/domain/scenario"
	"github.com/okian/detbench/internal/domain/scoring"
	"github.com/okian/detbench/pkg/errkind"
	"github.com/okian/detbench/pkg/logger"
	"github.com/okian/detbench/pkg/metrics"
)

const (
	defaultMaxCoprimeCount   = 10_000
	defaultMaxExpectedEvents = 1_000_000
)

// Target names what observed samples are scored against: either an explicit
// pattern with its window, or a sequence length from which the scenario is
// derived.
type Target struct {
	Pattern        model.PatternSpec
	StartOffset    int
	MaxOffset      int
	SequenceLength int
	// Tolerance overrides the service default when set.
	Tolerance *int
}

// Evaluation is the outcome of a synchronous evaluation.
type Evaluation struct {
	ID        string
	Scenario  *scenario.Scenario
	Tolerance int
	Result    model.MatchResult
	Report    model.Report
}

// Service implements the API dependencies for the evaluator.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      *repository.MemoryStore
	jobQueue   *jobqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// Configuration
	workerCount     int
	queueSize       int
	maxRecords      int
	tolerance       int
	maxCoprimeCount int
	maxExpected     int
	logRoot         string
	scenarioParams  scenario.Params
	workerOpts      []workerpool.Option

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxRecords bounds the report store.
func WithMaxRecords(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRecords = n
		}
	}
}

// WithTolerance sets the default matching window.
func WithTolerance(tol int) Option {
	return func(s *Service) {
		if tol >= 0 {
			s.tolerance = tol
		}
	}
}

// WithScenarioParams sets how targets given by sequence length are expanded.
func WithScenarioParams(p scenario.Params) Option {
	return func(s *Service) {
		s.scenarioParams = p
	}
}

// WithMaxCoprimeCount caps the count accepted by Coprimes.
func WithMaxCoprimeCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCoprimeCount = n
		}
	}
}

// WithMaxExpectedEvents caps the expected schedule of a target, so one request
// cannot make the evaluator project an unbounded number of events.
func WithMaxExpectedEvents(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxExpected = n
		}
	}
}

// WithLogRoot confines job paths to dir. Relative paths are resolved against
// it. The default is the working directory.
func WithLogRoot(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.logRoot = dir
		}
	}
}

// WithWorkerOptions passes options to every batch worker.
func WithWorkerOptions(opts ...workerpool.Option) Option {
	return func(s *Service) {
		s.workerOpts = append(s.workerOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       1024,
		maxRecords:      100_000,
		tolerance:       matching.DefaultTolerance,
		maxCoprimeCount: defaultMaxCoprimeCount,
		maxExpected:     defaultMaxExpectedEvents,
		logRoot:         ".",
		scenarioParams:  scenario.DefaultParams(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the batch components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithMaxRecords(s.maxRecords))
	}
	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.store, s.workerOpts...)
	s.workerPool.Start(ctx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "evaluator service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("tolerance", s.tolerance),
	)
	return nil
}

// Stop closes the job queue and waits for queued jobs to finish. Records
// survive a restart.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping evaluator service...")

	err := s.workerPool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "evaluator service stopped")
	return err
}

// Scenario derives the scenario for a sequence length with the configured parameters.
func (s *Service) Scenario(sequenceLength int) (scenario.Scenario, error) {
	return scenario.Build(s.scenarioParams, sequenceLength)
}

// resolve turns a Target into a concrete pattern, window and tolerance.
func (s *Service) resolve(op string, t Target) (matching.Input, *scenario.Scenario, error) {
	in := matching.Input{Tolerance: s.tolerance}
	if t.Tolerance != nil {
		in.Tolerance = *t.Tolerance
	}

	var sc *scenario.Scenario
	switch {
	case len(t.Pattern) > 0:
		in.Pattern = t.Pattern
		in.StartOffset = t.StartOffset
		in.MaxOffset = t.MaxOffset
	case t.SequenceLength != 0:
		built, err := s.Scenario(t.SequenceLength)
		if err != nil {
			return in, nil, errkind.Wrap(op, err)
		}
		sc = &built
		in.Pattern = built.Pattern
		in.StartOffset = built.StartOffset
		in.MaxOffset = built.MaxOffset
	default:
		return in, nil, errkind.WrapKind(op, errkind.ErrMalformed, ErrNoTarget)
	}

	if n := pattern.Count(in.Pattern, in.StartOffset, in.MaxOffset); n > s.maxExpected {
		return in, nil, errkind.WrapKind(op, errkind.ErrMalformed,
			fmt.Errorf("%w: %d events > %d", ErrScheduleTooLong, n, s.maxExpected))
	}
	return in, sc, nil
}

// confine resolves path against the log root and rejects anything that lands
// outside it, symlinks included.
func (s *Service) confine(op, path string) (string, error) {
	root, err := filepath.Abs(s.logRoot)
	if err != nil {
		return "", errkind.WrapKind(op, errkind.ErrInternal, err)
	}
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}

	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	p = filepath.Clean(p)
	if real, err := filepath.EvalSymlinks(p); err == nil {
		p = real
	} else if dir, err := filepath.EvalSymlinks(filepath.Dir(p)); err == nil {
		p = filepath.Join(dir, filepath.Base(p))
	}

	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errkind.WrapKind(op, errkind.ErrMalformed, fmt.Errorf("%w: %s", ErrPathOutsideRoot, path))
	}
	return p, nil
}

// Evaluate scores samples against the target synchronously.
func (s *Service) Evaluate(ctx context.Context, t Target, samples []model.Sample) (Evaluation, error) {
	const op = "service.evaluate"
	start := time.Now()

	in, sc, err := s.resolve(op, t)
	if err != nil {
		metrics.RecordEvaluation("api", errkind.KindOf(err))
		return Evaluation{}, err
	}
	in.Samples = samples

	res, err := matching.Evaluate(in)
	if err != nil {
		err = errkind.Wrap(op, err)
		metrics.RecordEvaluation("api", errkind.KindOf(err))
		return Evaluation{}, err
	}
	rep := scoring.Score(res)

	metrics.RecordEvaluation("api", "ok")
	metrics.RecordEvaluationLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordMatchCounts(rep.TruePositives, rep.FalsePositives, rep.FalseNegatives)
	metrics.ObserveScores(rep.Precision, rep.Recall)

	ev := Evaluation{
		ID:        uuid.NewString(),
		Scenario:  sc,
		Tolerance: in.Tolerance,
		Result:    res,
		Report:    rep,
	}
	s.log().Debug(ctx, "evaluation finished",
		logger.String("id", ev.ID),
		logger.Int("samples", len(samples)),
		logger.Float64("precision", rep.Precision),
		logger.Float64("recall", rep.Recall),
	)
	return ev, nil
}

// Validate runs the cyclic validator over samples. An empty sequence uses the
// configured labels.
func (s *Service) Validate(ctx context.Context, sequence []string, samples []model.Sample) (cyclic.Result, error) {
	if len(sequence) == 0 {
		sequence = s.scenarioParams.Labels
	}
	res, err := cyclic.Validate(sequence, samples)
	if err != nil {
		metrics.RecordValidation(errkind.KindOf(err))
		return cyclic.Result{}, errkind.Wrap("service.validate", err)
	}
	metrics.RecordValidation("ok")
	return res, nil
}

// Coprimes returns the first count roots coprime to n.
func (s *Service) Coprimes(_ context.Context, n, count int) ([]int, error) {
	const op = "service.coprimes"
	if count > s.maxCoprimeCount {
		return nil, errkind.WrapKind(op, errkind.ErrMalformed,
			fmt.Errorf("%w: %d > %d", ErrCountTooLarge, count, s.maxCoprimeCount))
	}
	roots, err := coprime.Roots(n, count)
	if err != nil {
		return nil, errkind.Wrap(op, err)
	}
	return roots, nil
}

// Submit queues a batch job scoring the log at path and returns its id. The
// job is recorded as pending until a worker finishes it.
func (s *Service) Submit(ctx context.Context, path string, t Target) (string, error) {
	const op = "service.submit"
	if path == "" {
		return "", errkind.WrapKind(op, errkind.ErrMalformed, ErrEmptyPath)
	}
	in, _, err := s.resolve(op, t)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", errkind.WrapKind(op, errkind.ErrInternal, ErrNotStarted)
	}
	log := s.logger
	path, err = s.confine(op, path)
	if err != nil {
		return "", err
	}

	job := model.Job{
		ID:             uuid.NewString(),
		Path:           path,
		SequenceLength: t.SequenceLength,
		Pattern:        in.Pattern,
		StartOffset:    in.StartOffset,
		MaxOffset:      in.MaxOffset,
		Tolerance:      in.Tolerance,
		SubmittedAt:    time.Now(),
	}
	// Pending first, so a fast worker's final record is never overwritten.
	if err := s.store.Put(ctx, repository.Record{
		JobID:          job.ID,
		Path:           job.Path,
		SequenceLength: job.SequenceLength,
		Status:         repository.StatusPending,
		SubmittedAt:    job.SubmittedAt,
	}); err != nil {
		return "", errkind.WrapKind(op, errkind.ErrInternal, err)
	}
	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		if perr := s.store.Put(ctx, repository.Record{
			JobID:          job.ID,
			Path:           job.Path,
			SequenceLength: job.SequenceLength,
			Status:         repository.StatusFailed,
			Error:          err.Error(),
			ErrorKind:      errkind.KindOf(err),
			SubmittedAt:    job.SubmittedAt,
			FinishedAt:     time.Now(),
		}); perr != nil {
			metrics.RecordErrorByComponent("service", "record_error")
			log.Error(ctx, "failed to record rejected job", logger.String("job_id", job.ID), logger.Error(perr))
		}
		log.Warn(ctx, "job rejected", logger.String("path", path), logger.Error(err))
		return "", errkind.Wrap(op, err)
	}

	metrics.RecordJobEnqueued()
	log.Debug(ctx, "job queued", logger.String("job_id", job.ID), logger.String("path", path))
	return job.ID, nil
}

// Job returns the record of one job.
func (s *Service) Job(ctx context.Context, id string) (repository.Record, error) {
	const op = "service.job"
	st := s.reportStore()
	if st == nil {
		return repository.Record{}, errkind.WrapKind(op, errkind.ErrNotFound, repository.ErrNotFound)
	}
	r, err := st.Get(ctx, id)
	if err != nil {
		return repository.Record{}, errkind.WrapKind(op, errkind.ErrNotFound, err)
	}
	return r, nil
}

// Jobs lists up to limit job records, best F1 first.
func (s *Service) Jobs(ctx context.Context, limit int) ([]repository.Record, error) {
	const op = "service.jobs"
	if limit < 1 {
		return nil, errkind.WrapKind(op, errkind.ErrMalformed, ErrInvalidListSize)
	}
	st := s.reportStore()
	if st == nil {
		return []repository.Record{}, nil
	}
	rs, err := st.List(ctx, limit)
	if err != nil {
		return nil, errkind.WrapKind(op, errkind.ErrMalformed, err)
	}
	return rs, nil
}

func (s *Service) reportStore() *repository.MemoryStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Get().Named("service")
	}
	return l
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"tolerance":   s.tolerance,
		"labels":      s.scenarioParams.Labels,
	}
	if s.store != nil {
		stats["jobRecords"] = s.store.Count(ctx)
	}
	if s.started {
		stats["queueLength"] = s.jobQueue.Len()
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	return stats
}
