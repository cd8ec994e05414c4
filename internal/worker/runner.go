// Package worker runs the background follow-up for stored assessments: it
// generates the narrative, finalises the row and sends the delivery email.
// The api package only sees the Enqueuer interface.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nyashahama/stroke-risk-backend/internal/db"
	"github.com/nyashahama/stroke-risk-backend/internal/metrics"
)

// ─── INTERFACES ───────────────────────────────────────────────────────────────

// Enqueuer is what the api package uses to hand off a freshly stored
// assessment. *Runner implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, assessmentID uuid.UUID) error
}

// Processor runs the pipeline for one assessment. *Job implements it.
type Processor interface {
	Run(ctx context.Context, assessmentID uuid.UUID) error
}

// PendingLister returns assessments whose follow-up has not finished.
// db.Querier satisfies it.
type PendingLister interface {
	ListPendingAssessments(ctx context.Context, limit int32) ([]db.Assessment, error)
}

// FailureRecorder marks an assessment as permanently failed.
type FailureRecorder interface {
	MarkAssessmentFailed(ctx context.Context, id uuid.UUID, reason string) (db.Assessment, error)
}

// ─── RUNNER ───────────────────────────────────────────────────────────────────

// Job outcomes reported to metrics.
const (
	OutcomeDone    = "done"
	OutcomeRetried = "retried"
	OutcomeFailed  = "failed"
)

// RunnerConfig holds tuning parameters. Zero fields take the defaults from
// DefaultRunnerConfig.
type RunnerConfig struct {
	// Workers is the number of concurrent job goroutines.
	Workers int

	// PollInterval is how often the poller checks for pending assessments
	// that never reached the channel (restart, full queue).
	PollInterval time.Duration

	// PollBatch caps how many rows one poll fetches.
	PollBatch int32

	// JobTimeout is the per-attempt deadline. Keep it above the narrator's
	// p99 latency.
	JobTimeout time.Duration

	// MaxRetries is the number of attempts before the assessment is marked
	// failed.
	MaxRetries int

	// BackoffBase is doubled after every failed attempt.
	BackoffBase time.Duration
}

func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:      3,
		PollInterval: 30 * time.Second,
		PollBatch:    50,
		JobTimeout:   2 * time.Minute,
		MaxRetries:   3,
		BackoffBase:  time.Second,
	}
}

// Runner manages the worker pool. New assessments arrive on an in-process
// channel; a poller recovers anything left pending in the database.
type Runner struct {
	job     Processor
	pending PendingLister
	failer  FailureRecorder
	cfg     RunnerConfig
	metrics *metrics.Metrics
	logger  *slog.Logger

	queue chan uuid.UUID
	wg    sync.WaitGroup

	// tracked holds IDs that are queued or running, so Enqueue and the
	// poller never hand the same assessment out twice.
	mu      sync.Mutex
	tracked map[uuid.UUID]struct{}
}

// NewRunner constructs a Runner. Call Start to begin processing.
func NewRunner(
	job Processor,
	pending PendingLister,
	failer FailureRecorder,
	cfg RunnerConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Runner {
	def := DefaultRunnerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.PollBatch <= 0 {
		cfg.PollBatch = def.PollBatch
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = def.BackoffBase
	}

	return &Runner{
		job:     job,
		pending: pending,
		failer:  failer,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		queue:   make(chan uuid.UUID, cfg.Workers*2),
		tracked: make(map[uuid.UUID]struct{}),
	}
}

// Enqueue pushes an assessment onto the channel without blocking. A full
// queue is not fatal: the poller picks the row up later. An assessment that
// is already queued or running is accepted without queueing it again.
func (r *Runner) Enqueue(_ context.Context, assessmentID uuid.UUID) error {
	if !r.track(assessmentID) {
		r.logger.Debug("worker: assessment already in flight", "assessment_id", assessmentID)
		return nil
	}
	select {
	case r.queue <- assessmentID:
		r.logger.Info("worker: enqueued assessment", "assessment_id", assessmentID)
		return nil
	default:
		r.release(assessmentID)
		return errors.New("worker: queue is full, assessment will be picked up by poller")
	}
}

func (r *Runner) track(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tracked[id]; ok {
		return false
	}
	r.tracked[id] = struct{}{}
	return true
}

func (r *Runner) release(id uuid.UUID) {
	r.mu.Lock()
	delete(r.tracked, id)
	r.mu.Unlock()
}

// Start launches the workers and the poller and blocks until ctx is
// cancelled and every goroutine has returned.
//
//	go runner.Start(ctx)
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("worker: starting", "workers", r.cfg.Workers, "poll_interval", r.cfg.PollInterval)

	for i := range r.cfg.Workers {
		r.wg.Add(1)
		go r.work(ctx, i)
	}

	r.wg.Add(1)
	go r.poll(ctx)

	r.wg.Wait()
	r.logger.Info("worker: stopped")
}

func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With("worker_id", id)

	for {
		select {
		case <-ctx.Done():
			return
		case assessmentID := <-r.queue:
			r.runWithRetry(ctx, assessmentID, log)
			r.release(assessmentID)
		}
	}
}

func (r *Runner) poll(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pollOnce(ctx)
		}
	}
}

func (r *Runner) pollOnce(ctx context.Context) {
	rows, err := r.pending.ListPendingAssessments(ctx, r.cfg.PollBatch)
	if err != nil {
		r.logger.Error("worker: poll failed", "error", err)
		return
	}
	for _, a := range rows {
		if !r.track(a.ID) {
			continue
		}
		select {
		case r.queue <- a.ID:
			r.logger.Debug("worker: poller enqueued assessment", "assessment_id", a.ID)
		default:
			// full; next tick
			r.release(a.ID)
			return
		}
	}
}

// runWithRetry makes up to MaxRetries attempts with exponential backoff and
// marks the assessment failed once they are exhausted.
func (r *Runner) runWithRetry(ctx context.Context, assessmentID uuid.UUID, log *slog.Logger) {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		jobCtx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
		lastErr = r.job.Run(jobCtx, assessmentID)
		cancel()

		if lastErr == nil {
			r.metrics.ObserveJob(OutcomeDone)
			return
		}

		log.Warn("worker: job attempt failed",
			"assessment_id", assessmentID,
			"attempt", attempt,
			"max", r.cfg.MaxRetries,
			"error", lastErr,
		)

		if attempt < r.cfg.MaxRetries {
			r.metrics.ObserveJob(OutcomeRetried)
			backoff := r.cfg.BackoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}
	}

	r.metrics.ObserveJob(OutcomeFailed)
	log.Error("worker: job permanently failed", "assessment_id", assessmentID, "error", lastErr)

	// ctx may already be shutting down; the failure must still be recorded.
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := r.failer.MarkAssessmentFailed(failCtx, assessmentID, lastErr.Error()); err != nil {
		log.Error("worker: failed to mark assessment as failed", "assessment_id", assessmentID, "error", err)
	}
}
