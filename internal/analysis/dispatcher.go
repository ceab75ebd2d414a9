// Package analysis dispatches post-workout analysis jobs to an external AI
// collaborator. Delivery is best-effort at-most-once: enqueueing never
// blocks, a full queue drops the job, and a failed job is not retried.
package analysis

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// JobTypeAnalyzeWorkout is the only job type the core dispatches today.
const JobTypeAnalyzeWorkout = "ANALYZE_WORKOUT"

// Job identifies one unit of post-processing work.
type Job struct {
	Type   string
	LogID  primitive.ObjectID
	UserID primitive.ObjectID
}

// Analyzer is the external AI collaborator. It is assumed asynchronous and
// unreliable; the core never awaits it on a request path.
type Analyzer interface {
	Analyze(ctx context.Context, job Job) error
}

// Dispatcher fans jobs out to a small worker pool over a bounded queue.
type Dispatcher struct {
	analyzer Analyzer
	jobs     chan Job
	workers  int
	logger   zerolog.Logger

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewDispatcher creates a dispatcher with the given queue capacity and
// worker count. Start must be called before Enqueue delivers anything.
func NewDispatcher(analyzer Analyzer, queueSize, workers int, logger zerolog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if workers <= 0 {
		workers = 2
	}
	return &Dispatcher{
		analyzer: analyzer,
		jobs:     make(chan Job, queueSize),
		workers:  workers,
		logger:   logger.With().Str("component", "analysis").Logger(),
	}
}

// Start launches the worker pool. Workers run until Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.group, ctx = errgroup.WithContext(ctx)

	for i := 0; i < d.workers; i++ {
		d.group.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case job := <-d.jobs:
					d.run(ctx, job)
				}
			}
		})
	}
}

// Enqueue hands a job to the worker pool without blocking. When the queue
// is full the job is dropped with a warning; callers must never depend on
// delivery.
func (d *Dispatcher) Enqueue(job Job) {
	select {
	case d.jobs <- job:
	default:
		d.logger.Warn().
			Str("type", job.Type).
			Str("logId", job.LogID.Hex()).
			Msg("analysis queue full, job dropped")
	}
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (d *Dispatcher) Stop() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	_ = d.group.Wait()
}

func (d *Dispatcher) run(ctx context.Context, job Job) {
	jobCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := d.analyzer.Analyze(jobCtx, job); err != nil {
		// At-most-once: log and move on, no retry.
		d.logger.Warn().
			Err(err).
			Str("type", job.Type).
			Str("logId", job.LogID.Hex()).
			Msg("analysis job failed")
		return
	}
	d.logger.Debug().Str("logId", job.LogID.Hex()).Msg("analysis job completed")
}

// NoopAnalyzer satisfies Analyzer without doing any work. Used until a real
// AI backend is wired in, and in tests.
type NoopAnalyzer struct{}

// Analyze implements Analyzer.
func (NoopAnalyzer) Analyze(context.Context, Job) error { return nil }
