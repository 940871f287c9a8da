// Package orchestrator owns the job registry and intake queue: the only
// part of this repository with real engineering depth. Everything else —
// HTTP handlers, the conversion engine, the janitor — is a thin collaborator
// around the operations exposed here.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmorozov/docling-orchestrator/internal/archive"
	"github.com/dmorozov/docling-orchestrator/internal/convert"
	"github.com/dmorozov/docling-orchestrator/internal/domain"
	"github.com/dmorozov/docling-orchestrator/internal/platform/logger"
)

// CancelResult is the outcome of a Cancel call.
type CancelResult int

const (
	Cancelled CancelResult = iota
	NotFound
	NotCancellable
)

// Config tunes worker count, default tier and the timeout formula's
// coefficients. All fields have the defaults spec.md §6 names.
type Config struct {
	MaxConcurrentJobs     int
	DefaultTier           domain.Tier
	TimeoutBaseSeconds    int
	TimeoutPerPageSeconds int
}

func (c Config) workers() int {
	if c.MaxConcurrentJobs <= 0 {
		return 1
	}
	if c.MaxConcurrentJobs > 3 {
		return 3
	}
	return c.MaxConcurrentJobs
}

func (c Config) defaultTier() domain.Tier {
	if c.DefaultTier == "" {
		return domain.TierStandard
	}
	return c.DefaultTier
}

// Orchestrator is the sole owner of the registry and intake queue. A single
// value is constructed at process start and threaded explicitly into HTTP
// handlers; it holds no package-level state.
type Orchestrator struct {
	cfg    Config
	engine convert.Engine
	log    *logger.Logger

	registry *registry
	queue    *intakeQueue
	archive  *archive.Mirror

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex // guards running/stopCh lifecycle only
}

// New constructs an Orchestrator. It does not start workers; call Start for
// that.
func New(engine convert.Engine, log *logger.Logger, cfg Config) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		engine:   engine,
		log:      log.With("component", "orchestrator"),
		registry: newRegistry(),
		queue:    newIntakeQueue(),
	}
}

// WithArchive attaches a terminal-job mirror. A nil mirror is accepted and
// simply leaves archival disabled.
func (o *Orchestrator) WithArchive(mirror *archive.Mirror) *Orchestrator {
	o.archive = mirror
	return o
}

// Enqueue creates a job in state queued and appends it to the intake queue.
// It always succeeds; the file path is not validated until a worker invokes
// the conversion engine.
func (o *Orchestrator) Enqueue(filePath string, opts domain.Options, traceID, correlationID string) domain.Job {
	if traceID == "" {
		traceID = uuid.NewString()
	}

	j := &domain.Job{
		ID:            uuid.New(),
		FilePath:      filePath,
		Options:       opts,
		State:         domain.StateQueued,
		Progress:      0,
		CreatedAt:     time.Now(),
		TraceID:       traceID,
		CorrelationID: correlationID,
	}

	o.registry.insert(j)
	o.queue.push(j.ID)

	o.log.Info("job_enqueued", "job_id", j.ID.String(), "trace_id", j.TraceID, "correlation_id", j.CorrelationID)
	return j.Snapshot()
}

// EnqueueBatch enqueues every path in filePaths under one fresh correlation
// id, in order. Siblings share traceID when the caller supplied one;
// otherwise each gets its own. An empty filePaths is legal and yields an
// empty job list.
func (o *Orchestrator) EnqueueBatch(filePaths []string, opts domain.Options, traceID string) (string, []domain.Job) {
	correlationID := uuid.NewString()

	jobs := make([]domain.Job, 0, len(filePaths))
	for _, p := range filePaths {
		jobs = append(jobs, o.Enqueue(p, opts, traceID, correlationID))
	}
	return correlationID, jobs
}

// Get returns a snapshot of the job, or false if id is unknown.
func (o *Orchestrator) Get(id uuid.UUID) (domain.Job, bool) {
	return o.registry.get(id)
}

// List returns snapshots of every job in the registry, in no guaranteed
// order.
func (o *Orchestrator) List() []domain.Job {
	return o.registry.list()
}

// Cancel transitions id from queued to cancelled. It is a no-op (returning
// NotCancellable) for jobs in any other state, including already-terminal
// ones, so repeated calls are safe.
func (o *Orchestrator) Cancel(id uuid.UUID) CancelResult {
	result := NotFound
	found := o.registry.mutate(id, func(j *domain.Job) {
		if j.State != domain.StateQueued {
			result = NotCancellable
			return
		}
		now := time.Now()
		j.State = domain.StateCancelled
		j.Progress = 100
		j.CompletedAt = &now
		result = Cancelled
	})
	if !found {
		return NotFound
	}
	if result == Cancelled {
		if snap, ok := o.registry.get(id); ok {
			o.log.Info("job_cancelled", "job_id", id.String(), "trace_id", snap.TraceID)
			o.archive.Save(snap)
		}
	}
	return result
}

// Size reports the number of ids currently in the intake queue, including
// tombstoned (cancelled) ones not yet discarded by a worker.
func (o *Orchestrator) Size() int {
	return o.queue.size()
}

// ActiveCount reports the number of jobs currently in state processing.
func (o *Orchestrator) ActiveCount() int {
	return o.registry.activeCount()
}

// Start launches MaxConcurrentJobs worker goroutines. It returns once they
// are all running; it does not block for the lifetime of the service.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator: already running")
	}
	o.stopCh = make(chan struct{})
	o.running = true
	o.mu.Unlock()

	n := o.cfg.workers()
	o.log.Info("queue_starting", "max_concurrent_jobs", n)
	for i := 0; i < n; i++ {
		o.wg.Add(1)
		go o.runWorker(i)
	}
	o.log.Info("queue_started", "max_concurrent_jobs", n)
	return nil
}

// Stop signals every worker to exit and waits for them, bounded by ctx's
// deadline if it has one. Worker panics are recovered and logged, never
// propagated to the caller.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return nil
	}
	o.running = false
	close(o.stopCh)
	o.mu.Unlock()

	o.log.Info("queue_stopping")

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.log.Info("queue_stopped")
		return nil
	case <-ctx.Done():
		o.log.Warn("queue_stop_timeout", "error", ctx.Err().Error())
		return ctx.Err()
	}
}
