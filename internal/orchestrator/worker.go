package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmorozov/docling-orchestrator/internal/convert"
	"github.com/dmorozov/docling-orchestrator/internal/domain"
	"github.com/dmorozov/docling-orchestrator/internal/platform/logger"
)

// pollInterval bounds how long a worker waits for a new id before
// re-checking the shutdown flag, so Stop is observed promptly even when the
// queue is idle.
const pollInterval = time.Second

func (o *Orchestrator) runWorker(idx int) {
	defer o.wg.Done()
	log := o.log.With("worker", idx)
	log.Info("worker_started")
	defer log.Info("worker_stopped")

	for {
		select {
		case <-o.stopCh:
			return
		default:
		}

		id, ok := o.take()
		if !ok {
			continue
		}

		o.processJob(id, log)
	}
}

// take blocks for up to pollInterval waiting for a queued id, or returns
// false so the caller can re-check the shutdown signal.
func (o *Orchestrator) take() (uuid.UUID, bool) {
	if id, ok := o.queue.tryPop(); ok {
		return id, true
	}

	timer := time.NewTimer(pollInterval)
	defer timer.Stop()

	select {
	case <-o.queue.notify:
		return o.queue.tryPop()
	case <-timer.C:
		return uuid.Nil, false
	case <-o.stopCh:
		return uuid.Nil, false
	}
}

func (o *Orchestrator) processJob(id uuid.UUID, log *logger.Logger) {
	snap, ok := o.registry.get(id)
	if !ok || snap.State == domain.StateCancelled {
		return
	}

	claimed := o.registry.mutate(id, func(j *domain.Job) {
		if j.State != domain.StateQueued {
			return
		}
		now := time.Now()
		j.State = domain.StateProcessing
		j.StartedAt = &now
		j.Progress = 10
		j.MemRSSStartMB = rssMB()
	})
	if !claimed {
		return
	}

	snap, _ = o.registry.get(id)
	if snap.State != domain.StateProcessing {
		// Lost the race to Cancel between dequeue and claim; discard.
		return
	}

	log = log.With("trace_id", snap.TraceID)
	log.Info("job_processing_started", "job_id", id.String())

	tier := snap.Options.ProcessingTier
	if tier == "" {
		tier = o.cfg.defaultTier()
	}
	timeoutSeconds := o.cfg.TimeoutBaseSeconds
	if snap.Options.TimeoutSeconds != nil {
		timeoutSeconds = *snap.Options.TimeoutSeconds
	} else {
		base, perPage := o.cfg.TimeoutBaseSeconds, o.cfg.TimeoutPerPageSeconds
		if base <= 0 {
			base = 60
		}
		if perPage <= 0 {
			perPage = 10
		}
		timeoutSeconds = calcTimeout(pageCountEstimate, tier, base, perPage)
	}

	o.registry.mutate(id, func(j *domain.Job) { j.Progress = 20 })

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	outcome, err := o.invokeEngine(ctx, convert.Request{
		FilePath:         snap.FilePath,
		ProcessingTier:   tier,
		Languages:        snap.Options.Languages,
		ForceFullPageOCR: snap.Options.ForceFullPageOCR,
		TraceID:          snap.TraceID,
	})

	o.finish(id, timeoutSeconds, outcome, err, log)
}

// invokeEngine wraps the engine call with a panic recovery so a defective
// or third-party conversion engine can never take a worker goroutine down
// with it; a recovered panic is reported the same way an engine error would
// be (step 9 of the worker lifecycle).
func (o *Orchestrator) invokeEngine(ctx context.Context, req convert.Request) (outcome convert.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = convert.Outcome{}
			err = fmt.Errorf("conversion engine panic: %v", r)
		}
	}()
	return o.engine.Convert(ctx, req)
}

func (o *Orchestrator) finish(id uuid.UUID, timeoutSeconds int, outcome convert.Outcome, err error, log *logger.Logger) {
	now := time.Now()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		o.registry.mutate(id, func(j *domain.Job) {
			j.State = domain.StateFailed
			j.ErrorType = domain.ErrorTypeTimeout
			j.Error = fmt.Sprintf("Processing timeout after %d seconds", timeoutSeconds)
			j.CompletedAt = &now
			j.Progress = 100
			j.MemRSSEndMB = rssMB()
		})
		log.Warn("job_timeout", "job_id", id.String(), "timeout_seconds", timeoutSeconds)

	case err != nil:
		o.registry.mutate(id, func(j *domain.Job) {
			j.State = domain.StateFailed
			j.ErrorType = domain.ErrorTypeProcessingError
			j.Error = err.Error()
			j.CompletedAt = &now
			j.Progress = 100
			j.MemRSSEndMB = rssMB()
		})
		log.Error("job_failed", "job_id", id.String(), "error", err.Error())

	case outcome.Status == "error":
		o.registry.mutate(id, func(j *domain.Job) {
			j.State = domain.StateFailed
			j.ErrorType = domain.ErrorTypeProcessingError
			j.Error = outcome.Error
			j.CompletedAt = &now
			j.Progress = 100
			j.MemRSSEndMB = rssMB()
		})
		log.Error("job_failed", "job_id", id.String(), "error", outcome.Error)

	default:
		o.registry.mutate(id, func(j *domain.Job) {
			j.State = domain.StateCompleted
			j.Progress = 90
			j.Result = &domain.Result{
				Markdown: outcome.Markdown,
				Metadata: outcome.Metadata,
			}
			j.Progress = 100
			j.CompletedAt = &now
			j.MemRSSEndMB = rssMB()
		})
		log.Info("job_completed", "job_id", id.String())
	}

	snap, _ := o.registry.get(id)
	o.archive.Save(snap)
	log.Info("job_finished",
		"job_id", id.String(),
		"state", string(snap.State),
		"mem_rss_start_mb", snap.MemRSSStartMB,
		"mem_rss_end_mb", snap.MemRSSEndMB,
		"mem_rss_delta_mb", snap.MemRSSEndMB-snap.MemRSSStartMB,
	)
}
