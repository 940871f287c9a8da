package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorozov/docling-orchestrator/internal/domain"
)

func newTestOrchestrator(t *testing.T, engine *fakeEngine) *Orchestrator {
	t.Helper()
	o := New(engine, testLogger(t), Config{
		MaxConcurrentJobs:     1,
		DefaultTier:           domain.TierStandard,
		TimeoutBaseSeconds:    60,
		TimeoutPerPageSeconds: 10,
	})
	require.NoError(t, o.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = o.Stop(ctx)
	})
	return o
}

func TestHappyPathSingle(t *testing.T) {
	engine := newFakeEngine()
	o := newTestOrchestrator(t, engine)

	job := o.Enqueue("/t/a.pdf", domain.Options{}, "", "")
	final := waitForState(t, o, job.ID, domain.StateCompleted, time.Second)

	assert.Equal(t, 100, final.Progress)
	require.NotNil(t, final.Result)
	assert.Equal(t, domain.TierStandard, final.Result.Metadata.ProcessingTier)
	assert.NotNil(t, final.CompletedAt)
}

func TestBatchMixedOutcomes(t *testing.T) {
	engine := newFakeEngine()
	engine.fail["/t/b.pdf"] = "boom"
	o := newTestOrchestrator(t, engine)

	correlationID, jobs := o.EnqueueBatch([]string{"/t/a.pdf", "/t/b.pdf", "/t/c.pdf"}, domain.Options{}, "")
	require.Len(t, jobs, 3)

	seen := map[string]bool{}
	for _, j := range jobs {
		assert.Equal(t, correlationID, j.CorrelationID)
		seen[j.CorrelationID] = true
	}
	assert.Len(t, seen, 1)

	a := waitForState(t, o, jobs[0].ID, domain.StateCompleted, time.Second)
	b := waitForState(t, o, jobs[1].ID, domain.StateFailed, time.Second)
	c := waitForState(t, o, jobs[2].ID, domain.StateCompleted, time.Second)

	assert.Equal(t, domain.StateCompleted, a.State)
	assert.Equal(t, domain.ErrorTypeProcessingError, b.ErrorType)
	assert.Equal(t, "boom", b.Error)
	assert.Equal(t, domain.StateCompleted, c.State)
}

func TestCancelQueuedDiscardsWithoutCallingEngine(t *testing.T) {
	engine := newFakeEngine()
	engine.block["/t/slow.pdf"] = true
	o := newTestOrchestrator(t, engine)

	slow := o.Enqueue("/t/slow.pdf", domain.Options{}, "", "")
	// Give the single worker a moment to claim the slow job so the next
	// enqueue is guaranteed to sit in queued state.
	time.Sleep(20 * time.Millisecond)

	x := o.Enqueue("/t/x.pdf", domain.Options{}, "", "")
	result := o.Cancel(x.ID)
	assert.Equal(t, Cancelled, result)

	final, ok := o.Get(x.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StateCancelled, final.State)
	assert.Equal(t, 100, final.Progress)
	assert.NotNil(t, final.CompletedAt)

	// Second cancel is idempotent.
	assert.Equal(t, NotCancellable, o.Cancel(x.ID))

	_ = slow
}

func TestCancelProcessingRejected(t *testing.T) {
	engine := newFakeEngine()
	engine.block["/t/y.pdf"] = true
	o := newTestOrchestrator(t, engine)

	y := o.Enqueue("/t/y.pdf", domain.Options{}, "", "")
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		j, _ := o.Get(y.ID)
		if j.State == domain.StateProcessing {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	result := o.Cancel(y.ID)
	assert.Equal(t, NotCancellable, result)

	j, _ := o.Get(y.ID)
	assert.Equal(t, domain.StateProcessing, j.State)
}

func TestTimeoutTransitionsToFailed(t *testing.T) {
	engine := newFakeEngine()
	engine.block["/t/stuck.pdf"] = true
	o := newTestOrchestrator(t, engine)

	timeoutSeconds := 1
	job := o.Enqueue("/t/stuck.pdf", domain.Options{TimeoutSeconds: &timeoutSeconds}, "", "")
	final := waitForState(t, o, job.ID, domain.StateFailed, 3*time.Second)

	assert.Equal(t, domain.ErrorTypeTimeout, final.ErrorType)
	assert.Contains(t, final.Error, "timeout after 1 seconds")
}

func TestCancelUnknownJobIsNotFound(t *testing.T) {
	engine := newFakeEngine()
	o := newTestOrchestrator(t, engine)

	assert.Equal(t, NotFound, o.Cancel(uuid.New()))
}

func TestEmptyBatchYieldsNoJobs(t *testing.T) {
	engine := newFakeEngine()
	o := newTestOrchestrator(t, engine)

	correlationID, jobs := o.EnqueueBatch(nil, domain.Options{}, "")
	assert.NotEmpty(t, correlationID)
	assert.Empty(t, jobs)
}
