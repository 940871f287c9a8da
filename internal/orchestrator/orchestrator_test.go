package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmorozov/docling-orchestrator/internal/convert"
	"github.com/dmorozov/docling-orchestrator/internal/domain"
	"github.com/dmorozov/docling-orchestrator/internal/platform/logger"
)

// fakeEngine is a scriptable convert.Engine: by default every path succeeds,
// but individual paths can be configured to fail or block until ctx is
// cancelled so tests can exercise the timeout and mixed-batch scenarios.
type fakeEngine struct {
	mu    sync.Mutex
	fail  map[string]string
	block map[string]bool
	calls []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{fail: map[string]string{}, block: map[string]bool{}}
}

func (f *fakeEngine) Convert(ctx context.Context, req convert.Request) (convert.Outcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.FilePath)
	msg, shouldFail := f.fail[req.FilePath]
	shouldBlock := f.block[req.FilePath]
	f.mu.Unlock()

	if shouldBlock {
		<-ctx.Done()
		return convert.Outcome{}, ctx.Err()
	}
	if shouldFail {
		return convert.Outcome{Status: "error", Error: msg}, nil
	}
	return convert.Outcome{
		Status:   "success",
		Markdown: "# ok\n",
		Metadata: domain.Metadata{PageCount: 1, ProcessingTier: req.ProcessingTier},
	}, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return log
}

func waitForState(t *testing.T, o *Orchestrator, id uuid.UUID, want domain.State, timeout time.Duration) domain.Job {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var last domain.Job
	for time.Now().Before(deadline) {
		j, ok := o.Get(id)
		require.True(t, ok)
		last = j
		if j.State == want {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job never reached state %s, last seen %s", want, last.State)
	return last
}
