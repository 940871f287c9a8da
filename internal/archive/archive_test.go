package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmorozov/docling-orchestrator/internal/domain"
	"github.com/dmorozov/docling-orchestrator/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	require.NoError(t, err)
	return log
}

func TestOpenEmptyPathDisablesArchival(t *testing.T) {
	m, err := Open("", testLogger(t))
	require.NoError(t, err)
	require.Nil(t, m)

	// Every method on a nil *Mirror must be a safe no-op.
	m.Save(domain.Job{State: domain.StateCompleted})
	require.NoError(t, m.Close())
}

func TestSaveOnlyMirrorsTerminalJobs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	m, err := Open(dbPath, testLogger(t))
	require.NoError(t, err)
	require.NotNil(t, m)
	defer m.Close()

	now := time.Now()
	queued := domain.Job{ID: uuid.New(), State: domain.StateQueued, CreatedAt: now}
	m.Save(queued)

	var count int64
	require.NoError(t, m.db.Model(&Record{}).Count(&count).Error)
	require.Equal(t, int64(0), count)

	completed := domain.Job{
		ID:          uuid.New(),
		FilePath:    "/tmp/doc.pdf",
		State:       domain.StateCompleted,
		CreatedAt:   now,
		CompletedAt: &now,
	}
	m.Save(completed)

	require.NoError(t, m.db.Model(&Record{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	var rec Record
	require.NoError(t, m.db.First(&rec, "id = ?", completed.ID.String()).Error)
	require.Equal(t, "completed", rec.State)
	require.Equal(t, "/tmp/doc.pdf", rec.FilePath)
}
