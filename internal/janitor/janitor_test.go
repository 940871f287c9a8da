package janitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorozov/docling-orchestrator/internal/platform/logger"
)

func TestCleanOrphansRemovesOldJobDirsOnly(t *testing.T) {
	tempDir := t.TempDir()
	log, err := logger.New("test")
	require.NoError(t, err)

	oldDir := filepath.Join(tempDir, "job_old")
	freshDir := filepath.Join(tempDir, "job_fresh")
	notAJobDir := filepath.Join(tempDir, "other")

	require.NoError(t, os.MkdirAll(oldDir, 0o755))
	require.NoError(t, os.MkdirAll(freshDir, 0o755))
	require.NoError(t, os.MkdirAll(notAJobDir, 0o755))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldDir, old, old))

	removed := CleanOrphans(tempDir, time.Hour, log)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(oldDir)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(freshDir)
	assert.NoError(t, err)

	_, err = os.Stat(notAJobDir)
	assert.NoError(t, err)
}

func TestCleanOrphansMissingTempDirIsNoop(t *testing.T) {
	log, err := logger.New("test")
	require.NoError(t, err)

	removed := CleanOrphans(filepath.Join(t.TempDir(), "does-not-exist"), time.Hour, log)
	assert.Equal(t, 0, removed)
}
