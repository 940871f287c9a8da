// Package janitor reclaims per-job scratch directories left behind by a
// process that exited without running its own cleanup.
package janitor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmorozov/docling-orchestrator/internal/platform/logger"
)

// MaxAge is how old a job_<uuid> directory must be before it's considered
// orphaned and eligible for deletion.
const MaxAge = time.Hour

// JobDir returns the scratch directory for jobID under tempDir, creating it
// if necessary.
func JobDir(tempDir, jobID string) (string, error) {
	dir := filepath.Join(tempDir, "job_"+jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("janitor: create job dir: %w", err)
	}
	return dir, nil
}

// CleanOrphans scans tempDir for job_<uuid> subdirectories whose mtime is
// older than maxAge and removes them. A failure on any single entry is
// logged and skipped; CleanOrphans never returns an error that should abort
// service startup. It reports how many directories were removed.
func CleanOrphans(tempDir string, maxAge time.Duration, log *logger.Logger) int {
	log = log.With("component", "janitor")
	log.Info("orphan_cleanup_starting", "temp_dir", tempDir, "max_age_seconds", int(maxAge.Seconds()))

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("temp_dir_not_found", "path", tempDir)
			return 0
		}
		log.Warn("orphan_cleanup_list_failed", "path", tempDir, "error", err.Error())
		return 0
	}

	now := time.Now()
	cleaned := 0

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "job_") {
			continue
		}

		path := filepath.Join(tempDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			log.Warn("orphan_cleanup_stat_failed", "path", path, "error", err.Error())
			continue
		}

		age := now.Sub(info.ModTime())
		if age <= maxAge {
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			log.Warn("orphan_cleanup_remove_failed", "path", path, "error", err.Error())
			continue
		}
		cleaned++
	}

	log.Info("orphan_cleanup_completed", "temp_dir", tempDir, "removed", cleaned)
	return cleaned
}

// EnsureTempDir creates tempDir (and parents) if it does not already exist.
func EnsureTempDir(tempDir string) error {
	return os.MkdirAll(tempDir, 0o755)
}

// DefaultTempDir mirrors <system temp>/docling when no override is
// configured.
func DefaultTempDir() string {
	return filepath.Join(os.TempDir(), "docling")
}
