// Package archive is an optional, disabled-by-default terminal-job mirror.
// The in-memory registry remains the orchestrator's only source of truth;
// this package only gives an operator a way to inspect job history across
// restarts, since terminal jobs are never otherwise persisted.
package archive

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dmorozov/docling-orchestrator/internal/domain"
	"github.com/dmorozov/docling-orchestrator/internal/platform/logger"
)

// Record is the row shape mirrored for every job that reaches a terminal
// state. It is a flattened, storage-friendly projection of domain.Job, not
// the live record — archive writes are one-way and best-effort.
type Record struct {
	ID            string `gorm:"primaryKey"`
	FilePath      string
	State         string
	ErrorType     string
	Error         string
	CorrelationID string
	TraceID       string
	CreatedAt     time.Time
	CompletedAt   time.Time
}

// Mirror writes terminal jobs into a local SQLite database for later
// inspection. A nil *Mirror is valid and every method on it is a no-op, so
// callers need not branch on whether archival is enabled.
type Mirror struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to (and creates if necessary) the SQLite database at path,
// migrating the Record table. Passing an empty path disables archival:
// Open returns (nil, nil) and every Mirror method becomes a no-op.
func Open(path string, log *logger.Logger) (*Mirror, error) {
	if path == "" {
		return nil, nil
	}

	gormLog := gormlogger.Default.LogMode(gormlogger.Warn)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("archive: opening sqlite database: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("archive: migrating schema: %w", err)
	}

	return &Mirror{db: db, log: log.With("component", "archive")}, nil
}

// Save mirrors a terminal job. It is fire-and-forget: failures are logged,
// never propagated, since archival is a diagnostic aid, not a durability
// guarantee.
func (m *Mirror) Save(job domain.Job) {
	if m == nil || m.db == nil {
		return
	}
	if !job.State.Terminal() {
		return
	}

	completedAt := time.Time{}
	if job.CompletedAt != nil {
		completedAt = *job.CompletedAt
	}

	rec := Record{
		ID:            job.ID.String(),
		FilePath:      job.FilePath,
		State:         string(job.State),
		ErrorType:     string(job.ErrorType),
		Error:         job.Error,
		CorrelationID: job.CorrelationID,
		TraceID:       job.TraceID,
		CreatedAt:     job.CreatedAt,
		CompletedAt:   completedAt,
	}

	if err := m.db.Save(&rec).Error; err != nil {
		m.log.Warn("archive_write_failed", "job_id", rec.ID, "error", err.Error())
	}
}

// Close releases the underlying database connection.
func (m *Mirror) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
