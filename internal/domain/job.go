// Package domain holds the data model shared by the orchestrator and the
// HTTP surface: jobs, their lifecycle states, and per-job options.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// State is one of the five legal job lifecycle states.
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether s is one of the three states a job never leaves.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// Tier is the coarse quality/speed knob that scales both conversion fidelity
// and the computed timeout multiplier.
type Tier string

const (
	TierLightweight Tier = "lightweight"
	TierStandard    Tier = "standard"
	TierAdvanced    Tier = "advanced"
)

// Multiplier returns the timeout multiplier for t, folding any unrecognized
// tier string to 1.0 per the timeout formula.
func (t Tier) Multiplier() float64 {
	switch t {
	case TierLightweight:
		return 0.5
	case TierAdvanced:
		return 2.0
	case TierStandard:
		return 1.0
	default:
		return 1.0
	}
}

// ErrorType classifies why a job failed.
type ErrorType string

const (
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeProcessingError ErrorType = "processing_error"
)

// Options is the bag of per-job overrides a client may supply.
type Options struct {
	ProcessingTier   Tier     `json:"processing_tier,omitempty"`
	Languages        []string `json:"languages,omitempty"`
	ForceFullPageOCR bool     `json:"force_full_page_ocr"`
	TimeoutSeconds   *int     `json:"timeout_seconds,omitempty"`
}

// Metadata describes a completed conversion.
type Metadata struct {
	PageCount        int    `json:"page_count"`
	ProcessingTier   Tier   `json:"processing_tier"`
	Format           string `json:"format"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	OCREngine        string `json:"ocr_engine"`
}

// Result is present iff the owning job is State == StateCompleted.
type Result struct {
	Markdown string   `json:"markdown"`
	Metadata Metadata `json:"metadata"`
}

// Job is the central record tracked by the orchestrator's registry.
//
// Only the orchestrator (on behalf of HTTP handlers) or the worker
// currently owning the job may mutate it; callers outside the orchestrator
// package only ever see a Snapshot, never the live pointer.
type Job struct {
	ID            uuid.UUID
	FilePath      string
	Options       Options
	State         State
	Progress      int
	Result        *Result
	Error         string
	ErrorType     ErrorType
	CreatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	TraceID       string
	CorrelationID string
	MemRSSStartMB float64
	MemRSSEndMB   float64
}

// Snapshot returns a value copy of the job, safe to hand to a reader that
// does not hold the registry lock.
func (j *Job) Snapshot() Job {
	cp := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	if j.Result != nil {
		r := *j.Result
		cp.Result = &r
	}
	if j.Options.Languages != nil {
		langs := make([]string, len(j.Options.Languages))
		copy(langs, j.Options.Languages)
		cp.Options.Languages = langs
	}
	return cp
}
