// Package convert defines the boundary between the job orchestrator and the
// document-conversion engine. The orchestrator never knows how a document
// is actually turned into Markdown; it only sees Convert as a single
// asynchronous, cooperatively cancellable operation.
package convert

import (
	"context"

	"github.com/dmorozov/docling-orchestrator/internal/domain"
)

// Request carries everything the engine needs to convert one document.
type Request struct {
	FilePath         string
	ProcessingTier   domain.Tier
	Languages        []string
	ForceFullPageOCR bool
	TraceID          string
}

// Outcome is the engine's report for a single conversion attempt. Status is
// either "success" or "error"; Error is only set when Status == "error". A
// malformed/unreachable input is reported this way, not as a Go error — Go
// errors from Convert are reserved for the deadline expiring or a panic
// inside the engine, which the worker already handles separately.
type Outcome struct {
	Status   string
	Markdown string
	Metadata domain.Metadata
	Error    string
}

// Engine is the only shape the orchestrator depends on. Implementations must
// honor ctx: a cancelled or expired ctx should abort promptly rather than
// run the conversion to completion.
type Engine interface {
	Convert(ctx context.Context, req Request) (Outcome, error)
}
