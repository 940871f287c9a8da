// Package handlers implements the HTTP surface over the orchestrator:
// thin translators from REST calls to orchestrator operations.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmorozov/docling-orchestrator/internal/domain"
	"github.com/dmorozov/docling-orchestrator/internal/http/response"
	"github.com/dmorozov/docling-orchestrator/internal/orchestrator"
)

// JobHandler exposes the job-submission and job-query endpoints.
type JobHandler struct {
	orch *orchestrator.Orchestrator
}

func NewJobHandler(orch *orchestrator.Orchestrator) *JobHandler {
	return &JobHandler{orch: orch}
}

// processRequest is the body of POST /api/v1/process.
type processRequest struct {
	FilePath string          `json:"file_path" binding:"required"`
	Options  *domain.Options `json:"options,omitempty"`
}

// batchProcessRequest is the body of POST /api/v1/process/batch.
type batchProcessRequest struct {
	FilePaths []string        `json:"file_paths" binding:"required"`
	Options   *domain.Options `json:"options,omitempty"`
}

func optionsOrDefault(o *domain.Options) domain.Options {
	if o == nil {
		return domain.Options{}
	}
	return *o
}

// Process handles POST /api/v1/process.
func (h *JobHandler) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	traceID := c.GetString("trace_id")
	job := h.orch.Enqueue(req.FilePath, optionsOrDefault(req.Options), traceID, "")

	c.JSON(http.StatusOK, gin.H{
		"job_id":   job.ID.String(),
		"status":   "queued",
		"message":  "job accepted",
		"trace_id": traceID,
	})
}

// ProcessBatch handles POST /api/v1/process/batch.
func (h *JobHandler) ProcessBatch(c *gin.Context) {
	var req batchProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	traceID := c.GetString("trace_id")
	correlationID, jobs := h.orch.EnqueueBatch(req.FilePaths, optionsOrDefault(req.Options), traceID)

	jobIDs := make([]string, len(jobs))
	for i, j := range jobs {
		jobIDs[i] = j.ID.String()
	}

	c.JSON(http.StatusOK, gin.H{
		"job_ids":         jobIDs,
		"status":          "queued",
		"total_documents": len(jobIDs),
		"correlation_id":  correlationID,
		"trace_id":        traceID,
	})
}

// GetJob handles GET /api/v1/jobs/{id}.
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "job not found")
		return
	}

	job, ok := h.orch.Get(id)
	if !ok {
		response.RespondError(c, http.StatusNotFound, "job not found")
		return
	}

	c.JSON(http.StatusOK, projectJob(job))
}

// ListJobs handles GET /api/v1/jobs.
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs := h.orch.List()
	projected := make([]jobProjection, len(jobs))
	for i, j := range jobs {
		projected[i] = projectJob(j)
	}
	c.JSON(http.StatusOK, gin.H{"jobs": projected})
}

// CancelJob handles DELETE /api/v1/jobs/{id}.
func (h *JobHandler) CancelJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "job not found")
		return
	}

	traceID := c.GetString("trace_id")
	switch h.orch.Cancel(id) {
	case orchestrator.Cancelled:
		c.JSON(http.StatusOK, gin.H{
			"status":   "cancelled",
			"job_id":   id.String(),
			"trace_id": traceID,
		})
	case orchestrator.NotFound:
		response.RespondError(c, http.StatusNotFound, "job not found")
	default:
		response.RespondError(c, http.StatusBadRequest, "job is not cancellable")
	}
}

// jobProjection is the wire shape of a Job, matching spec.md §3/§6.
type jobProjection struct {
	ID            string           `json:"id"`
	FilePath      string           `json:"file_path"`
	Options       domain.Options   `json:"options"`
	State         domain.State     `json:"state"`
	Progress      int              `json:"progress"`
	Result        *domain.Result   `json:"result"`
	Error         string           `json:"error,omitempty"`
	ErrorType     domain.ErrorType `json:"error_type,omitempty"`
	CreatedAt     string           `json:"created_at"`
	StartedAt     *string          `json:"started_at"`
	CompletedAt   *string          `json:"completed_at"`
	TraceID       string           `json:"trace_id"`
	CorrelationID string           `json:"correlation_id,omitempty"`
	MemRSSStartMB float64          `json:"memory_rss_start_mb"`
	MemRSSEndMB   float64          `json:"memory_rss_end_mb"`
}

func projectJob(j domain.Job) jobProjection {
	p := jobProjection{
		ID:            j.ID.String(),
		FilePath:      j.FilePath,
		Options:       j.Options,
		State:         j.State,
		Progress:      j.Progress,
		Result:        j.Result,
		Error:         j.Error,
		ErrorType:     j.ErrorType,
		CreatedAt:     j.CreatedAt.Format(timeLayout),
		TraceID:       j.TraceID,
		CorrelationID: j.CorrelationID,
		MemRSSStartMB: j.MemRSSStartMB,
		MemRSSEndMB:   j.MemRSSEndMB,
	}
	if j.StartedAt != nil {
		s := j.StartedAt.Format(timeLayout)
		p.StartedAt = &s
	}
	if j.CompletedAt != nil {
		s := j.CompletedAt.Format(timeLayout)
		p.CompletedAt = &s
	}
	return p
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
