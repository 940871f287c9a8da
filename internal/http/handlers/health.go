package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmorozov/docling-orchestrator/internal/orchestrator"
)

// serviceVersion is reported verbatim in the health payload.
const serviceVersion = "1.0.0"

// HealthHandler serves the unauthenticated liveness/status endpoint.
type HealthHandler struct {
	orch           *orchestrator.Orchestrator
	processingTier string
}

func NewHealthHandler(orch *orchestrator.Orchestrator, processingTier string) *HealthHandler {
	return &HealthHandler{orch: orch, processingTier: processingTier}
}

// HealthCheck handles GET /api/v1/health.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"version":         serviceVersion,
		"processing_tier": h.processingTier,
		"queue_size":      h.orch.Size(),
		"active_jobs":     h.orch.ActiveCount(),
		"trace_id":        c.GetString("trace_id"),
	})
}
