package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	otelgin "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/dmorozov/docling-orchestrator/internal/http/handlers"
	httpMW "github.com/dmorozov/docling-orchestrator/internal/http/middleware"
	"github.com/dmorozov/docling-orchestrator/internal/http/response"
	"github.com/dmorozov/docling-orchestrator/internal/platform/logger"
	"github.com/dmorozov/docling-orchestrator/internal/tracing"
)

// RouterConfig collects everything NewRouter needs to wire the six-endpoint
// surface spec.md §4.4 describes.
type RouterConfig struct {
	HealthHandler *httpH.HealthHandler
	JobHandler    *httpH.JobHandler

	AuthToken string
	AuthMode  string

	Log *logger.Logger
}

// NewRouter builds the gin engine: a bare-engine health route, then an
// /api/v1 group whose mutating/reading endpoints sit behind the bearer-token
// middleware.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, _ any) {
		response.RespondError(c, http.StatusInternalServerError, "internal server error")
		c.Abort()
	}))
	r.Use(otelgin.Middleware(tracing.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	r.GET("/api/v1/health", cfg.HealthHandler.HealthCheck)

	v1 := r.Group("/api/v1")
	v1.Use(httpMW.RequireAuth(cfg.AuthToken, cfg.AuthMode, cfg.Log))
	{
		v1.POST("/process", cfg.JobHandler.Process)
		v1.POST("/process/batch", cfg.JobHandler.ProcessBatch)
		v1.GET("/jobs/:id", cfg.JobHandler.GetJob)
		v1.GET("/jobs", cfg.JobHandler.ListJobs)
		v1.DELETE("/jobs/:id", cfg.JobHandler.CancelJob)
	}

	return r
}
