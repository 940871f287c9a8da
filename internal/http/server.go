package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Server wraps the gin engine in a net/http.Server so the caller can shut it
// down gracefully alongside the orchestrator.
type Server struct {
	Engine     *gin.Engine
	httpServer *http.Server
}

func NewServer(cfg RouterConfig, addr string) *Server {
	engine := NewRouter(cfg)
	return &Server{
		Engine: engine,
		httpServer: &http.Server{
			Addr:    addr,
			Handler: engine,
		},
	}
}

// ListenAndServe blocks until the server stops or fails to start.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
