package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"evalpilot/internal/connstore"
	"evalpilot/internal/copilot"
	"evalpilot/internal/skills"
)

// Server is the HTTP front of the copilot backend.
type Server struct {
	registry     *skills.Registry
	orchestrator *copilot.Orchestrator
	connections  *connstore.Store
	httpServer   *http.Server
}

func New(addr string, reg *skills.Registry, orch *copilot.Orchestrator, conns *connstore.Store) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		registry:     reg,
		orchestrator: orch,
		connections:  conns,
	}

	api := engine.Group("/api")
	api.GET("/healthz", s.handleHealthz)
	api.GET("/copilot/skills", s.handleListSkills)
	api.POST("/copilot/stream", s.handleCopilotStream)
	api.POST("/summary", s.handleSummary)
	api.POST("/connections", s.handleCreateConnection)
	api.GET("/connections/:id", s.handleGetConnection)
	api.DELETE("/connections/:id", s.handleDeleteConnection)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     engine,
		ReadTimeout: 30 * time.Second,
		// No write timeout: the copilot stream stays open for the whole
		// request lifetime.
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Start blocks until the server stops or fails.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
