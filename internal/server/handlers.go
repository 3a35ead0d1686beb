package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"evalpilot/internal/connstore"
	"evalpilot/internal/copilot"
	"evalpilot/internal/logger"
	"evalpilot/internal/skills"
	"evalpilot/internal/thought"
)

const pingInterval = 15 * time.Second

// copilotRequest is the inbound streaming request body.
type copilotRequest struct {
	Message     string              `json:"message"`
	DataContext *skills.DataContext `json:"data_context,omitempty"`
	Data        []map[string]any    `json:"data,omitempty"`
	SessionID   string              `json:"session_id,omitempty"`
}

// handleCopilotStream runs one copilot request and streams its thoughts and
// final response as SSE events.
func (s *Server) handleCopilotStream(c *gin.Context) {
	var req copilotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	if strings.TrimSpace(req.Message) == "" {
		c.SSEvent("error", gin.H{"message": "message must not be empty", "recoverable": false})
		c.SSEvent("done", gin.H{})
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()[:8]
	}

	st := copilot.NewState(sessionID, req.Message, req.DataContext, req.Data)
	stream := thought.NewStream()
	sub := stream.Subscribe()
	defer stream.Detach()

	// The request context ends the run on client disconnect.
	resultCh := make(chan *copilot.Result, 1)
	go func() {
		resultCh <- s.orchestrator.Run(c.Request.Context(), st, stream)
		stream.Close()
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case t, ok := <-sub:
			if !ok {
				s.writeResult(c, <-resultCh)
				return false
			}
			c.SSEvent("thought", t)
			return true
		case <-ping.C:
			c.SSEvent("ping", gin.H{"ts": time.Now().Unix()})
			return true
		case <-c.Request.Context().Done():
			logger.Log.Infof("Request %s: client disconnected", sessionID)
			return false
		}
	})
}

func (s *Server) writeResult(c *gin.Context, res *copilot.Result) {
	if res.Response != "" {
		c.SSEvent("response", gin.H{"response": res.Response, "metadata": res.Metadata})
	}
	if res.Metrics != nil {
		c.SSEvent("insights", gin.H{"metrics": res.Metrics})
	}
	if res.Error != nil {
		c.SSEvent("error", gin.H{"message": res.Error.Message, "recoverable": res.Error.Recoverable})
	}
	c.SSEvent("done", gin.H{})
}

func (s *Server) handleListSkills(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"skills": s.registry.List()})
}

// handleSummary computes metric statistics for posted rows synchronously,
// without the planning loop. Thoughts are produced but discarded.
type summaryRequest struct {
	Data        []map[string]any    `json:"data"`
	DataContext *skills.DataContext `json:"data_context,omitempty"`
}

func (s *Server) handleSummary(c *gin.Context) {
	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	sk := s.registry.Get("analyze")
	if sk == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analyze skill unavailable"})
		return
	}

	stream := thought.NewStream()
	defer stream.Close()

	params, err := skills.ValidateParams(sk.Metadata(), map[string]any{})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := sk.Execute(c.Request.Context(), &skills.Input{
		Rows:        req.Data,
		DataContext: req.DataContext,
		Params:      params,
	}, stream)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type createConnectionRequest struct {
	Backend string         `json:"backend" binding:"required"`
	DSN     string         `json:"dsn" binding:"required"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func (s *Server) handleCreateConnection(c *gin.Context) {
	var req createConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	h, err := s.connections.Create(req.Backend, req.DSN, req.Meta)
	if err != nil {
		if errors.Is(err, connstore.ErrTooManyHandles) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, h)
}

func (s *Server) handleGetConnection(c *gin.Context) {
	h, err := s.connections.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) handleDeleteConnection(c *gin.Context) {
	s.connections.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}
