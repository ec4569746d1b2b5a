package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"newsshorts/pipeline"
)

// RegisterRunRoutes registers pipeline run endpoints.
func RegisterRunRoutes(r *gin.Engine, s *Server) {
	g := r.Group("/api")
	g.GET("/status", s.handleStatus)
	g.POST("/run", s.handleRun)
}

// RunRequest is the optional body of POST /api/run.
type RunRequest struct {
	RequestedBy string `json:"requested_by"`
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.runner.Status())
}

// handleRun handles POST /api/run. The run continues after the response.
func (s *Server) handleRun(c *gin.Context) {
	var req RunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	trigger := "api"
	if req.RequestedBy != "" {
		trigger = req.RequestedBy
	}

	id, err := s.runner.Start(s.ctx, trigger)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "run already in progress",
			"state": s.runner.Status().State,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "started",
		"run_id":  id,
		"message": "Pipeline run initiated",
	})
}
