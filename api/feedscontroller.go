package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RegisterFeedRoutes registers feed listing and preview endpoints.
func RegisterFeedRoutes(r *gin.Engine, s *Server) {
	g := r.Group("/api/feeds")
	g.GET("", s.handleListFeeds)
	g.GET("/articles", s.handlePreviewArticles)
}

func (s *Server) handleListFeeds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"feeds": s.sources})
}

// handlePreviewArticles fetches the configured feeds without running the
// rest of the pipeline. ?limit=N overrides the per-feed limit.
func (s *Server) handlePreviewArticles(c *gin.Context) {
	if s.feeds == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "feed preview is not enabled"})
		return
	}

	limit := s.limit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	articles := s.feeds.FetchAll(c.Request.Context(), s.sources, limit)
	out := make([]gin.H, 0, len(articles))
	for _, a := range articles {
		out = append(out, gin.H{
			"id":        a.ID(),
			"source":    a.Source,
			"title":     a.Title,
			"summary":   a.Summary,
			"link":      a.Link,
			"published": a.Published,
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "articles": out})
}
