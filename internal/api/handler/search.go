package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/logger"
	"github.com/harshgondal/Job-Finder/internal/service"
)

// Searcher runs the search pipeline.
type Searcher interface {
	Search(ctx context.Context, req service.SearchRequest) (*service.SearchResponse, error)
}

// MatchStatusReader reads cached matches by key.
type MatchStatusReader interface {
	Status(ctx context.Context, keys []string) (map[string]*domain.Match, error)
}

// SearchHandler handles search and match polling endpoints.
type SearchHandler struct {
	searcher Searcher
	matches  MatchStatusReader
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searcher Searcher, matches MatchStatusReader) *SearchHandler {
	return &SearchHandler{searcher: searcher, matches: matches}
}

// Search handles POST /api/v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	var req service.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	logger.CtxInfo(ctx, "Search requested: role=%q, location=%q, page=%d, profile=%t",
		req.Role, req.Location, req.Page, req.ProfileID != "")

	resp, err := h.searcher.Search(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// MatchStatus handles GET /api/v1/match-status?keys=a,b.
func (h *SearchHandler) MatchStatus(c *gin.Context) {
	keys := splitKeys(c.QueryArray("keys"))
	if len(keys) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'keys' is required",
		})
		return
	}

	results, err := h.matches.Status(c.Request.Context(), keys)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// splitKeys accepts both repeated and comma separated keys.
func splitKeys(raw []string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, item := range raw {
		for _, k := range strings.Split(item, ",") {
			k = strings.TrimSpace(k)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}
