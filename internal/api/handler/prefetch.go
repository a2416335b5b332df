package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harshgondal/Job-Finder/internal/logger"
	"github.com/harshgondal/Job-Finder/internal/service"
)

// Prefetcher warms caches for a list of roles.
type Prefetcher interface {
	Run(ctx context.Context, roles []string, opts *service.PrefetchOptions) (*service.PrefetchStats, error)
}

// PrefetchHandler runs cache warm-ups on demand, one at a time.
type PrefetchHandler struct {
	prefetcher   Prefetcher
	defaultRoles []string

	mu            sync.RWMutex
	isRunning     bool
	currentStats  *service.PrefetchStats
	lastRunTime   time.Time
	lastRunStatus string
}

// NewPrefetchHandler creates a new prefetch handler. defaultRoles are used
// when a request names none.
func NewPrefetchHandler(prefetcher Prefetcher, defaultRoles []string) *PrefetchHandler {
	return &PrefetchHandler{prefetcher: prefetcher, defaultRoles: defaultRoles}
}

// PrefetchRequest is the body of a prefetch call.
type PrefetchRequest struct {
	Roles    []string `json:"roles" binding:"omitempty,max=50,dive,min=2"`
	Location string   `json:"location"`
	Force    bool     `json:"force"`
}

// PrefetchResponse is the result of a prefetch call.
type PrefetchResponse struct {
	Message string                 `json:"message"`
	Stats   *service.PrefetchStats `json:"stats,omitempty"`
}

// PrefetchStatusResponse describes the last run.
type PrefetchStatusResponse struct {
	IsRunning     bool                   `json:"is_running"`
	LastRunTime   string                 `json:"last_run_time,omitempty"`
	LastRunStatus string                 `json:"last_run_status,omitempty"`
	CurrentStats  *service.PrefetchStats `json:"current_stats,omitempty"`
}

// Trigger handles POST /api/v1/admin/prefetch.
func (h *PrefetchHandler) Trigger(c *gin.Context) {
	ctx := c.Request.Context()

	var req PrefetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.CtxWarn(ctx, "Invalid prefetch request: client_ip=%s, error=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	roles := req.Roles
	if len(roles) == 0 {
		roles = h.defaultRoles
	}
	if len(roles) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No roles to prefetch"})
		return
	}

	h.mu.Lock()
	if h.isRunning {
		h.mu.Unlock()
		logger.CtxWarn(ctx, "Prefetch request rejected: already running, client_ip=%s", c.ClientIP())
		c.JSON(http.StatusConflict, gin.H{"error": "Prefetch is already running"})
		return
	}
	h.isRunning = true
	h.currentStats = nil
	h.mu.Unlock()

	logger.CtxInfo(ctx, "Starting prefetch: roles=%d, location=%q, force=%v", len(roles), req.Location, req.Force)

	// A dropped client connection must not abort the warm-up.
	runCtx := logger.Detach(ctx)
	start := time.Now()
	stats, err := h.prefetcher.Run(runCtx, roles, &service.PrefetchOptions{
		Location: req.Location,
		Force:    req.Force,
	})
	duration := time.Since(start)

	h.mu.Lock()
	h.isRunning = false
	h.currentStats = stats
	h.lastRunTime = time.Now()
	if err != nil {
		h.lastRunStatus = "failed: " + err.Error()
	} else {
		h.lastRunStatus = "success"
	}
	h.mu.Unlock()

	if err != nil {
		logger.With(logger.Fields{
			logger.FieldDurationMs: duration.Milliseconds(),
		}).Error(ctx, "Prefetch failed: roles=%d, error=%v", len(roles), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logger.With(logger.Fields{
		logger.FieldDurationMs: duration.Milliseconds(),
		logger.FieldCount:      stats.NormalizedJobs,
	}).Info(ctx, "Prefetch completed: roles=%d, total=%d, normalized=%d, skipped=%d, failed=%d",
		stats.Roles, stats.TotalJobs, stats.NormalizedJobs, stats.SkippedJobs, stats.FailedJobs)

	c.JSON(http.StatusOK, PrefetchResponse{
		Message: "Prefetch completed successfully",
		Stats:   stats,
	})
}

// Status handles GET /api/v1/admin/prefetch/status.
func (h *PrefetchHandler) Status(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	resp := PrefetchStatusResponse{
		IsRunning:     h.isRunning,
		LastRunStatus: h.lastRunStatus,
		CurrentStats:  h.currentStats,
	}
	if !h.lastRunTime.IsZero() {
		resp.LastRunTime = h.lastRunTime.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}
