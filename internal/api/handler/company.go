package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/logger"
	"github.com/harshgondal/Job-Finder/internal/service"
)

// Researcher writes company briefings.
type Researcher interface {
	Research(ctx context.Context, company string, p *domain.Profile) (*domain.CompanyResearch, error)
}

// CompanyHandler handles company research.
type CompanyHandler struct {
	research Researcher
	profiles service.ProfileLoader
}

// NewCompanyHandler creates a new company handler. profiles may be nil.
func NewCompanyHandler(research Researcher, profiles service.ProfileLoader) *CompanyHandler {
	return &CompanyHandler{research: research, profiles: profiles}
}

// Research handles GET /api/v1/company-research?company=&profile_id=.
func (h *CompanyHandler) Research(c *gin.Context) {
	ctx := c.Request.Context()
	company := c.Query("company")

	var profile *domain.Profile
	if id := c.Query("profile_id"); id != "" && h.profiles != nil {
		p, err := h.profiles.LoadProfileByID(ctx, id)
		if err != nil {
			logger.CtxWarn(ctx, "Profile load failed, researching without it: profile_id=%s, error=%v", id, err)
		} else {
			profile = p
		}
	}

	research, err := h.research.Research(ctx, company, profile)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, research)
}
