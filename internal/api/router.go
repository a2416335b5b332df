package api

import (
	"github.com/gin-gonic/gin"
	"github.com/harshgondal/Job-Finder/internal/api/handler"
	"github.com/harshgondal/Job-Finder/internal/api/middleware"
	"github.com/harshgondal/Job-Finder/internal/config"
	"github.com/harshgondal/Job-Finder/internal/logger"
	"github.com/harshgondal/Job-Finder/internal/service"
)

// Services are the dependencies the routes call into. Prefetch may be nil,
// which leaves the admin routes unregistered.
type Services struct {
	Search        handler.Searcher
	Matches       handler.MatchStatusReader
	Research      handler.Researcher
	Profiles      service.ProfileLoader
	Prefetch      handler.Prefetcher
	PrefetchRoles []string
}

// SetupRouter configures the Gin router with all routes.
func SetupRouter(svc Services, cfg config.ServerConfig, log *logger.Logger) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.CORS))

	healthHandler := handler.NewHealthHandler()
	searchHandler := handler.NewSearchHandler(svc.Search, svc.Matches)
	companyHandler := handler.NewCompanyHandler(svc.Research, svc.Profiles)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/search", searchHandler.Search)
		v1.GET("/match-status", searchHandler.MatchStatus)
		v1.GET("/company-research", companyHandler.Research)

		if svc.Prefetch != nil {
			prefetchHandler := handler.NewPrefetchHandler(svc.Prefetch, svc.PrefetchRoles)
			admin := v1.Group("/admin")
			admin.POST("/prefetch", prefetchHandler.Trigger)
			admin.GET("/prefetch/status", prefetchHandler.Status)
		}
	}

	return r
}
