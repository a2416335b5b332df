package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harshgondal/Job-Finder/internal/api"
	"github.com/harshgondal/Job-Finder/internal/app"
	"github.com/harshgondal/Job-Finder/internal/config"
	"github.com/harshgondal/Job-Finder/internal/logger"
)

const purgeInterval = 10 * time.Minute

func main() {
	appLogger := logger.NewFromEnv("jobfinder-api")
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// CONFIG_PATH overrides the default search paths in production.
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize services")
	}
	defer a.Close()

	if a.CacheRepo != nil {
		go purgeExpired(ctx, a, appLogger)
	}

	router := api.SetupRouter(api.Services{
		Search:        a.Search,
		Matches:       a.Matches,
		Research:      a.Research,
		Profiles:      a.Profiles,
		Prefetch:      a.Prefetch,
		PrefetchRoles: cfg.Prefetch.Roles,
	}, cfg.Server, appLogger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	// Let in-flight explanations and snapshot uploads land in the cache.
	a.Wait()

	appLogger.Info("Server exited")
}

func purgeExpired(ctx context.Context, a *app.App, log *logger.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.CacheRepo.PurgeExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("Failed to purge expired cache rows")
				continue
			}
			if n > 0 {
				log.WithField(logger.FieldCount, n).Debug("Purged expired cache rows")
			}
		}
	}
}
