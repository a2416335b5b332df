package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/harshgondal/Job-Finder/internal/app"
	"github.com/harshgondal/Job-Finder/internal/config"
	"github.com/harshgondal/Job-Finder/internal/logger"
	"github.com/harshgondal/Job-Finder/internal/service"
)

func main() {
	appLogger := logger.NewFromEnv("jobfinder-prefetch")
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	configPath := flag.String("config", "", "Path to config file")
	rolesFlag := flag.String("roles", "", "Comma-separated roles to warm (defaults to prefetch.roles)")
	location := flag.String("location", "", "Location to search in")
	force := flag.Bool("force", false, "Re-normalize jobs that are already cached")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	roles := cfg.Prefetch.Roles
	if *rolesFlag != "" {
		roles = nil
		for _, r := range strings.Split(*rolesFlag, ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}
	}
	if len(roles) == 0 {
		appLogger.Fatal("No roles to prefetch; pass -roles or set prefetch.roles")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize services")
	}
	defer a.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	appLogger.WithFields(logger.Fields{
		"roles":    len(roles),
		"location": *location,
		"force":    *force,
	}).Info("Starting prefetch")

	stats, err := a.Prefetch.Run(ctx, roles, &service.PrefetchOptions{Location: *location, Force: *force})
	a.Wait()
	if err != nil {
		appLogger.WithError(err).Fatal("Prefetch failed")
	}

	appLogger.WithFields(logger.Fields{
		"roles":      stats.Roles,
		"total":      stats.TotalJobs,
		"normalized": stats.NormalizedJobs,
		"skipped":    stats.SkippedJobs,
		"failed":     stats.FailedJobs,
	}).Info("Prefetch completed")
}
