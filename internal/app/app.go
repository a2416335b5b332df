// Package app wires configuration into the services shared by the API
// server and the prefetch CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/config"
	"github.com/harshgondal/Job-Finder/internal/llm"
	"github.com/harshgondal/Job-Finder/internal/logger"
	"github.com/harshgondal/Job-Finder/internal/repository"
	"github.com/harshgondal/Job-Finder/internal/service"
	"github.com/harshgondal/Job-Finder/internal/source"
	"github.com/harshgondal/Job-Finder/internal/source/adzuna"
	"github.com/harshgondal/Job-Finder/internal/source/jsearch"
	"github.com/harshgondal/Job-Finder/internal/storage"
)

// App holds the constructed services.
type App struct {
	Config *config.Config
	DB     *gorm.DB

	Cache      *cache.Cache
	CacheRepo  *repository.CacheRepository // nil with the memory backend
	Profiles   service.ProfileLoader
	Sources    []source.JobSource
	LLM        llm.Client // nil when no backend is configured
	Archive    *service.SnapshotArchive
	Aggregator *service.Aggregator
	Normalizer *service.Normalizer
	Matches    *service.MatchOrchestrator
	Search     *service.SearchService
	Research   *service.CompanyResearchService
	Prefetch   *service.PrefetchService
}

// New builds every service from cfg. Optional integrations that are not
// configured are left out and logged.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	a.DB = db

	var store cache.Store
	switch cfg.Cache.Backend {
	case "database":
		a.CacheRepo = repository.NewCacheRepository(db)
		store = a.CacheRepo
	default:
		store = cache.NewMemoryStore(cfg.Cache.MaxEntries)
	}
	a.Cache = cache.New(store)
	a.Profiles = service.NewCachedProfiles(repository.NewProfileRepository(db), a.Cache, 0)

	a.Sources, err = buildSources(cfg.Sources)
	if err != nil {
		return nil, err
	}
	if len(a.Sources) == 0 {
		log.Warn("No job sources configured; searches will return nothing")
	}

	a.LLM, err = llm.New(ctx, cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrUnavailable):
		log.WithField("provider", cfg.LLM.Provider).Warn("LLM disabled; using rule-based fallbacks")
		a.LLM = nil
	case err != nil:
		return nil, fmt.Errorf("init llm: %w", err)
	}

	if cfg.Storage.Enabled {
		s3, err := storage.NewS3Storage(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
		a.Archive = service.NewSnapshotArchive(s3)
	}

	var ratings service.RatingFinder
	if rs := service.NewRatingService(cfg.Ratings, a.Cache, cfg.Cache.RatingTTL); rs != nil {
		ratings = rs
	}

	a.Aggregator = service.NewAggregator(
		a.Sources,
		a.Cache,
		service.NewRoleSuggester(a.LLM),
		ratings,
		a.Archive,
		service.AggregatorConfig{TTL: cfg.Cache.AggregateTTL, DefaultCountry: cfg.Sources.DefaultCountry},
	)
	a.Normalizer = service.NewNormalizer(a.LLM)
	a.Matches = service.NewMatchOrchestrator(a.Cache, service.NewMatchAgent(a.LLM), service.OrchestratorConfig{
		MatchTTL:         cfg.Cache.MatchTTL,
		ExplainTimeout:   cfg.Match.ExplainTimeout,
		DistributedClaim: cfg.Match.DistributedClaim,
		ClaimTTL:         cfg.Match.ClaimTTL,
	})
	a.Search = service.NewSearchService(a.Profiles, a.Aggregator, a.Normalizer, a.Matches, a.Cache, service.SearchConfig{
		PageSize:      cfg.Search.PageSize,
		ScoringPool:   cfg.Search.ScoringPool,
		NormalizedTTL: cfg.Cache.NormalizedTTL,
	})
	a.Research = service.NewCompanyResearchService(a.LLM, ratings, a.Cache, cfg.Cache.CompanyTTL)
	a.Prefetch = service.NewPrefetchService(a.Aggregator, a.Normalizer, a.Cache, log, &service.PrefetchConfig{
		Workers:       cfg.Prefetch.Workers,
		TopJobs:       cfg.Prefetch.TopJobs,
		NormalizedTTL: cfg.Cache.NormalizedTTL,
	})

	log.WithFields(logger.Fields{
		"sources":       len(a.Sources),
		"llm":           a.LLM != nil,
		"cache_backend": cfg.Cache.Backend,
		"archive":       a.Archive != nil,
		"ratings":       ratings != nil,
	}).Info("Services initialized")

	return a, nil
}

// Wait blocks until background explanations and archive uploads finish.
func (a *App) Wait() {
	a.Matches.Wait()
	a.Archive.Wait()
}

// Close releases the database connection.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func buildSources(cfg config.SourcesConfig) ([]source.JobSource, error) {
	var sources []source.JobSource
	if cfg.JSearch.Enabled && cfg.JSearch.APIKey != "" {
		c, err := jsearch.NewClient(jsearch.Config{
			APIKey:   cfg.JSearch.APIKey,
			Host:     cfg.JSearch.Host,
			BaseURL:  cfg.JSearch.BaseURL,
			Timeout:  cfg.JSearch.Timeout,
			Cooldown: cfg.Cooldown,
		})
		if err != nil {
			return nil, fmt.Errorf("init jsearch: %w", err)
		}
		sources = append(sources, c)
	}
	if cfg.Adzuna.Enabled && cfg.Adzuna.AppID != "" && cfg.Adzuna.AppKey != "" {
		c, err := adzuna.NewClient(adzuna.Config{
			AppID:    cfg.Adzuna.AppID,
			AppKey:   cfg.Adzuna.AppKey,
			Country:  cfg.Adzuna.Country,
			BaseURL:  cfg.Adzuna.BaseURL,
			Timeout:  cfg.Adzuna.Timeout,
			Cooldown: cfg.Cooldown,
		})
		if err != nil {
			return nil, fmt.Errorf("init adzuna: %w", err)
		}
		sources = append(sources, c)
	}
	return sources, nil
}
