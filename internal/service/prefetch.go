package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/logger"
)

// PrefetchService warms the aggregate and normalization caches so the
// first user search for a popular role is fast.
type PrefetchService struct {
	aggregator JobAggregator
	normalizer JobNormalizer
	cache      *cache.Cache
	logger     *logger.Logger
	workers    int
	topJobs    int
	ttl        time.Duration
}

// PrefetchConfig holds configuration for the prefetch service.
type PrefetchConfig struct {
	Workers       int
	TopJobs       int
	NormalizedTTL time.Duration
}

// NewPrefetchService creates a new prefetch service.
func NewPrefetchService(aggregator JobAggregator, normalizer JobNormalizer, c *cache.Cache, log *logger.Logger, cfg *PrefetchConfig) *PrefetchService {
	s := &PrefetchService{
		aggregator: aggregator,
		normalizer: normalizer,
		cache:      c,
		logger:     log,
		workers:    cfg.Workers,
		topJobs:    cfg.TopJobs,
		ttl:        cfg.NormalizedTTL,
	}
	if s.workers <= 0 {
		s.workers = 4
	}
	if s.topJobs <= 0 {
		s.topJobs = 10
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if s.logger == nil {
		s.logger = logger.GetDefault()
	}
	return s
}

// log returns a logger from context if available, otherwise the service logger.
func (s *PrefetchService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// PrefetchStats holds statistics for a prefetch run.
type PrefetchStats struct {
	Roles          int64
	TotalJobs      int64
	NormalizedJobs int64
	SkippedJobs    int64
	FailedJobs     int64
	StartTime      time.Time
	EndTime        time.Time
}

// PrefetchOptions holds options for a prefetch run.
type PrefetchOptions struct {
	Location string
	Force    bool // re-normalize jobs that are already cached
}

type prefetchResult struct {
	jobKey  string
	skipped bool
	err     error
}

var errAlreadyCached = errors.New("skipped: already normalized")

// Run aggregates every role and normalizes its top jobs on a worker pool.
func (s *PrefetchService) Run(ctx context.Context, roles []string, opts *PrefetchOptions) (*PrefetchStats, error) {
	if opts == nil {
		opts = &PrefetchOptions{}
	}
	if s.normalizer == nil {
		return nil, fmt.Errorf("prefetch: a normalizer is required")
	}

	stats := &PrefetchStats{StartTime: time.Now()}

	s.log(ctx).WithFields(logger.Fields{
		"roles":    len(roles),
		"location": opts.Location,
		"workers":  s.workers,
		"force":    opts.Force,
	}).Info("Starting prefetch")

	jobsChan := make(chan domain.Job, s.workers*2)
	resultsChan := make(chan *prefetchResult, s.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, jobsChan, resultsChan, opts)
		}()
	}

	done := make(chan struct{})
	go func() {
		for result := range resultsChan {
			switch {
			case result.skipped:
				atomic.AddInt64(&stats.SkippedJobs, 1)
			case result.err != nil:
				atomic.AddInt64(&stats.FailedJobs, 1)
				s.log(ctx).WithField(logger.FieldJobKey, result.jobKey).WithError(result.err).Warn("Failed to normalize job")
			default:
				atomic.AddInt64(&stats.NormalizedJobs, 1)
			}
		}
		close(done)
	}()

feed:
	for _, role := range roles {
		if ctx.Err() != nil {
			break
		}
		agg, err := s.aggregator.Aggregate(ctx, domain.SearchCriteria{Query: role, Location: opts.Location})
		if err != nil {
			s.log(ctx).WithField("role", role).WithError(err).Error("Failed to aggregate role")
			continue
		}
		atomic.AddInt64(&stats.Roles, 1)

		jobs := agg.Results
		if len(jobs) > s.topJobs {
			jobs = jobs[:s.topJobs]
		}
		atomic.AddInt64(&stats.TotalJobs, int64(len(jobs)))

		for _, job := range jobs {
			select {
			case jobsChan <- job:
			case <-ctx.Done():
				break feed
			}
		}
	}

	close(jobsChan)
	wg.Wait()

	close(resultsChan)
	<-done

	stats.EndTime = time.Now()

	s.log(ctx).WithFields(logger.Fields{
		"roles":      stats.Roles,
		"total":      stats.TotalJobs,
		"normalized": stats.NormalizedJobs,
		"skipped":    stats.SkippedJobs,
		"failed":     stats.FailedJobs,
		"duration":   stats.EndTime.Sub(stats.StartTime).String(),
	}).Info("Prefetch completed")

	return stats, ctx.Err()
}

func (s *PrefetchService) worker(ctx context.Context, jobs <-chan domain.Job, results chan<- *prefetchResult, opts *PrefetchOptions) {
	for job := range jobs {
		if ctx.Err() != nil {
			results <- &prefetchResult{jobKey: cache.JobKey(job), err: ctx.Err()}
			continue
		}
		result := &prefetchResult{jobKey: cache.JobKey(job)}
		if err := s.warm(ctx, job, opts.Force); err != nil {
			if errors.Is(err, errAlreadyCached) {
				result.skipped = true
			} else {
				result.err = err
			}
		}
		results <- result
	}
}

func (s *PrefetchService) warm(ctx context.Context, job domain.Job, force bool) error {
	key := cache.NormalizedKey(cache.JobKey(job))
	if !force {
		var existing domain.NormalizedJob
		if s.cache.GetJSON(ctx, key, &existing) {
			return errAlreadyCached
		}
	}
	nj, err := s.normalizer.Normalize(ctx, job)
	if err != nil {
		return err
	}
	if !s.cache.SetJSON(ctx, key, nj, s.ttl) {
		return fmt.Errorf("cache write failed for %s", key)
	}
	return nil
}
