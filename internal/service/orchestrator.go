package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/logger"
)

// Explainer produces the ready explanation for a profile and job.
type Explainer interface {
	ExplainMatch(ctx context.Context, p *domain.Profile, job domain.NormalizedJob) (domain.Match, error)
}

// OrchestratorConfig holds match orchestration settings.
type OrchestratorConfig struct {
	MatchTTL         time.Duration
	ExplainTimeout   time.Duration
	DistributedClaim bool
	ClaimTTL         time.Duration
}

// MatchOrchestrator returns provisional matches synchronously and fills in
// explanations in the background, at most one computation per match key.
type MatchOrchestrator struct {
	cache       *cache.Cache
	explainer   Explainer
	ttl         time.Duration
	timeout     time.Duration
	distributed bool
	claimTTL    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
	wg       sync.WaitGroup
}

// NewMatchOrchestrator creates a MatchOrchestrator.
func NewMatchOrchestrator(c *cache.Cache, explainer Explainer, cfg OrchestratorConfig) *MatchOrchestrator {
	o := &MatchOrchestrator{
		cache:       c,
		explainer:   explainer,
		ttl:         cfg.MatchTTL,
		timeout:     cfg.ExplainTimeout,
		distributed: cfg.DistributedClaim,
		claimTTL:    cfg.ClaimTTL,
		now:         time.Now,
		inFlight:    make(map[string]struct{}),
	}
	if o.ttl <= 0 {
		o.ttl = 6 * time.Hour
	}
	if o.timeout <= 0 {
		o.timeout = 60 * time.Second
	}
	if o.claimTTL <= 0 {
		o.claimTTL = 2 * time.Minute
	}
	return o
}

// BuildPendingMatch is the placeholder returned before the explanation exists.
func BuildPendingMatch(p *domain.Profile, job domain.NormalizedJob, base ScoreResult, now time.Time) domain.Match {
	return domain.Match{
		Status:        domain.MatchPending,
		Score:         base.Score,
		Summary:       domain.PendingSummary,
		MissingSkills: GetMissingSkills(p, job),
		Reasoning:     GenerateBasicReasoning(p, job, base),
		Suggestions:   []string{},
		Version:       1,
		UpdatedAt:     now,
	}
}

// GetMatchOrSchedule returns the cached match for the pair, scheduling the
// background explanation when it is not ready yet. It never blocks on the LLM.
func (o *MatchOrchestrator) GetMatchOrSchedule(ctx context.Context, p *domain.Profile, profileKey string, job domain.NormalizedJob, base ScoreResult) (domain.Match, string) {
	key := cache.MatchKey(profileKey, cache.JobKey(job.Job))

	var cached domain.Match
	if o.cache.GetJSON(ctx, key, &cached) {
		if cached.Ready() {
			return cached, key
		}
		// Pending with nobody working on it: a previous attempt failed.
		if o.acquire(ctx, key) {
			var again domain.Match
			if o.cache.GetJSON(ctx, key, &again) && again.Ready() {
				o.release(ctx, key)
				return again, key
			}
			o.schedule(ctx, key, p, job, cached.Version)
		}
		return cached, key
	}

	pending := BuildPendingMatch(p, job, base, o.now())
	if !o.acquire(ctx, key) {
		return pending, key
	}
	// Another caller may have finished between the miss and the claim.
	var current domain.Match
	if o.cache.GetJSON(ctx, key, &current) && current.Ready() {
		o.release(ctx, key)
		return current, key
	}
	o.cache.SetJSON(ctx, key, pending, o.ttl)
	o.schedule(ctx, key, p, job, pending.Version)
	return pending, key
}

// Status returns the cached match for each key, nil when absent.
func (o *MatchOrchestrator) Status(ctx context.Context, keys []string) (map[string]*domain.Match, error) {
	out := make(map[string]*domain.Match, len(keys))
	for _, key := range keys {
		if !cache.IsMatchKey(key) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMatchKey, key)
		}
	}
	for _, key := range keys {
		var m domain.Match
		if o.cache.GetJSON(ctx, key, &m) {
			out[key] = &m
		} else {
			out[key] = nil
		}
	}
	return out, nil
}

// InFlight reports whether key has a background computation running here.
func (o *MatchOrchestrator) InFlight(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.inFlight[key]
	return ok
}

// Wait blocks until every scheduled computation has finished.
func (o *MatchOrchestrator) Wait() {
	o.wg.Wait()
}

func (o *MatchOrchestrator) acquire(ctx context.Context, key string) bool {
	o.mu.Lock()
	if _, busy := o.inFlight[key]; busy {
		o.mu.Unlock()
		return false
	}
	o.inFlight[key] = struct{}{}
	o.mu.Unlock()

	if o.distributed && !o.cache.Claim(ctx, cache.ClaimKey(key), o.claimTTL) {
		o.mu.Lock()
		delete(o.inFlight, key)
		o.mu.Unlock()
		return false
	}
	return true
}

func (o *MatchOrchestrator) release(ctx context.Context, key string) {
	if o.distributed {
		o.cache.Delete(ctx, cache.ClaimKey(key))
	}
	o.mu.Lock()
	delete(o.inFlight, key)
	o.mu.Unlock()
}

// schedule runs the explanation on a goroutine that owns key until it exits.
func (o *MatchOrchestrator) schedule(ctx context.Context, key string, p *domain.Profile, job domain.NormalizedJob, pendingVersion int) {
	bg := logger.SetMatchKey(logger.Detach(ctx), key)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.release(bg, key)
		defer func() {
			if r := recover(); r != nil {
				logger.CtxError(bg, "match explanation panicked, leaving pending: %v", r)
			}
		}()

		start := time.Now()
		ctx, cancel := context.WithTimeout(bg, o.timeout)
		defer cancel()

		match, err := o.explainer.ExplainMatch(ctx, p, job)
		if err != nil {
			logger.CtxWarn(bg, "match explanation failed, leaving pending: %v", err)
			return
		}

		var current domain.Match
		if o.cache.GetJSON(bg, key, &current) && current.Ready() {
			logger.CtxDebug(bg, "match already ready, skipping write")
			return
		}

		match.Status = domain.MatchReady
		if match.Version <= pendingVersion {
			match.Version = pendingVersion + 1
		}
		match.UpdatedAt = o.now()
		o.cache.SetJSON(bg, key, match, o.ttl)

		logger.With(logger.Fields{
			logger.FieldDurationMs: time.Since(start).Milliseconds(),
		}).Info(bg, "match explanation ready: score=%d", match.Score)
	}()
}
