package service

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/logger"
)

const defaultPageSize = 5

var topNPattern = regexp.MustCompile(`(?i)\btop\s+(\d{1,3})\b`)

// ProfileLoader loads profiles by id. A missing profile is (nil, nil).
type ProfileLoader interface {
	LoadProfileByID(ctx context.Context, id string) (*domain.Profile, error)
}

// JobAggregator fetches aggregated listings.
type JobAggregator interface {
	Aggregate(ctx context.Context, criteria domain.SearchCriteria) (*domain.AggregateResult, error)
}

// JobNormalizer extracts the normalized view of a job.
type JobNormalizer interface {
	Normalize(ctx context.Context, job domain.Job) (*domain.NormalizedJob, error)
}

// SearchConfig holds configuration for the search service.
type SearchConfig struct {
	PageSize      int
	ScoringPool   int
	NormalizedTTL time.Duration
}

// SearchService runs the search pipeline: aggregate, rank by preferences,
// normalize and score one page, and schedule explanations.
type SearchService struct {
	profiles     ProfileLoader
	aggregator   JobAggregator
	normalizer   JobNormalizer
	orchestrator *MatchOrchestrator
	cache        *cache.Cache
	pageSize     int
	scoringPool  int
	ttl          time.Duration
}

// NewSearchService creates a SearchService. profiles and normalizer may be nil.
func NewSearchService(
	profiles ProfileLoader,
	aggregator JobAggregator,
	normalizer JobNormalizer,
	orchestrator *MatchOrchestrator,
	c *cache.Cache,
	cfg SearchConfig,
) *SearchService {
	s := &SearchService{
		profiles:     profiles,
		aggregator:   aggregator,
		normalizer:   normalizer,
		orchestrator: orchestrator,
		cache:        c,
		pageSize:     cfg.PageSize,
		scoringPool:  cfg.ScoringPool,
		ttl:          cfg.NormalizedTTL,
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	return s
}

// SearchRequest is the body of a search call.
type SearchRequest struct {
	Role            string `json:"role"`
	Location        string `json:"location,omitempty"`
	Page            int    `json:"page,omitempty"`
	ProfileID       string `json:"profile_id,omitempty"`
	PreferenceNotes string `json:"preference_notes,omitempty"`
}

// SearchResult is one ranked job with its match.
type SearchResult struct {
	domain.NormalizedJob
	JobKey               string       `json:"job_key"`
	MatchKey             string       `json:"match_key"`
	Match                domain.Match `json:"match"`
	PreferenceAdjustment int          `json:"preference_adjustment"`
}

// SearchMeta describes the page.
type SearchMeta struct {
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalPages   int                   `json:"total_pages"`
	Suggestions  []string              `json:"suggestions"`
	SourceCounts map[string]int        `json:"source_counts"`
	Agent        domain.SearchCriteria `json:"agent"`
}

// SearchResponse is the result of a search call.
type SearchResponse struct {
	Data []SearchResult `json:"data"`
	Meta SearchMeta     `json:"meta"`
}

// Search runs the pipeline for one page.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	role := strings.TrimSpace(req.Role)
	if utf8.RuneCountInString(role) < 2 {
		return nil, ErrRoleTooShort
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	ctx = logger.SetComponent(ctx, "search")
	if req.ProfileID != "" {
		ctx = logger.WithField(ctx, logger.FieldProfileID, req.ProfileID)
	}

	profile := s.loadProfile(ctx, req)
	signals := BuildSignals(profile)
	criteria := buildCriteria(role, req.Location, profile, signals)

	agg, err := s.aggregator.Aggregate(ctx, criteria)
	if err != nil {
		return nil, err
	}

	// Rank the whole pool by preference before paging so page 1 holds the
	// best fits rather than the newest postings.
	ranked := make([]rankedJob, len(agg.Results))
	for i, job := range agg.Results {
		ranked[i] = rankedJob{job: job, adjustment: Evaluate(domain.NormalizedJob{Job: job}, signals).Adjustment}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].adjustment > ranked[j].adjustment })

	pool := s.poolSize(preferenceNotes(req, profile))
	if pool > 0 && len(ranked) > pool {
		ranked = ranked[:pool]
	}

	total := len(ranked)
	totalPages := (total + s.pageSize - 1) / s.pageSize
	from := (page - 1) * s.pageSize
	if from > total {
		from = total
	}
	to := from + s.pageSize
	if to > total {
		to = total
	}

	results := s.scorePage(ctx, profile, signals, ranked[from:to])

	suggestions := agg.Meta.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return &SearchResponse{
		Data: results,
		Meta: SearchMeta{
			Total:        total,
			Page:         page,
			PageSize:     s.pageSize,
			TotalPages:   totalPages,
			Suggestions:  suggestions,
			SourceCounts: agg.Meta.SourceCounts,
			Agent:        agg.Meta.Agent,
		},
	}, nil
}

type rankedJob struct {
	job        domain.Job
	adjustment int
}

// scorePage normalizes, scores and schedules every job of the page
// concurrently, then drops exclusions and sorts by score.
func (s *SearchService) scorePage(ctx context.Context, profile *domain.Profile, signals domain.PreferenceSignals, page []rankedJob) []SearchResult {
	profileKey := cache.ProfileKey(profile)
	scoringProfile := profile
	if scoringProfile == nil {
		scoringProfile = &domain.Profile{}
	}

	slots := make([]*SearchResult, len(page))
	var wg sync.WaitGroup
	for i, rj := range page {
		wg.Add(1)
		go func(i int, rj rankedJob) {
			defer wg.Done()
			nj := s.NormalizeCached(ctx, rj.job)
			score := ComputeBaseScore(scoringProfile, nj, ScoreOptions{Signals: &signals})
			if score.Excluded {
				return
			}
			res := &SearchResult{
				NormalizedJob:        nj,
				JobKey:               cache.JobKey(rj.job),
				PreferenceAdjustment: score.Evaluation.Adjustment,
			}
			if s.orchestrator != nil {
				res.Match, res.MatchKey = s.orchestrator.GetMatchOrSchedule(ctx, scoringProfile, profileKey, nj, score)
			} else {
				res.Match = BuildPendingMatch(scoringProfile, nj, score, time.Now())
			}
			slots[i] = res
		}(i, rj)
	}
	wg.Wait()

	results := make([]SearchResult, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Match.Score > results[j].Match.Score })
	return results
}

// NormalizeCached returns the cached normalized view of job, normalizing
// and caching on a miss. When normalization fails the rule-derived view is
// returned and not cached.
func (s *SearchService) NormalizeCached(ctx context.Context, job domain.Job) domain.NormalizedJob {
	jobKey := cache.JobKey(job)
	key := cache.NormalizedKey(jobKey)

	var cached domain.NormalizedJob
	if s.cache.GetJSON(ctx, key, &cached) {
		if cache.JobKey(cached.Job) == jobKey {
			return cached
		}
		logger.CtxWarn(ctx, "normalized entry does not match its job, evicting: key=%s", key)
		s.cache.Delete(ctx, key)
	}

	if s.normalizer != nil {
		nj, err := s.normalizer.Normalize(ctx, job)
		if err == nil && nj != nil {
			s.cache.SetJSON(ctx, key, nj, s.ttl)
			return *nj
		}
		logger.CtxDebug(ctx, "normalization unavailable, using rules: job=%s, error=%v", jobKey, err)
	}
	return FallbackNormalize(job)
}

func (s *SearchService) loadProfile(ctx context.Context, req SearchRequest) *domain.Profile {
	var profile *domain.Profile
	if req.ProfileID != "" && s.profiles != nil {
		p, err := s.profiles.LoadProfileByID(ctx, req.ProfileID)
		if err != nil {
			logger.CtxWarn(ctx, "profile load failed, searching without it: %v", err)
		} else {
			profile = p
		}
	}
	if notes := strings.TrimSpace(req.PreferenceNotes); notes != "" && profile != nil {
		copied := *profile
		copied.PreferenceNotes = notes
		profile = &copied
	}
	return profile
}

func (s *SearchService) poolSize(notes string) int {
	if n := ParseTopN(notes); n > 0 {
		return n
	}
	return s.scoringPool
}

func preferenceNotes(req SearchRequest, p *domain.Profile) string {
	if notes := strings.TrimSpace(req.PreferenceNotes); notes != "" {
		return notes
	}
	if p != nil {
		return p.PreferenceNotes
	}
	return ""
}

// ParseTopN reads a "top N" cap from free-text notes, or 0.
func ParseTopN(notes string) int {
	m := topNPattern.FindStringSubmatch(notes)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func buildCriteria(role, location string, p *domain.Profile, s domain.PreferenceSignals) domain.SearchCriteria {
	c := domain.SearchCriteria{
		Query:              role,
		Location:           strings.TrimSpace(location),
		PreferredLocations: s.Locations,
		WorkModes:          s.WorkModes,
		RemoteOnly:         s.RemoteRequired(),
		AllowRemote:        s.Accepts(domain.WorkModeRemote) || isRemoteLocation(location),
	}
	if p != nil {
		c.EmploymentTypes = p.PreferenceEmploymentTypes
		c.JobRequirements = p.PreferenceJobRequirements
	}
	return NormalizeCriteria(c)
}
