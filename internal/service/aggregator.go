package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/geo"
	"github.com/harshgondal/Job-Finder/internal/logger"
	"github.com/harshgondal/Job-Finder/internal/source"
)

const (
	defaultAggregateLimit = 50
	maxAggregateLimit     = 60
	maxLocationSuggest    = 5
	maxLocationRetries    = 3
	maxRoleRetries        = 2
	minResultsForRoles    = 2
	ratingConcurrency     = 4
)

// SimilarRoleFinder proposes related titles.
type SimilarRoleFinder interface {
	SimilarRoles(ctx context.Context, role, location string) []string
}

// RatingFinder looks up a company rating, best-effort.
type RatingFinder interface {
	Rating(ctx context.Context, company string) (*domain.CompanyRating, bool)
}

// AggregatorConfig holds aggregator settings.
type AggregatorConfig struct {
	TTL            time.Duration
	DefaultCountry string
}

// Aggregator fetches, widens, filters and caches job listings from every
// configured source.
type Aggregator struct {
	sources        []source.JobSource
	cache          *cache.Cache
	roles          SimilarRoleFinder
	ratings        RatingFinder
	archive        *SnapshotArchive
	geo            *geo.Dataset
	ttl            time.Duration
	defaultCountry string
}

// NewAggregator creates an Aggregator. roles, ratings and archive may be nil.
func NewAggregator(
	sources []source.JobSource,
	c *cache.Cache,
	roles SimilarRoleFinder,
	ratings RatingFinder,
	archive *SnapshotArchive,
	cfg AggregatorConfig,
) *Aggregator {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Aggregator{
		sources:        sources,
		cache:          c,
		roles:          roles,
		ratings:        ratings,
		archive:        archive,
		geo:            geo.Default(),
		ttl:            ttl,
		defaultCountry: cfg.DefaultCountry,
	}
}

// NormalizeCriteria applies the aggregation defaults.
func NormalizeCriteria(c domain.SearchCriteria) domain.SearchCriteria {
	c.Query = strings.TrimSpace(c.Query)
	c.Location = strings.TrimSpace(c.Location)
	if c.Limit <= 0 {
		c.Limit = defaultAggregateLimit
	}
	if c.Limit > maxAggregateLimit {
		c.Limit = maxAggregateLimit
	}
	if c.DatePosted == "" {
		c.DatePosted = source.DateWeek
	}
	if c.SortBy == "" {
		c.SortBy = "date_posted"
	}
	if c.Order != "asc" {
		c.Order = "desc"
	}
	return c
}

// aggregation is the working state of one Aggregate call.
type aggregation struct {
	criteria   domain.SearchCriteria
	window     string
	candidates []string
	seen       map[string]bool
	merged     []domain.Job
}

// Aggregate returns up to criteria.Limit jobs, newest first by default.
// Upstream failures degrade the result; they never fail the call.
func (a *Aggregator) Aggregate(ctx context.Context, criteria domain.SearchCriteria) (*domain.AggregateResult, error) {
	c := NormalizeCriteria(criteria)
	if c.Query == "" {
		return nil, errors.New("aggregate: query is required")
	}
	ctx = logger.SetComponent(ctx, "aggregator")

	key := cache.AggregateKey(c)
	var cached domain.AggregateResult
	if a.cache.GetJSON(ctx, key, &cached) {
		logger.CtxDebug(ctx, "aggregate cache hit: key=%s", key)
		return &cached, nil
	}

	start := time.Now()
	st := &aggregation{
		criteria:   c,
		window:     c.DatePosted,
		candidates: mergeUnique([]string{c.Location}, c.PreferredLocations),
		seen:       make(map[string]bool),
	}

	// 1. Base window.
	a.collect(ctx, st, a.params(c, c.Query, c.Location, st.window, 1))

	// 2. Relax the posting window.
	if len(st.merged) < minInt(c.Limit, 10) && widenable(st.window) {
		st.window = source.DateMonth
		a.collect(ctx, st, a.params(c, c.Query, c.Location, st.window, 1))
	}

	// 3. Deeper pages.
	if len(st.merged) < minInt(c.Limit, 20) && !a.allCoolingDown() {
		a.collect(ctx, st, a.params(c, c.Query, c.Location, st.window, 2))
		if len(st.merged) < minInt(c.Limit, 30) && !a.allCoolingDown() {
			a.collect(ctx, st, a.params(c, c.Query, c.Location, st.window, 3))
		}
	}

	// 4-5. Dedupe happened on merge; filter by location and remote rules.
	filtered := a.filter(st.merged, c, st.candidates)

	var suggestions []string
	if len(filtered) == 0 {
		suggestions = a.suggestLocations(c)
		for i, alt := range suggestions {
			if i == maxLocationRetries || len(filtered) >= minInt(c.Limit, 10) {
				break
			}
			jobs := a.fetch(ctx, a.params(c, c.Query, alt, st.window, 1))
			filtered = appendUnique(filtered, a.filter(jobs, c, []string{alt}))
		}
	}

	// 6. Related roles.
	if len(filtered) < minResultsForRoles && c.Query != "" && a.roles != nil {
		variants := a.roles.SimilarRoles(ctx, c.Query, c.Location)
		for i, role := range variants {
			if i == maxRoleRetries {
				break
			}
			jobs := a.fetch(ctx, a.params(c, role, c.Location, st.window, 1))
			filtered = appendUnique(filtered, a.filter(jobs, c, st.candidates))
		}
	}

	// Every source is throttled: serve today's archived snapshot if there is one.
	if len(filtered) == 0 && a.allCoolingDown() {
		if snap, ok := a.archive.Load(ctx, key); ok {
			logger.CtxWarn(ctx, "sources cooling down, serving archived snapshot: key=%s", key)
			return snap, nil
		}
	}

	// 7. Final order.
	filtered = UniqueByID(filtered)
	sortByPosted(filtered, c.Order == "asc")
	total := len(filtered)
	if len(filtered) > c.Limit {
		filtered = filtered[:c.Limit]
	}

	// 8. Ratings.
	a.attachRatings(ctx, filtered)

	counts := make(map[string]int)
	for _, j := range filtered {
		counts[j.Source]++
	}
	if suggestions == nil {
		suggestions = []string{}
	}

	result := &domain.AggregateResult{
		Results: filtered,
		Meta: domain.AggregateMeta{
			Total:        total,
			Returned:     len(filtered),
			Agent:        c,
			Suggestions:  suggestions,
			SourceCounts: counts,
		},
	}

	// Empty results under a full cooldown are neither cached nor archived.
	if len(filtered) == 0 && a.allCoolingDown() {
		logger.CtxWarn(ctx, "sources cooling down, empty aggregate not cached: key=%s", key)
	} else {
		a.cache.SetJSON(ctx, key, result, a.ttl)
		a.archive.SaveAsync(ctx, key, result)
	}

	logger.With(logger.Fields{
		logger.FieldCount:      len(filtered),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info(ctx, "aggregate done: query=%q, location=%q, total=%d", c.Query, c.Location, total)

	return result, nil
}

func (a *Aggregator) params(c domain.SearchCriteria, query, location, window string, page int) source.SearchParams {
	country := a.geo.CountryCode(location)
	if country == "" {
		country = a.defaultCountry
	}
	return source.SearchParams{
		Query:           query,
		Location:        location,
		CountryCode:     country,
		Page:            page,
		DatePosted:      window,
		RemoteOnly:      c.RemoteOnly,
		EmploymentTypes: c.EmploymentTypes,
		JobRequirements: c.JobRequirements,
	}
}

// fetch queries every source in order. Failing sources are logged and skipped.
func (a *Aggregator) fetch(ctx context.Context, params source.SearchParams) []domain.Job {
	var out []domain.Job
	for _, src := range a.sources {
		if ctx.Err() != nil {
			return out
		}
		jobs, err := src.Search(ctx, params)
		if err != nil {
			if errors.Is(err, source.ErrCoolingDown) {
				logger.CtxDebug(ctx, "source cooling down, skipped: source=%s", src.Name())
			} else {
				logger.CtxWarn(ctx, "source search failed: source=%s, query=%q, page=%d, error=%v", src.Name(), params.Query, params.Page, err)
			}
			continue
		}
		out = append(out, jobs...)
	}
	return out
}

func (a *Aggregator) collect(ctx context.Context, st *aggregation, params source.SearchParams) {
	for _, job := range a.fetch(ctx, params) {
		k := cache.JobKey(job)
		if st.seen[k] {
			continue
		}
		st.seen[k] = true
		st.merged = append(st.merged, job)
	}
}

func (a *Aggregator) allCoolingDown() bool {
	if len(a.sources) == 0 {
		return true
	}
	for _, src := range a.sources {
		if !src.CoolingDown() {
			return false
		}
	}
	return true
}

func (a *Aggregator) filter(jobs []domain.Job, c domain.SearchCriteria, candidates []string) []domain.Job {
	out := make([]domain.Job, 0, len(jobs))
	for _, job := range jobs {
		if passesLocation(job, c, candidates) {
			out = append(out, job)
		}
	}
	return out
}

func passesLocation(job domain.Job, c domain.SearchCriteria, candidates []string) bool {
	remote := job.Remote || source.LooksRemote(job.Title, job.Location)
	if c.RemoteOnly {
		return remote
	}
	if remote && c.AllowRemote {
		return true
	}
	if len(candidates) == 0 {
		return true
	}
	for _, cand := range candidates {
		// Asking for "Remote" accepts any remote job wherever it is based.
		if remote && isRemoteLocation(cand) {
			return true
		}
		if locationMatches(job, cand) {
			return true
		}
	}
	return false
}

func isRemoteLocation(location string) bool {
	switch strings.ToLower(strings.TrimSpace(location)) {
	case "remote", "anywhere", "worldwide":
		return true
	}
	return false
}

func (a *Aggregator) suggestLocations(c domain.SearchCriteria) []string {
	var out []string
	for _, loc := range mergeUnique([]string{c.Location}, c.PreferredLocations) {
		out = mergeUnique(out, a.geo.Suggest(loc, maxLocationSuggest))
	}
	if len(out) > maxLocationSuggest {
		out = out[:maxLocationSuggest]
	}
	return out
}

func (a *Aggregator) attachRatings(ctx context.Context, jobs []domain.Job) {
	if a.ratings == nil || len(jobs) == 0 {
		return
	}
	companies := make(map[string]*domain.CompanyRating)
	for _, j := range jobs {
		if j.Company != "" {
			companies[j.Company] = nil
		}
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, ratingConcurrency)
	)
	for company := range companies {
		wg.Add(1)
		sem <- struct{}{}
		go func(company string) {
			defer wg.Done()
			defer func() { <-sem }()
			if rating, ok := a.ratings.Rating(ctx, company); ok {
				mu.Lock()
				companies[company] = rating
				mu.Unlock()
			}
		}(company)
	}
	wg.Wait()

	for i := range jobs {
		if r := companies[jobs[i].Company]; r != nil {
			rating := *r
			jobs[i].CompanyRating = &rating
		}
	}
}

// UniqueByID drops later duplicates by job key, keeping first-seen order.
func UniqueByID(jobs []domain.Job) []domain.Job {
	seen := make(map[string]bool, len(jobs))
	out := make([]domain.Job, 0, len(jobs))
	for _, j := range jobs {
		k := cache.JobKey(j)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, j)
	}
	return out
}

func appendUnique(dst, src []domain.Job) []domain.Job {
	return UniqueByID(append(dst, src...))
}

func sortByPosted(jobs []domain.Job, asc bool) {
	sort.SliceStable(jobs, func(i, j int) bool {
		ti, tj := jobs[i].PostedTime(), jobs[j].PostedTime()
		if asc {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})
}

// widenable reports whether the window can be relaxed to a month.
func widenable(window string) bool {
	switch window {
	case source.DateToday, source.Date3Days, source.DateWeek:
		return true
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
