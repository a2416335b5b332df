package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/source"
)

type stubAggregator struct {
	jobs []domain.Job
	err  error

	mu       sync.Mutex
	criteria []domain.SearchCriteria
}

func (s *stubAggregator) Aggregate(ctx context.Context, c domain.SearchCriteria) (*domain.AggregateResult, error) {
	s.mu.Lock()
	s.criteria = append(s.criteria, c)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	jobs := append([]domain.Job(nil), s.jobs...)
	return &domain.AggregateResult{
		Results: jobs,
		Meta:    domain.AggregateMeta{Total: len(jobs), Returned: len(jobs), Agent: c, SourceCounts: map[string]int{"stub": len(jobs)}},
	}, nil
}

type stubProfiles map[string]*domain.Profile

func (s stubProfiles) LoadProfileByID(ctx context.Context, id string) (*domain.Profile, error) {
	if id == "broken" {
		return nil, errStub
	}
	return s[id], nil
}

type stubNormalizer struct {
	calls atomic.Int32
	err   error
}

func (s *stubNormalizer) Normalize(ctx context.Context, job domain.Job) (*domain.NormalizedJob, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	nj := FallbackNormalize(job)
	nj.Normalized.Summary = "normalized by stub"
	return &nj, nil
}

func manyJobs(n int) []domain.Job {
	jobs := make([]domain.Job, n)
	for i := range jobs {
		jobs[i] = domain.Job{
			ID:          fmt.Sprintf("job-%02d", i),
			Title:       "Go Engineer",
			Company:     fmt.Sprintf("Company %d", i),
			Location:    "Austin, TX",
			Description: "We use Go and PostgreSQL.",
			Source:      "stub",
		}
	}
	return jobs
}

func newTestSearch(agg JobAggregator, profiles ProfileLoader, norm JobNormalizer) (*SearchService, *MatchOrchestrator) {
	c := newMemoryCache()
	o := NewMatchOrchestrator(c, &countingExplainer{}, OrchestratorConfig{})
	return NewSearchService(profiles, agg, norm, o, c, SearchConfig{PageSize: 5}), o
}

func TestSearch_AnonymousRemoteLocation(t *testing.T) {
	src := &stubSource{name: "stub", respond: func(source.SearchParams) ([]domain.Job, error) {
		return []domain.Job{
			{ID: "r1", Title: "Backend Developer", Company: "A", Location: "Austin, TX, US", Remote: true, Source: "stub"},
			{ID: "r2", Title: "Backend Developer", Company: "B", Location: "Berlin, Germany", Remote: true, Source: "stub"},
			{ID: "r3", Title: "Backend Developer", Company: "C", Location: "London, UK", Remote: true, Source: "stub"},
		}, nil
	}}
	agg := NewAggregator([]source.JobSource{src}, newMemoryCache(), nil, nil, nil, AggregatorConfig{})
	s, o := newTestSearch(agg, nil, &stubNormalizer{})
	defer o.Wait()

	resp, err := s.Search(context.Background(), SearchRequest{Role: "Backend Developer", Location: "Remote"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.Meta.Total != 3 || len(resp.Data) != 3 {
		t.Errorf("total = %d, data = %d, want 3 remote jobs", resp.Meta.Total, len(resp.Data))
	}
	if !resp.Meta.Agent.AllowRemote {
		t.Errorf("criteria = %+v, want remote allowed", resp.Meta.Agent)
	}
}

func TestSearch_RoleTooShort(t *testing.T) {
	s, _ := newTestSearch(&stubAggregator{}, nil, nil)
	for _, role := range []string{"", " ", "a", " é "} {
		if _, err := s.Search(context.Background(), SearchRequest{Role: role}); !errors.Is(err, ErrRoleTooShort) {
			t.Errorf("Search(%q) error = %v, want ErrRoleTooShort", role, err)
		}
	}
}

func TestSearch_Paging(t *testing.T) {
	agg := &stubAggregator{jobs: manyJobs(12)}
	s, o := newTestSearch(agg, nil, nil)
	defer o.Wait()

	tests := []struct {
		page     int
		wantLen  int
		wantPage int
	}{
		{0, 5, 1},
		{2, 5, 2},
		{3, 2, 3},
		{4, 0, 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			resp, err := s.Search(context.Background(), SearchRequest{Role: "go engineer", Page: tt.page})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(resp.Data) != tt.wantLen {
				t.Errorf("len(Data) = %d, want %d", len(resp.Data), tt.wantLen)
			}
			if resp.Meta.Page != tt.wantPage || resp.Meta.Total != 12 || resp.Meta.TotalPages != 3 || resp.Meta.PageSize != 5 {
				t.Errorf("Meta = %+v", resp.Meta)
			}
			if resp.Meta.Suggestions == nil {
				t.Error("suggestions must not be nil")
			}
			for i := 1; i < len(resp.Data); i++ {
				if resp.Data[i-1].Match.Score < resp.Data[i].Match.Score {
					t.Errorf("results not sorted by score at %d", i)
				}
			}
			for _, r := range resp.Data {
				if r.MatchKey == "" || r.JobKey == "" {
					t.Errorf("result without keys: %+v", r)
				}
			}
		})
	}
}

func TestSearch_TopNCapsPool(t *testing.T) {
	s, o := newTestSearch(&stubAggregator{jobs: manyJobs(12)}, nil, nil)
	defer o.Wait()

	resp, err := s.Search(context.Background(), SearchRequest{Role: "go engineer", PreferenceNotes: "only show me the top 7 please"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Meta.Total != 7 || resp.Meta.TotalPages != 2 {
		t.Errorf("Meta = %+v, want 7 jobs over 2 pages", resp.Meta)
	}
}

func TestSearch_ProfileDrivesCriteriaAndRanking(t *testing.T) {
	jobs := []domain.Job{
		{ID: "onsite", Title: "Go Engineer", Company: "A", Location: "Austin, TX", Description: "on-site role", Source: "stub"},
		{ID: "remote", Title: "Go Engineer", Company: "B", Location: "Austin, TX", Remote: true, Source: "stub"},
	}
	agg := &stubAggregator{jobs: jobs}
	profiles := stubProfiles{"u1": {ID: "u1", Skills: []string{"Go"}, PreferenceWorkModes: []string{"remote"}}}
	s, o := newTestSearch(agg, profiles, nil)
	defer o.Wait()

	resp, err := s.Search(context.Background(), SearchRequest{Role: "go engineer", ProfileID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(agg.criteria) != 1 || !agg.criteria[0].RemoteOnly || !agg.criteria[0].AllowRemote {
		t.Errorf("criteria = %+v, want remote only", agg.criteria)
	}
	if len(resp.Data) != 2 || resp.Data[0].ID != "remote" {
		t.Fatalf("data = %+v, want the remote job first", resp.Data)
	}
	if resp.Data[0].PreferenceAdjustment != 12 {
		t.Errorf("adjustment = %d, want 12", resp.Data[0].PreferenceAdjustment)
	}
	if want := cache.MatchKey("u1", "remote"); resp.Data[0].MatchKey != want {
		t.Errorf("MatchKey = %q, want %q", resp.Data[0].MatchKey, want)
	}
}

func TestSearch_ProfileLoadFailureDegrades(t *testing.T) {
	s, o := newTestSearch(&stubAggregator{jobs: manyJobs(2)}, stubProfiles{}, nil)
	defer o.Wait()

	resp, err := s.Search(context.Background(), SearchRequest{Role: "go engineer", ProfileID: "broken"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("len(Data) = %d", len(resp.Data))
	}
	if want := cache.MatchKey(cache.AnonymousProfile, "job-00"); resp.Data[0].MatchKey != want && resp.Data[1].MatchKey != want {
		t.Errorf("anonymous match key not used: %+v", resp.Data)
	}
}

func TestSearch_AggregateError(t *testing.T) {
	s, _ := newTestSearch(&stubAggregator{err: errStub}, nil, nil)
	if _, err := s.Search(context.Background(), SearchRequest{Role: "go engineer"}); !errors.Is(err, errStub) {
		t.Errorf("Search() error = %v, want errStub", err)
	}
}

func TestNormalizeCached(t *testing.T) {
	ctx := context.Background()
	norm := &stubNormalizer{}
	s, _ := newTestSearch(&stubAggregator{}, nil, norm)
	j := domain.Job{ID: "j1", Title: "Go Engineer"}

	first := s.NormalizeCached(ctx, j)
	second := s.NormalizeCached(ctx, j)
	if norm.calls.Load() != 1 {
		t.Errorf("normalizer calls = %d, want 1", norm.calls.Load())
	}
	if first.Normalized.Summary != "normalized by stub" || second.Normalized.Summary != first.Normalized.Summary {
		t.Errorf("cached view differs: %q vs %q", first.Normalized.Summary, second.Normalized.Summary)
	}

	// An entry stored under the wrong job is evicted and recomputed.
	s.cache.SetJSON(ctx, cache.NormalizedKey("j2"), domain.NormalizedJob{Job: domain.Job{ID: "other"}}, time.Hour)
	got := s.NormalizeCached(ctx, domain.Job{ID: "j2", Title: "Rust Engineer"})
	if got.ID != "j2" || norm.calls.Load() != 2 {
		t.Errorf("mismatched entry not replaced: %+v (calls=%d)", got.Job, norm.calls.Load())
	}
}

func TestNormalizeCached_FailureNotCached(t *testing.T) {
	ctx := context.Background()
	norm := &stubNormalizer{err: errStub}
	s, _ := newTestSearch(&stubAggregator{}, nil, norm)
	j := domain.Job{ID: "j1", Title: "Senior Go Engineer", Description: "Kubernetes, remote"}

	got := s.NormalizeCached(ctx, j)
	if got.Normalized.Level != domain.LevelSenior {
		t.Errorf("fallback level = %q", got.Normalized.Level)
	}
	var cached domain.NormalizedJob
	if s.cache.GetJSON(ctx, cache.NormalizedKey("j1"), &cached) {
		t.Error("fallback view must not be cached")
	}
}

func TestParseTopN(t *testing.T) {
	tests := map[string]int{
		"top 10":              10,
		"Show me the TOP 3.":  3,
		"top10":               0,
		"topology 5":          0,
		"top 0":               0,
		"":                    0,
		"remote only, top 25": 25,
	}
	for in, want := range tests {
		if got := ParseTopN(in); got != want {
			t.Errorf("ParseTopN(%q) = %d, want %d", in, got, want)
		}
	}
}
