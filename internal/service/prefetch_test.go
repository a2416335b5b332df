package service

import (
	"context"
	"testing"
	"time"

	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/domain"
)

func TestPrefetch_Run(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache()
	norm := &stubNormalizer{}
	agg := &stubAggregator{jobs: manyJobs(6)}
	s := NewPrefetchService(agg, norm, c, nil, &PrefetchConfig{Workers: 2, TopJobs: 4})

	// One job is already warm.
	warm := manyJobs(1)[0]
	c.SetJSON(ctx, cache.NormalizedKey(cache.JobKey(warm)), domain.NormalizedJob{Job: warm}, time.Hour)

	stats, err := s.Run(ctx, []string{"go engineer", "rust engineer"}, &PrefetchOptions{Location: "Austin"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Roles != 2 || stats.TotalJobs != 8 {
		t.Errorf("stats = %+v, want 2 roles and 8 jobs", stats)
	}
	// Both roles return the same jobs, so the second pass finds them cached.
	if stats.NormalizedJobs+stats.SkippedJobs != 8 || stats.FailedJobs != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.NormalizedJobs < 3 {
		t.Errorf("normalized %d, want at least the three cold jobs", stats.NormalizedJobs)
	}
	if agg.criteria[0].Location != "Austin" {
		t.Errorf("location not forwarded: %+v", agg.criteria[0])
	}

	for _, j := range manyJobs(4) {
		var nj domain.NormalizedJob
		if !c.GetJSON(ctx, cache.NormalizedKey(cache.JobKey(j)), &nj) {
			t.Errorf("job %s not warmed", j.ID)
		}
	}
}

func TestPrefetch_ForceAndFailures(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache()
	agg := &stubAggregator{jobs: manyJobs(3)}

	s := NewPrefetchService(agg, &stubNormalizer{}, c, nil, &PrefetchConfig{})
	if _, err := s.Run(ctx, []string{"go"}, nil); err != nil {
		t.Fatal(err)
	}

	norm := &stubNormalizer{}
	forced := NewPrefetchService(agg, norm, c, nil, &PrefetchConfig{})
	stats, err := forced.Run(ctx, []string{"go"}, &PrefetchOptions{Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if stats.NormalizedJobs != 3 || norm.calls.Load() != 3 {
		t.Errorf("forced run stats = %+v, calls = %d", stats, norm.calls.Load())
	}

	failing := NewPrefetchService(agg, &stubNormalizer{err: errStub}, newMemoryCache(), nil, &PrefetchConfig{})
	stats, err = failing.Run(ctx, []string{"go"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FailedJobs != 3 {
		t.Errorf("FailedJobs = %d, want 3", stats.FailedJobs)
	}

	broken := NewPrefetchService(&stubAggregator{err: errStub}, &stubNormalizer{}, c, nil, &PrefetchConfig{})
	stats, err = broken.Run(ctx, []string{"go"}, nil)
	if err != nil || stats.Roles != 0 {
		t.Errorf("Run() = %+v, %v; want the role skipped", stats, err)
	}

	if _, err := NewPrefetchService(agg, nil, c, nil, &PrefetchConfig{}).Run(ctx, nil, nil); err == nil {
		t.Error("Run() without a normalizer should fail")
	}
}
