package service

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/source"
)

func jobIDs(jobs []domain.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

func TestNormalizeCriteria(t *testing.T) {
	got := NormalizeCriteria(domain.SearchCriteria{Query: "  go dev ", Limit: 500, Order: "sideways"})
	want := domain.SearchCriteria{Query: "go dev", Limit: maxAggregateLimit, DatePosted: source.DateWeek, SortBy: "date_posted", Order: "desc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeCriteria() = %+v, want %+v", got, want)
	}
	if got := NormalizeCriteria(domain.SearchCriteria{Query: "x"}); got.Limit != defaultAggregateLimit {
		t.Errorf("default limit = %d", got.Limit)
	}
}

func TestAggregate_EmptyResultFallbackCallCount(t *testing.T) {
	src := &stubSource{name: "stub"}
	agg := NewAggregator([]source.JobSource{src}, newMemoryCache(), stubRoles{roles: []string{"golang developer", "backend engineer", "platform engineer"}}, nil, nil, AggregatorConfig{})

	res, err := agg.Aggregate(context.Background(), domain.SearchCriteria{Query: "go engineer"})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(res.Results) != 0 {
		t.Errorf("results = %v, want none", res.Results)
	}

	calls := src.Calls()
	// base, widened window, page 2, page 3, then two role variants.
	if len(calls) != 6 {
		t.Fatalf("source calls = %d, want 6: %+v", len(calls), calls)
	}
	if calls[0].DatePosted != source.DateWeek || calls[1].DatePosted != source.DateMonth {
		t.Errorf("windows = %q, %q", calls[0].DatePosted, calls[1].DatePosted)
	}
	if calls[2].Page != 2 || calls[3].Page != 3 {
		t.Errorf("pages = %d, %d", calls[2].Page, calls[3].Page)
	}
	if calls[4].Query != "golang developer" || calls[5].Query != "backend engineer" {
		t.Errorf("role retries = %q, %q", calls[4].Query, calls[5].Query)
	}
	if res.Meta.Suggestions == nil {
		t.Error("suggestions must be an empty list, not nil")
	}
}

func TestAggregate_DedupesAndSorts(t *testing.T) {
	src := &stubSource{name: "stub", respond: func(p source.SearchParams) ([]domain.Job, error) {
		switch p.Page {
		case 1:
			return []domain.Job{
				{ID: "a", Title: "Go Engineer", Source: "stub", PostedAt: "2025-06-01T00:00:00Z"},
				{ID: "b", Title: "Go Engineer", Source: "stub", PostedAt: "2025-06-03T00:00:00Z"},
				{ID: "a", Title: "Go Engineer (dup)", Source: "stub"},
			}, nil
		default:
			return []domain.Job{
				{ID: "c", Title: "Go Engineer", Source: "stub", PostedAt: "2025-06-02"},
				{ID: "b", Title: "Go Engineer", Source: "stub"},
			}, nil
		}
	}}
	agg := NewAggregator([]source.JobSource{src}, newMemoryCache(), nil, nil, nil, AggregatorConfig{})

	res, err := agg.Aggregate(context.Background(), domain.SearchCriteria{Query: "go", Limit: 10})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if got := jobIDs(res.Results); !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Errorf("order = %v, want newest first without duplicates", got)
	}
	if res.Meta.SourceCounts["stub"] != 3 {
		t.Errorf("source counts = %v", res.Meta.SourceCounts)
	}
	if res.Results[2].Title != "Go Engineer" {
		t.Errorf("first-seen duplicate not kept: %q", res.Results[2].Title)
	}
}

func TestAggregate_CacheHit(t *testing.T) {
	src := &stubSource{name: "stub", respond: func(p source.SearchParams) ([]domain.Job, error) {
		jobs := make([]domain.Job, 0, 12)
		for i := 0; i < 12; i++ {
			jobs = append(jobs, domain.Job{ID: fmt.Sprintf("p%d-%d", p.Page, i), Title: "Go", Source: "stub"})
		}
		return jobs, nil
	}}
	agg := NewAggregator([]source.JobSource{src}, newMemoryCache(), nil, nil, nil, AggregatorConfig{})
	criteria := domain.SearchCriteria{Query: "go", Limit: 10}

	if _, err := agg.Aggregate(context.Background(), criteria); err != nil {
		t.Fatal(err)
	}
	first := len(src.Calls())
	if first != 1 {
		t.Errorf("first aggregate made %d calls, want 1", first)
	}
	res, err := agg.Aggregate(context.Background(), criteria)
	if err != nil {
		t.Fatal(err)
	}
	if len(src.Calls()) != first {
		t.Errorf("cached aggregate called the source again")
	}
	if len(res.Results) != 10 || res.Meta.Total != 12 {
		t.Errorf("returned %d of %d, want 10 of 12", len(res.Results), res.Meta.Total)
	}
}

func TestAggregate_SourceFailureDegrades(t *testing.T) {
	broken := &stubSource{name: "broken", respond: func(source.SearchParams) ([]domain.Job, error) {
		return nil, errStub
	}}
	cooling := &stubSource{name: "cooling", cooling: true, respond: func(source.SearchParams) ([]domain.Job, error) {
		return nil, source.ErrCoolingDown
	}}
	good := &stubSource{name: "good", respond: func(p source.SearchParams) ([]domain.Job, error) {
		return []domain.Job{{ID: fmt.Sprintf("g%d-%s", p.Page, p.DatePosted), Title: "Go", Source: "good"}}, nil
	}}
	agg := NewAggregator([]source.JobSource{broken, cooling, good}, newMemoryCache(), nil, nil, nil, AggregatorConfig{})

	res, err := agg.Aggregate(context.Background(), domain.SearchCriteria{Query: "go", Limit: 10})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(res.Results) == 0 {
		t.Fatal("expected results from the healthy source")
	}
	if res.Meta.SourceCounts["good"] != len(res.Results) {
		t.Errorf("source counts = %v", res.Meta.SourceCounts)
	}
}

func TestAggregate_PagingStopsWhenAllCoolingDown(t *testing.T) {
	src := &stubSource{name: "stub", cooling: true}
	agg := NewAggregator([]source.JobSource{src}, newMemoryCache(), nil, nil, nil, AggregatorConfig{})

	if _, err := agg.Aggregate(context.Background(), domain.SearchCriteria{Query: "go"}); err != nil {
		t.Fatal(err)
	}
	for _, c := range src.Calls() {
		if c.Page > 1 {
			t.Errorf("deeper page requested while cooling down: %+v", c)
		}
	}
}

func TestAggregate_SnapshotFallbackWhileCoolingDown(t *testing.T) {
	ctx := context.Background()
	criteria := domain.SearchCriteria{Query: "go"}
	archive := NewSnapshotArchive(newMemoryStorage())
	snapshot := &domain.AggregateResult{Results: []domain.Job{{ID: "archived", Title: "Go"}}}
	if err := archive.Save(ctx, cache.AggregateKey(NormalizeCriteria(criteria)), snapshot); err != nil {
		t.Fatal(err)
	}

	src := &stubSource{name: "stub", cooling: true}
	agg := NewAggregator([]source.JobSource{src}, newMemoryCache(), nil, nil, archive, AggregatorConfig{})
	res, err := agg.Aggregate(ctx, criteria)
	if err != nil {
		t.Fatal(err)
	}
	if got := jobIDs(res.Results); !reflect.DeepEqual(got, []string{"archived"}) {
		t.Errorf("results = %v, want the archived snapshot", got)
	}

	other, err := agg.Aggregate(ctx, domain.SearchCriteria{Query: "rust"})
	if err != nil {
		t.Fatal(err)
	}
	if len(other.Results) != 0 {
		t.Errorf("results = %v, want none without a snapshot", jobIDs(other.Results))
	}
}

func TestAggregate_LocationSuggestions(t *testing.T) {
	src := &stubSource{name: "stub", respond: func(p source.SearchParams) ([]domain.Job, error) {
		if p.Location == "San Francisco" {
			return []domain.Job{{ID: "sf", Title: "Go", Location: "San Francisco, CA", Source: "stub"}}, nil
		}
		return []domain.Job{{ID: "ny", Title: "Go", Location: "New York, NY", Source: "stub"}}, nil
	}}
	agg := NewAggregator([]source.JobSource{src}, newMemoryCache(), nil, nil, nil, AggregatorConfig{})

	res, err := agg.Aggregate(context.Background(), domain.SearchCriteria{Query: "go", Location: "Palo Alto"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Meta.Suggestions) == 0 || res.Meta.Suggestions[0] != "California" {
		t.Errorf("suggestions = %v", res.Meta.Suggestions)
	}
	if got := jobIDs(res.Results); !reflect.DeepEqual(got, []string{"sf"}) {
		t.Errorf("results = %v, want the job found through a nearby location", got)
	}
}

func TestAggregate_RemoteOnly(t *testing.T) {
	src := &stubSource{name: "stub", respond: func(source.SearchParams) ([]domain.Job, error) {
		return []domain.Job{
			{ID: "r1", Title: "Go", Remote: true, Source: "stub"},
			{ID: "r2", Title: "Go (Remote)", Location: "Anywhere", Source: "stub"},
			{ID: "o1", Title: "Go", Location: "Austin, TX", Source: "stub"},
		}, nil
	}}
	agg := NewAggregator([]source.JobSource{src}, newMemoryCache(), nil, nil, nil, AggregatorConfig{})

	res, err := agg.Aggregate(context.Background(), domain.SearchCriteria{Query: "go", RemoteOnly: true, AllowRemote: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, j := range res.Results {
		if j.ID == "o1" {
			t.Errorf("onsite job passed a remote-only search")
		}
	}
	if len(src.Calls()) == 0 || !src.Calls()[0].RemoteOnly {
		t.Error("remote flag not forwarded to the source")
	}
}

type stubRatings map[string]*domain.CompanyRating

func (s stubRatings) Rating(ctx context.Context, company string) (*domain.CompanyRating, bool) {
	r, ok := s[company]
	return r, ok
}

func TestAggregate_AttachesRatings(t *testing.T) {
	src := &stubSource{name: "stub", respond: func(source.SearchParams) ([]domain.Job, error) {
		return []domain.Job{
			{ID: "1", Title: "Go", Company: "Acme", Source: "stub"},
			{ID: "2", Title: "Go", Company: "Globex", Source: "stub"},
		}, nil
	}}
	ratings := stubRatings{"Acme": {Rating: 4.2, ReviewCount: 120, Source: "stub"}}
	agg := NewAggregator([]source.JobSource{src}, newMemoryCache(), nil, ratings, nil, AggregatorConfig{})

	res, err := agg.Aggregate(context.Background(), domain.SearchCriteria{Query: "go"})
	if err != nil {
		t.Fatal(err)
	}
	for _, j := range res.Results {
		switch j.Company {
		case "Acme":
			if j.CompanyRating == nil || j.CompanyRating.Rating != 4.2 {
				t.Errorf("Acme rating = %+v", j.CompanyRating)
			}
		case "Globex":
			if j.CompanyRating != nil {
				t.Errorf("Globex rating = %+v, want none", j.CompanyRating)
			}
		}
	}
}

func TestAggregate_NilRatingService(t *testing.T) {
	var rs *RatingService
	src := &stubSource{name: "stub", respond: func(source.SearchParams) ([]domain.Job, error) {
		return []domain.Job{{ID: "1", Title: "Go", Company: "Acme", Source: "stub"}}, nil
	}}
	agg := NewAggregator([]source.JobSource{src}, newMemoryCache(), nil, rs, nil, AggregatorConfig{})

	res, err := agg.Aggregate(context.Background(), domain.SearchCriteria{Query: "go"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Results) != 1 || res.Results[0].CompanyRating != nil {
		t.Errorf("results = %+v, want one job without a rating", res.Results)
	}
}

func TestAggregate_PreferredLocationsDoNotShareCache(t *testing.T) {
	src := &stubSource{name: "stub", respond: func(source.SearchParams) ([]domain.Job, error) {
		return []domain.Job{
			{ID: "b1", Title: "Go", Location: "Berlin, Germany", Source: "stub"},
			{ID: "l1", Title: "Go", Location: "London, UK", Source: "stub"},
		}, nil
	}}
	agg := NewAggregator([]source.JobSource{src}, newMemoryCache(), nil, nil, nil, AggregatorConfig{})
	ctx := context.Background()

	tests := []struct {
		preferred string
		want      []string
	}{
		{"Berlin", []string{"b1"}},
		{"London", []string{"l1"}},
	}
	for _, tt := range tests {
		t.Run(tt.preferred, func(t *testing.T) {
			res, err := agg.Aggregate(ctx, domain.SearchCriteria{Query: "go dev", PreferredLocations: []string{tt.preferred}})
			if err != nil {
				t.Fatal(err)
			}
			if got := jobIDs(res.Results); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("results = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregate_RemoteLocationAcceptsRemoteJobs(t *testing.T) {
	src := &stubSource{name: "stub", respond: func(source.SearchParams) ([]domain.Job, error) {
		return []domain.Job{
			{ID: "r1", Title: "Go", Location: "Austin, TX, US", Remote: true, Source: "stub"},
			{ID: "o1", Title: "Go", Location: "Berlin, Germany", Source: "stub"},
		}, nil
	}}
	agg := NewAggregator([]source.JobSource{src}, newMemoryCache(), nil, nil, nil, AggregatorConfig{})

	res, err := agg.Aggregate(context.Background(), domain.SearchCriteria{Query: "go", Location: "Remote"})
	if err != nil {
		t.Fatal(err)
	}
	if got := jobIDs(res.Results); !reflect.DeepEqual(got, []string{"r1"}) {
		t.Errorf("results = %v, want only the remote job", got)
	}
}

func TestAggregate_EmptyCooldownResultNotCached(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStorage()
	archive := NewSnapshotArchive(store)
	src := &stubSource{name: "stub", cooling: true, respond: func(source.SearchParams) ([]domain.Job, error) {
		return nil, source.ErrCoolingDown
	}}
	agg := NewAggregator([]source.JobSource{src}, newMemoryCache(), nil, nil, archive, AggregatorConfig{})

	res, err := agg.Aggregate(ctx, domain.SearchCriteria{Query: "go"})
	if err != nil {
		t.Fatal(err)
	}
	archive.Wait()
	if len(res.Results) != 0 {
		t.Fatalf("results = %v", jobIDs(res.Results))
	}
	if len(store.objects) != 0 {
		t.Errorf("empty cooldown result archived: %v", store.objects)
	}

	src.cooling = false
	src.respond = func(source.SearchParams) ([]domain.Job, error) {
		return []domain.Job{{ID: "fresh", Title: "Go", Source: "stub"}}, nil
	}
	res, err = agg.Aggregate(ctx, domain.SearchCriteria{Query: "go"})
	if err != nil {
		t.Fatal(err)
	}
	if got := jobIDs(res.Results); !reflect.DeepEqual(got, []string{"fresh"}) {
		t.Errorf("results after cooldown = %v, want a fresh fetch", got)
	}
}

func TestUniqueByID(t *testing.T) {
	jobs := []domain.Job{
		{ID: "1"}, {ID: "2"}, {ID: "1"},
		job("", "Go Dev", "Acme", "Austin"),
		job("", "go dev", "ACME", "austin"),
	}
	got := UniqueByID(jobs)
	if len(got) != 3 {
		t.Fatalf("UniqueByID kept %d, want 3", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("order not preserved: %v", jobIDs(got))
	}
}
