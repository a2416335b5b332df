package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harshgondal/Job-Finder/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestMemoryStore_TTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(10, WithClock(clock.Now))
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := s.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Fatalf("expected hit, got %q ok=%v", v, ok)
	}

	clock.t = clock.t.Add(time.Minute)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("expected entry to expire after its TTL")
	}
	if s.Len() != 0 {
		t.Errorf("expired entry should be removed, len=%d", s.Len())
	}
}

func TestMemoryStore_LRUEviction(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	_ = s.Set(ctx, "a", []byte("1"), 0)
	_ = s.Set(ctx, "b", []byte("2"), 0)
	_, _, _ = s.Get(ctx, "a") // a becomes most recent
	_ = s.Set(ctx, "c", []byte("3"), 0)

	if _, ok, _ := s.Get(ctx, "b"); ok {
		t.Error("expected least recently used key b to be evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok, _ := s.Get(ctx, k); !ok {
			t.Errorf("expected %s to survive eviction", k)
		}
	}
}

func TestMemoryStore_Claim(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := NewMemoryStore(10, WithClock(clock.Now))
	ctx := context.Background()

	if ok, _ := s.Claim(ctx, "claim:x", time.Second); !ok {
		t.Fatal("first claim should succeed")
	}
	if ok, _ := s.Claim(ctx, "claim:x", time.Second); ok {
		t.Fatal("second claim should fail while the first is live")
	}
	clock.t = clock.t.Add(2 * time.Second)
	if ok, _ := s.Claim(ctx, "claim:x", time.Second); !ok {
		t.Fatal("claim should succeed after expiry")
	}
}

type brokenStore struct{}

var errBackendDown = errors.New("backend down")

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errBackendDown
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error { return errBackendDown }
func (brokenStore) Delete(context.Context, string) error                     { return errBackendDown }

func TestCache_FailsSoft(t *testing.T) {
	c := New(brokenStore{})
	ctx := context.Background()

	var out map[string]string
	if c.GetJSON(ctx, "k", &out) {
		t.Error("GetJSON should report a miss when the backend fails")
	}
	if c.SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Minute) {
		t.Error("SetJSON should report false when the backend fails")
	}
	if c.Delete(ctx, "k") {
		t.Error("Delete should report false when the backend fails")
	}
	if !c.Claim(ctx, "k", time.Minute) {
		t.Error("Claim should be granted when the backend cannot answer")
	}

	var nilCache *Cache
	if nilCache.GetJSON(ctx, "k", &out) || nilCache.SetJSON(ctx, "k", 1, 0) {
		t.Error("nil cache should never hit")
	}
}

func TestCache_RoundTripAndCorruptEntry(t *testing.T) {
	store := NewMemoryStore(10)
	c := New(store)
	ctx := context.Background()

	m := domain.Match{Status: domain.MatchReady, Score: 77, Summary: "good fit"}
	if !c.SetJSON(ctx, "match:p:j", m, time.Minute) {
		t.Fatal("SetJSON failed")
	}
	var got domain.Match
	if !c.GetJSON(ctx, "match:p:j", &got) || got.Score != 77 || got.Status != domain.MatchReady {
		t.Fatalf("unexpected round trip: %+v", got)
	}

	_ = store.Set(ctx, "bad", []byte("{not json"), time.Minute)
	if c.GetJSON(ctx, "bad", &got) {
		t.Error("corrupt entry should read as a miss")
	}
	if _, ok, _ := store.Get(ctx, "bad"); ok {
		t.Error("corrupt entry should be evicted")
	}
}

func TestJobKey_Stable(t *testing.T) {
	tests := []struct {
		name string
		job  domain.Job
		want string
	}{
		{name: "uses id", job: domain.Job{ID: " abc-1 ", Title: "Go Dev"}, want: "abc-1"},
		{name: "composite", job: domain.Job{Title: "Go Dev", Company: "Acme", Location: "Berlin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := JobKey(tt.job)
			for i := 0; i < 3; i++ {
				if got := JobKey(tt.job); got != first {
					t.Fatalf("key changed between calls: %s vs %s", first, got)
				}
			}
			if tt.want != "" && first != tt.want {
				t.Errorf("JobKey = %q, want %q", first, tt.want)
			}
		})
	}

	a := domain.Job{Title: "Go Dev", Company: "Acme", Location: "Berlin"}
	b := domain.Job{Title: "  go   dev", Company: "ACME", Location: "berlin"}
	if JobKey(a) != JobKey(b) {
		t.Error("composite key should ignore case and spacing")
	}
	if NormalizedKey(JobKey(a)) != PrefixNormalized+JobKey(b) {
		t.Error("normalized key should derive from the job key")
	}
}

func TestAggregateKey_OrderInsensitive(t *testing.T) {
	a := domain.SearchCriteria{Query: "Backend Developer", Location: "Remote", Limit: 50,
		WorkModes: []string{"remote", "hybrid"}, EmploymentTypes: []string{"FULLTIME"}}
	b := domain.SearchCriteria{Query: "backend developer", Location: "remote", Limit: 50,
		WorkModes: []string{"Hybrid", "Remote"}, EmploymentTypes: []string{"fulltime"},
		DatePosted: "month"}
	if AggregateKey(a) != AggregateKey(b) {
		t.Error("equivalent criteria should share a key")
	}

	b.PreferredLocations = []string{"London", "berlin"}
	a.PreferredLocations = []string{"Berlin", "london"}
	b.Order = "desc"
	if AggregateKey(a) != AggregateKey(b) {
		t.Error("preferred locations in a different order should share a key")
	}

	tests := []struct {
		name   string
		mutate func(*domain.SearchCriteria)
	}{
		{"remote only", func(c *domain.SearchCriteria) { c.RemoteOnly = true }},
		{"allow remote", func(c *domain.SearchCriteria) { c.AllowRemote = true }},
		{"ascending order", func(c *domain.SearchCriteria) { c.Order = "asc" }},
		{"preferred locations", func(c *domain.SearchCriteria) { c.PreferredLocations = []string{"Paris"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := a
			tt.mutate(&c)
			if AggregateKey(a) == AggregateKey(c) {
				t.Errorf("%s should change the key", tt.name)
			}
		})
	}
}

func TestKeysAndSlug(t *testing.T) {
	if got := MatchKey("u1", "j1"); got != "match:u1:j1" || !IsMatchKey(got) {
		t.Errorf("unexpected match key %q", got)
	}
	if IsMatchKey("match:") || IsMatchKey("job:normalized:x") {
		t.Error("IsMatchKey accepted a non-match key")
	}
	if got := Slug("  Acme, Inc. "); got != "acme-inc" {
		t.Errorf("Slug = %q", got)
	}
	if got := CompanyResearchKey("Acme Inc", "anon"); got != "company:research:acme-inc:anon" {
		t.Errorf("CompanyResearchKey = %q", got)
	}
	if ProfileKey(nil) != AnonymousProfile {
		t.Error("nil profile should be anonymous")
	}
	p := &domain.Profile{Skills: []string{"Go", "SQL"}, ExperienceYears: 3}
	q := &domain.Profile{Skills: []string{"sql", "go"}, ExperienceYears: 3}
	if ProfileKey(p) != ProfileKey(q) {
		t.Error("profile digest should ignore skill order and case")
	}
}
