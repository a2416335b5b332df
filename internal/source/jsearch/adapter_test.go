package jsearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harshgondal/Job-Finder/internal/source"
)

func TestClient_SearchMapsPostings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-RapidAPI-Key"); got != "secret" {
			t.Errorf("missing api key header, got %q", got)
		}
		q := r.URL.Query()
		if q.Get("query") != "backend developer in Berlin" || q.Get("page") != "2" || q.Get("date_posted") != "week" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("remote_jobs_only") != "true" || q.Get("country") != "de" {
			t.Errorf("unexpected filters %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","data":[
			{"job_id":"abc","job_title":"Backend Developer","employer_name":"Acme","job_city":"Berlin","job_country":"DE",
			 "job_is_remote":true,"job_posted_at_datetime_utc":"2025-05-01T10:00:00.000Z","job_min_salary":50000,"job_max_salary":70000,
			 "job_salary_currency":"EUR","job_salary_period":"YEAR"},
			{"job_title":"Go Developer","employer_name":"Beta","job_location":"Hamburg, Germany"}
		]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "secret", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	jobs, err := c.Search(context.Background(), source.SearchParams{
		Query: "backend developer", Location: "Berlin", CountryCode: "DE",
		Page: 2, DatePosted: source.DateWeek, RemoteOnly: true,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}

	first := jobs[0]
	if first.ID != "abc" || first.Location != "Berlin, DE" || !first.Remote || first.CountryCode != "DE" {
		t.Errorf("unexpected first job %+v", first)
	}
	if first.Salary != "EUR 50000-70000 / year" {
		t.Errorf("Salary = %q", first.Salary)
	}
	if first.Source != Name {
		t.Errorf("Source = %q", first.Source)
	}
	if jobs[1].ID == "" || jobs[1].Location != "Hamburg, Germany" {
		t.Errorf("second job should get a synthetic id and keep its location: %+v", jobs[1])
	}
}

func TestClient_RateLimitStartsCooldown(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	_, err = c.Search(ctx, source.SearchParams{Query: "go"})
	var rl *source.RateLimitError
	if !errors.As(err, &rl) || rl.Status != http.StatusTooManyRequests {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if !c.CoolingDown() {
		t.Fatal("client should be cooling down")
	}

	if _, err := c.Search(ctx, source.SearchParams{Query: "go"}); !errors.Is(err, source.ErrCoolingDown) {
		t.Fatalf("expected ErrCoolingDown, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("upstream called %d times, want 1", n)
	}

	now = now.Add(61 * time.Second)
	if c.CoolingDown() {
		t.Error("cooldown should have expired")
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error without api key")
	}
}
