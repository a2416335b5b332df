// Package jsearch queries the RapidAPI JSearch job search API.
package jsearch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/logger"
	"github.com/harshgondal/Job-Finder/internal/source"
)

const (
	// Name is the provider name reported in source counts.
	Name = "jsearch"

	defaultBaseURL = "https://jsearch.p.rapidapi.com"
	defaultHost    = "jsearch.p.rapidapi.com"
	pageSize       = 10
)

// Config holds JSearch credentials and endpoint settings.
type Config struct {
	APIKey   string
	Host     string
	BaseURL  string
	Timeout  time.Duration
	Cooldown time.Duration
}

// Client implements source.JobSource for JSearch.
type Client struct {
	http     *resty.Client
	cooldown *source.Cooldown
}

// Option customises a Client.
type Option func(*clientOptions)

type clientOptions struct {
	now func() time.Time
}

// WithClock injects the clock used by the cooldown.
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) { o.now = now }
}

// NewClient builds a JSearch client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("jsearch: api key is required")
	}
	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("X-RapidAPI-Key", cfg.APIKey).
		SetHeader("X-RapidAPI-Host", host).
		SetHeader("Accept", "application/json")

	return &Client{
		http:     client,
		cooldown: source.NewCooldown(cfg.Cooldown, o.now),
	}, nil
}

// Name identifies JSearch in logs and source counts.
func (c *Client) Name() string { return Name }

// CoolingDown reports whether a 429/403 paused the client.
func (c *Client) CoolingDown() bool { return c.cooldown.Active() }

type searchResponse struct {
	Status string    `json:"status"`
	Data   []posting `json:"data"`
}

type posting struct {
	JobID          string   `json:"job_id"`
	Title          string   `json:"job_title"`
	Employer       string   `json:"employer_name"`
	Location       string   `json:"job_location"`
	City           string   `json:"job_city"`
	State          string   `json:"job_state"`
	Country        string   `json:"job_country"`
	IsRemote       bool     `json:"job_is_remote"`
	Description    string   `json:"job_description"`
	ApplyLink      string   `json:"job_apply_link"`
	PostedAtUTC    string   `json:"job_posted_at_datetime_utc"`
	PostedAtUnix   int64    `json:"job_posted_at_timestamp"`
	EmploymentType string   `json:"job_employment_type"`
	MinSalary      *float64 `json:"job_min_salary"`
	MaxSalary      *float64 `json:"job_max_salary"`
	SalaryCurrency string   `json:"job_salary_currency"`
	SalaryPeriod   string   `json:"job_salary_period"`
}

// Search queries one page of JSearch and maps the postings to jobs.
func (c *Client) Search(ctx context.Context, params source.SearchParams) ([]domain.Job, error) {
	if c.cooldown.Active() {
		return nil, source.ErrCoolingDown
	}

	page := params.Page
	if page < 1 {
		page = 1
	}

	var payload searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(buildQuery(params, page)).
		SetResult(&payload).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("jsearch: request failed: %w", err)
	}

	status := resp.StatusCode()
	if source.IsRateLimitStatus(status) {
		c.cooldown.Trigger()
		logger.CtxWarn(ctx, "jsearch rate limited, cooling down: status=%d", status)
		return nil, &source.RateLimitError{Source: Name, Status: status}
	}
	if status >= 400 {
		return nil, fmt.Errorf("jsearch: API error (%d): %s", status, truncate(resp.String(), 300))
	}

	jobs := make([]domain.Job, 0, len(payload.Data))
	for i, p := range payload.Data {
		jobs = append(jobs, mapPosting(p, (page-1)*pageSize+i))
	}
	return jobs, nil
}

func buildQuery(params source.SearchParams, page int) map[string]string {
	query := strings.TrimSpace(params.Query)
	if loc := strings.TrimSpace(params.Location); loc != "" && !strings.EqualFold(loc, "remote") {
		query += " in " + loc
	}

	q := map[string]string{
		"query":     query,
		"page":      strconv.Itoa(page),
		"num_pages": "1",
	}
	if params.CountryCode != "" {
		q["country"] = strings.ToLower(params.CountryCode)
	}
	if params.DatePosted != "" {
		q["date_posted"] = params.DatePosted
	}
	if params.RemoteOnly {
		q["remote_jobs_only"] = "true"
	}
	if len(params.EmploymentTypes) > 0 {
		q["employment_types"] = strings.ToUpper(strings.Join(params.EmploymentTypes, ","))
	}
	if len(params.JobRequirements) > 0 {
		q["job_requirements"] = strings.Join(params.JobRequirements, ",")
	}
	return q
}

func mapPosting(p posting, ordinal int) domain.Job {
	location := strings.TrimSpace(p.Location)
	if location == "" {
		location = source.JoinLocation(p.City, p.State, p.Country)
	}

	job := domain.Job{
		ID:             strings.TrimSpace(p.JobID),
		Title:          strings.TrimSpace(p.Title),
		Company:        strings.TrimSpace(p.Employer),
		Location:       location,
		Remote:         p.IsRemote,
		Country:        p.Country,
		CountryCode:    strings.ToUpper(p.Country),
		Description:    p.Description,
		Source:         Name,
		ExternalURL:    p.ApplyLink,
		PostedAt:       p.PostedAtUTC,
		EmploymentType: p.EmploymentType,
		Salary:         formatSalary(p),
	}
	if job.PostedAt == "" && p.PostedAtUnix > 0 {
		job.PostedAt = time.Unix(p.PostedAtUnix, 0).UTC().Format(time.RFC3339)
	}
	if job.ID == "" {
		job.ID = source.SyntheticID(Name, job.Title, job.Company, job.Location, ordinal)
	}
	return job
}

func formatSalary(p posting) string {
	if p.MinSalary == nil && p.MaxSalary == nil {
		return ""
	}
	var parts []string
	if p.MinSalary != nil {
		parts = append(parts, strconv.FormatFloat(*p.MinSalary, 'f', 0, 64))
	}
	if p.MaxSalary != nil {
		parts = append(parts, strconv.FormatFloat(*p.MaxSalary, 'f', 0, 64))
	}
	s := strings.Join(parts, "-")
	if p.SalaryCurrency != "" {
		s = p.SalaryCurrency + " " + s
	}
	if p.SalaryPeriod != "" {
		s += " / " + strings.ToLower(p.SalaryPeriod)
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
