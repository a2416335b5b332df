// Package adzuna queries the Adzuna job search API.
package adzuna

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
	Name = "adzuna"

	defaultBaseURL  = "https://api.adzuna.com"
	defaultCountry  = "us"
	defaultPageSize = 20
)

// Config defines Adzuna API client settings.
type Config struct {
	AppID    string
	AppKey   string
	Country  string
	BaseURL  string
	PageSize int
	Timeout  time.Duration
	Cooldown time.Duration
}

// Client implements source.JobSource for Adzuna.
type Client struct {
	http     *resty.Client
	appID    string
	appKey   string
	country  string
	pageSize int
	cooldown *source.Cooldown
	now      func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithClock injects the clock used by the cooldown.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient instantiates an Adzuna API client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.AppID == "" || cfg.AppKey == "" {
		return nil, fmt.Errorf("adzuna: app_id and app_key are required")
	}
	country := strings.ToLower(cfg.Country)
	if country == "" {
		country = defaultCountry
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	c := &Client{
		http:     resty.New().SetBaseURL(baseURL).SetTimeout(timeout).SetHeader("Accept", "application/json"),
		appID:    cfg.AppID,
		appKey:   cfg.AppKey,
		country:  country,
		pageSize: pageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cooldown = source.NewCooldown(cfg.Cooldown, c.now)
	return c, nil
}

// Name identifies Adzuna in logs and source counts.
func (c *Client) Name() string { return Name }

// CoolingDown reports whether a 429/403 paused the client.
func (c *Client) CoolingDown() bool { return c.cooldown.Active() }

type searchResponse struct {
	Count   int       `json:"count"`
	Results []posting `json:"results"`
}

type posting struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Created      string  `json:"created"`
	RedirectURL  string  `json:"redirect_url"`
	ContractTime string  `json:"contract_time"`
	ContractType string  `json:"contract_type"`
	SalaryMin    float64 `json:"salary_min"`
	SalaryMax    float64 `json:"salary_max"`
	Company      struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string   `json:"display_name"`
		Area        []string `json:"area"`
	} `json:"location"`
}

// Search queries one page of Adzuna and maps the ads to jobs.
func (c *Client) Search(ctx context.Context, params source.SearchParams) ([]domain.Job, error) {
	if c.cooldown.Active() {
		return nil, source.ErrCoolingDown
	}
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("adzuna: query is required")
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	country := c.country
	if params.CountryCode != "" {
		country = strings.ToLower(params.CountryCode)
	}

	var payload searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"country": country, "page": strconv.Itoa(page)}).
		SetQueryParams(c.buildQuery(params)).
		SetResult(&payload).
		Get("/v1/api/jobs/{country}/search/{page}")
	if err != nil {
		return nil, fmt.Errorf("adzuna: request failed: %w", err)
	}

	status := resp.StatusCode()
	if source.IsRateLimitStatus(status) {
		c.cooldown.Trigger()
		logger.CtxWarn(ctx, "adzuna rate limited, cooling down: status=%d", status)
		return nil, &source.RateLimitError{Source: Name, Status: status}
	}
	if status >= 400 {
		body := resp.String()
		if len(body) > 300 {
			body = body[:300]
		}
		return nil, fmt.Errorf("adzuna: API error (%d): %s", status, body)
	}

	jobs := make([]domain.Job, 0, len(payload.Results))
	for i, p := range payload.Results {
		jobs = append(jobs, mapPosting(p, strings.ToUpper(country), (page-1)*c.pageSize+i))
	}
	return jobs, nil
}

func (c *Client) buildQuery(params source.SearchParams) map[string]string {
	q := map[string]string{
		"app_id":           c.appID,
		"app_key":          c.appKey,
		"what":             strings.TrimSpace(params.Query),
		"results_per_page": strconv.Itoa(c.pageSize),
		"sort_by":          "date",
		"content-type":     "application/json",
	}
	if loc := strings.TrimSpace(params.Location); loc != "" && !strings.EqualFold(loc, "remote") {
		q["where"] = loc
	}
	if params.RemoteOnly {
		q["what_or"] = "remote"
	}
	if days := maxDaysOld(params.DatePosted); days > 0 {
		q["max_days_old"] = strconv.Itoa(days)
	}
	for _, t := range params.EmploymentTypes {
		switch strings.ToUpper(t) {
		case "FULLTIME":
			q["full_time"] = "1"
		case "PARTTIME":
			q["part_time"] = "1"
		case "CONTRACTOR":
			q["contract"] = "1"
		}
	}
	return q
}

func maxDaysOld(window string) int {
	switch window {
	case source.DateToday:
		return 1
	case source.Date3Days:
		return 3
	case source.DateWeek:
		return 7
	case source.DateMonth:
		return 30
	}
	return 0
}

func mapPosting(p posting, countryCode string, ordinal int) domain.Job {
	job := domain.Job{
		ID:          strings.TrimSpace(p.ID),
		Title:       strings.TrimSpace(p.Title),
		Company:     strings.TrimSpace(p.Company.DisplayName),
		Location:    strings.TrimSpace(p.Location.DisplayName),
		CountryCode: countryCode,
		Description: p.Description,
		Source:      Name,
		ExternalURL: p.RedirectURL,
		PostedAt:    p.Created,
	}
	if len(p.Location.Area) > 0 {
		job.Country = p.Location.Area[0]
	}
	job.Remote = source.LooksRemote(job.Title, job.Location)

	switch p.ContractTime {
	case "full_time":
		job.EmploymentType = "FULLTIME"
	case "part_time":
		job.EmploymentType = "PARTTIME"
	}
	if p.ContractType == "contract" {
		job.EmploymentType = "CONTRACTOR"
	}
	if p.SalaryMin > 0 || p.SalaryMax > 0 {
		job.Salary = fmt.Sprintf("%.0f-%.0f", p.SalaryMin, p.SalaryMax)
	}
	if job.ID == "" {
		job.ID = source.SyntheticID(Name, job.Title, job.Company, job.Location, ordinal)
	}
	return job
}
