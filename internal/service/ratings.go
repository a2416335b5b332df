package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/config"
	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/logger"
)

var errNoRating = errors.New("no rating in response")

// RatingService looks up employer review summaries and caches them.
type RatingService struct {
	http   *resty.Client
	cache  *cache.Cache
	ttl    time.Duration
	source string
}

// NewRatingService returns nil when ratings are disabled, which every
// caller treats as "no ratings".
func NewRatingService(cfg config.RatingsConfig, c *cache.Cache, ttl time.Duration) *RatingService {
	if !cfg.Enabled || strings.TrimSpace(cfg.BaseURL) == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		if cfg.Host != "" {
			client.SetHeader("X-RapidAPI-Key", cfg.APIKey)
			client.SetHeader("X-RapidAPI-Host", cfg.Host)
		} else {
			client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
		}
	}
	source := cfg.Host
	if source == "" {
		source = "ratings"
	}
	return &RatingService{http: client, cache: c, ttl: ttl, source: source}
}

// Rating returns the cached or fetched rating for company. Failures are
// logged and reported as not found.
func (s *RatingService) Rating(ctx context.Context, company string) (*domain.CompanyRating, bool) {
	if s == nil || strings.TrimSpace(company) == "" {
		return nil, false
	}
	key := cache.CompanyRatingKey(company)

	var cached domain.CompanyRating
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, true
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("company", company).
		Get("/ratings")
	if err != nil {
		logger.CtxWarn(ctx, "rating lookup failed: company=%s, error=%v", company, err)
		return nil, false
	}
	if resp.StatusCode() >= 400 {
		logger.CtxWarn(ctx, "rating lookup failed: company=%s, status=%d", company, resp.StatusCode())
		return nil, false
	}

	rating, err := decodeRating(resp.Body())
	if err != nil {
		logger.CtxDebug(ctx, "no rating for company=%s: %v", company, err)
		return nil, false
	}
	if rating.Source == "" {
		rating.Source = s.source
	}
	s.cache.SetJSON(ctx, key, rating, s.ttl)
	return rating, true
}

// ratingEnvelope is the union of the response shapes the ratings API is
// known to return:
//
//	{"rating": 4.1, "review_count": 120, "highlights": [...]}
//	{"data": {"overall_rating": 4.1, "review_count": 120, "pros": [...]}}
//	{"data": [{"name": "...", "rating": 4.1, "reviews_count": 120}]}
type ratingEnvelope struct {
	Rating      *float64        `json:"rating"`
	ReviewCount int             `json:"review_count"`
	Highlights  []string        `json:"highlights"`
	Source      string          `json:"source"`
	Data        json.RawMessage `json:"data"`
}

type ratingDetail struct {
	OverallRating *float64 `json:"overall_rating"`
	ReviewCount   int      `json:"review_count"`
	Pros          []string `json:"pros"`
}

type ratingListItem struct {
	Name         string   `json:"name"`
	Rating       *float64 `json:"rating"`
	ReviewsCount int      `json:"reviews_count"`
}

func decodeRating(body []byte) (*domain.CompanyRating, error) {
	var env ratingEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode rating: %w", err)
	}

	if env.Rating != nil {
		return &domain.CompanyRating{Rating: *env.Rating, ReviewCount: env.ReviewCount, Source: env.Source, Highlights: env.Highlights}, nil
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, errNoRating
	}

	switch data[0] {
	case '{':
		var d ratingDetail
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode rating detail: %w", err)
		}
		if d.OverallRating == nil {
			return nil, errNoRating
		}
		return &domain.CompanyRating{Rating: *d.OverallRating, ReviewCount: d.ReviewCount, Highlights: d.Pros}, nil
	case '[':
		var items []ratingListItem
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode rating list: %w", err)
		}
		for _, it := range items {
			if it.Rating != nil {
				return &domain.CompanyRating{Rating: *it.Rating, ReviewCount: it.ReviewsCount}, nil
			}
		}
	}
	return nil, errNoRating
}
