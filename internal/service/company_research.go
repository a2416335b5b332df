package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/llm"
	"github.com/harshgondal/Job-Finder/internal/logger"
	"github.com/harshgondal/Job-Finder/internal/prompts"
)

// CompanyResearchService writes short employer briefings.
type CompanyResearchService struct {
	llm     llm.Client
	ratings RatingFinder
	cache   *cache.Cache
	ttl     time.Duration
}

// NewCompanyResearchService creates the service. client and ratings may be nil.
func NewCompanyResearchService(client llm.Client, ratings RatingFinder, c *cache.Cache, ttl time.Duration) *CompanyResearchService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CompanyResearchService{llm: client, ratings: ratings, cache: c, ttl: ttl}
}

// Research returns the briefing for company as seen by profile (nil allowed).
func (s *CompanyResearchService) Research(ctx context.Context, company string, p *domain.Profile) (*domain.CompanyResearch, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, ErrCompanyRequired
	}
	ctx = logger.SetComponent(ctx, "company_research")

	key := cache.CompanyResearchKey(company, cache.ProfileKey(p))
	var cached domain.CompanyResearch
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	var rating *domain.CompanyRating
	if s.ratings != nil {
		rating, _ = s.ratings.Rating(ctx, company)
	}

	research, err := s.fromLLM(ctx, company, rating, p)
	if err != nil {
		if !errors.Is(err, llm.ErrUnavailable) {
			logger.CtxWarn(ctx, "llm company research failed, using rules: company=%s, error=%v", company, err)
		}
		research = RuleBasedResearch(company, rating, p)
	}
	research.Rating = rating

	s.cache.SetJSON(ctx, key, research, s.ttl)
	return research, nil
}

func (s *CompanyResearchService) fromLLM(ctx context.Context, company string, rating *domain.CompanyRating, p *domain.Profile) (*domain.CompanyResearch, error) {
	if s.llm == nil {
		return nil, llm.ErrUnavailable
	}
	raw, err := s.llm.Complete(ctx, llm.Request{
		System: prompts.CompanyResearchSystemPrompt,
		Prompt: prompts.Fill(prompts.CompanyResearchUserPrompt, map[string]string{
			"COMPANY": company,
			"RATING":  describeRating(rating),
			"PROFILE": describeProfile(p),
		}),
		MaxTokens:   700,
		Temperature: 0.3,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}
	data, err := llm.DecodeObject(raw)
	if err != nil {
		return nil, err
	}
	research := &domain.CompanyResearch{
		Company:       company,
		Overview:      llm.CoerceString(data["overview"]),
		Culture:       llm.CoerceString(data["culture"]),
		Pros:          nonNil(llm.CoerceStrings(data["pros"])),
		Cons:          nonNil(llm.CoerceStrings(data["cons"])),
		InterviewTips: nonNil(llm.CoerceStrings(data["interview_tips"])),
		FitNotes:      llm.CoerceString(data["fit_notes"]),
		GeneratedBy:   "llm",
	}
	if research.Overview == "" {
		return nil, fmt.Errorf("company research for %s: empty overview", company)
	}
	return research, nil
}

// RuleBasedResearch builds a briefing from rating data and the profile.
func RuleBasedResearch(company string, rating *domain.CompanyRating, p *domain.Profile) *domain.CompanyResearch {
	r := &domain.CompanyResearch{
		Company:     company,
		Overview:    fmt.Sprintf("No detailed research is available for %s yet. Check the company's careers page and recent news before applying.", company),
		Culture:     "Culture information is not available.",
		Pros:        []string{},
		Cons:        []string{},
		GeneratedBy: "rules",
		InterviewTips: []string{
			fmt.Sprintf("Research %s's products and explain why you want to work on them.", company),
			"Prepare two or three stories that show impact with concrete numbers.",
		},
	}

	if rating != nil {
		r.Culture = fmt.Sprintf("Employees rate %s %.1f/5 across %d reviews.", company, rating.Rating, rating.ReviewCount)
		r.Pros = append(r.Pros, rating.Highlights...)
		switch {
		case rating.Rating >= 4:
			r.Pros = append(r.Pros, "Strong employee ratings")
		case rating.Rating > 0 && rating.Rating < 3:
			r.Cons = append(r.Cons, "Below-average employee ratings")
		}
		if rating.ReviewCount > 0 && rating.ReviewCount < 20 {
			r.Cons = append(r.Cons, "Few reviews, so ratings may not be representative")
		}
	}

	if p != nil && len(p.Skills) > 0 {
		r.InterviewTips = append(r.InterviewTips, fmt.Sprintf("Expect questions on %s.", joinFirst(p.Skills, 3)))
		r.FitNotes = fmt.Sprintf("Your background in %s with %s of experience is the angle to lead with.", joinFirst(p.Skills, 3), years(p.ExperienceYears))
	}
	return r
}

func describeRating(r *domain.CompanyRating) string {
	if r == nil {
		return "none"
	}
	s := fmt.Sprintf("%.1f/5 from %d reviews", r.Rating, r.ReviewCount)
	if len(r.Highlights) > 0 {
		s += "; highlights: " + strings.Join(r.Highlights, "; ")
	}
	return s
}

func describeProfile(p *domain.Profile) string {
	if p == nil || (len(p.Skills) == 0 && len(p.Roles) == 0) {
		return "none"
	}
	return fmt.Sprintf("%s of experience; skills: %s; roles: %s",
		years(p.ExperienceYears), strings.Join(p.Skills, ", "), strings.Join(p.Roles, ", "))
}
