package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/llm"
	"github.com/harshgondal/Job-Finder/internal/logger"
	"github.com/harshgondal/Job-Finder/internal/prompts"
)

// MatchAgent writes match explanations. Without an LLM, or when the LLM
// fails, the explanation is generated from rules.
type MatchAgent struct {
	llm llm.Client
	now func() time.Time
}

// NewMatchAgent creates a MatchAgent. client may be nil.
func NewMatchAgent(client llm.Client) *MatchAgent {
	return &MatchAgent{llm: client, now: time.Now}
}

// matchPromptProfile is the part of a profile the LLM sees.
type matchPromptProfile struct {
	Skills          []string `json:"skills"`
	ExperienceYears float64  `json:"experience_years"`
	Roles           []string `json:"roles,omitempty"`
	Locations       []string `json:"preferred_locations,omitempty"`
	WorkModes       []string `json:"work_modes,omitempty"`
}

type matchPromptJob struct {
	Title    string            `json:"title"`
	Company  string            `json:"company"`
	Location string            `json:"location"`
	Details  domain.Normalized `json:"details"`
}

// ExplainMatch returns a ready match. Only a cancelled or expired context
// produces an error; LLM failures fall back to rules.
func (m *MatchAgent) ExplainMatch(ctx context.Context, p *domain.Profile, job domain.NormalizedJob) (domain.Match, error) {
	if p == nil {
		p = &domain.Profile{}
	}
	base := ComputeBaseScore(p, job, ScoreOptions{})
	fallback := m.deterministic(p, job, base)

	if m.llm == nil {
		return fallback, nil
	}

	explained, err := m.fromLLM(ctx, p, job, base)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Match{}, ctx.Err()
		}
		logger.CtxWarn(ctx, "llm match explanation failed, using rules: %v", err)
		return fallback, nil
	}

	if explained.Summary == "" {
		explained.Summary = fallback.Summary
	}
	if len(explained.MissingSkills) == 0 {
		explained.MissingSkills = fallback.MissingSkills
	}
	for i := len(explained.Reasoning); i < 3; i++ {
		explained.Reasoning = append(explained.Reasoning, fallback.Reasoning[i])
	}
	if len(explained.Suggestions) == 0 {
		explained.Suggestions = fallback.Suggestions
	}
	return explained, nil
}

func (m *MatchAgent) deterministic(p *domain.Profile, job domain.NormalizedJob, base ScoreResult) domain.Match {
	missing := GetMissingSkills(p, job)
	return domain.Match{
		Status:        domain.MatchReady,
		Score:         base.Score,
		Summary:       GenerateBasicSummary(p, job, base.Score),
		MissingSkills: missing,
		Reasoning:     GenerateBasicReasoning(p, job, base),
		Suggestions:   GenerateBasicSuggestions(p, job, missing),
		Version:       2,
		UpdatedAt:     m.now(),
	}
}

func (m *MatchAgent) fromLLM(ctx context.Context, p *domain.Profile, job domain.NormalizedJob, base ScoreResult) (domain.Match, error) {
	signals := BuildSignals(p)
	profileJSON, _ := json.Marshal(matchPromptProfile{
		Skills:          p.Skills,
		ExperienceYears: p.ExperienceYears,
		Roles:           p.Roles,
		Locations:       signals.Locations,
		WorkModes:       signals.WorkModes,
	})
	jobJSON, _ := json.Marshal(matchPromptJob{
		Title:    job.Title,
		Company:  job.Company,
		Location: job.Location,
		Details:  job.Normalized,
	})

	raw, err := m.llm.Complete(ctx, llm.Request{
		System: prompts.MatchSystemPrompt,
		Prompt: prompts.Fill(prompts.MatchUserPrompt, map[string]string{
			"PROFILE_JSON": string(profileJSON),
			"JOB_JSON":     string(jobJSON),
			"BASE_SCORE":   strconv.Itoa(base.Score),
		}),
		MaxTokens:   600,
		Temperature: 0.3,
		JSON:        true,
	})
	if err != nil {
		return domain.Match{}, err
	}
	data, err := llm.DecodeObject(raw)
	if err != nil {
		return domain.Match{}, err
	}

	score := base.Score
	if f, ok := llm.CoerceFloat(data["score"]); ok {
		score = clampScore(int(f + 0.5))
	}
	reasoning := llm.CoerceStrings(data["reasoning"])
	if len(reasoning) > 3 {
		reasoning = reasoning[:3]
	}

	return domain.Match{
		Status:        domain.MatchReady,
		Score:         score,
		Summary:       llm.CoerceString(data["summary"]),
		MissingSkills: llm.CoerceStrings(data["missing_skills"]),
		Reasoning:     reasoning,
		Suggestions:   llm.CoerceStrings(data["suggestions"]),
		Version:       2,
		UpdatedAt:     m.now(),
	}, nil
}
