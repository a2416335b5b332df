package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/llm"
	"github.com/harshgondal/Job-Finder/internal/logger"
	"github.com/harshgondal/Job-Finder/internal/prompts"
)

const maxDescriptionChars = 2000

// knownSkills is the vocabulary scanned by FallbackNormalize.
var knownSkills = []string{
	"Go", "Golang", "Python", "Java", "JavaScript", "TypeScript", "Rust", "C++", "C#", "Ruby", "PHP", "Kotlin", "Swift", "Scala",
	"React", "Angular", "Vue", "Node.js", "Django", "Flask", "Spring", "Rails", ".NET",
	"SQL", "PostgreSQL", "MySQL", "MongoDB", "Redis", "Kafka", "RabbitMQ", "Elasticsearch",
	"AWS", "GCP", "Azure", "Docker", "Kubernetes", "Terraform", "Linux", "CI/CD", "Git",
	"GraphQL", "REST", "gRPC", "Microservices", "Machine Learning", "TensorFlow", "PyTorch", "Spark", "Airflow",
}

// Normalizer extracts structured fields from postings with an LLM.
type Normalizer struct {
	llm llm.Client
}

// NewNormalizer creates a Normalizer. A nil client makes every call fail
// with llm.ErrUnavailable.
func NewNormalizer(client llm.Client) *Normalizer {
	return &Normalizer{llm: client}
}

// Normalize extracts the normalized view of job. It is stateless; callers
// cache by job key.
func (n *Normalizer) Normalize(ctx context.Context, job domain.Job) (*domain.NormalizedJob, error) {
	if n == nil || n.llm == nil {
		return nil, llm.ErrUnavailable
	}

	start := time.Now()
	raw, err := n.llm.Complete(ctx, llm.Request{
		System: prompts.NormalizeSystemPrompt,
		Prompt: prompts.Fill(prompts.NormalizeUserPrompt, map[string]string{
			"TITLE":           job.Title,
			"COMPANY":         job.Company,
			"LOCATION":        job.Location,
			"EMPLOYMENT_TYPE": job.EmploymentType,
			"SALARY":          job.Salary,
			"DESCRIPTION":     truncateRunes(job.Description, maxDescriptionChars),
		}),
		MaxTokens:   700,
		Temperature: 0.1,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("normalize job %s: %w", job.ID, err)
	}

	data, err := llm.DecodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize job %s: %w", job.ID, err)
	}

	normalized := domain.Normalized{
		Title:          llm.CoerceString(data["title"]),
		RequiredSkills: nonNil(llm.CoerceStrings(data["required_skills"])),
		NiceToHave:     nonNil(llm.CoerceStrings(data["nice_to_have"])),
		Level:          canonicalLevel(llm.CoerceString(data["level"])),
		EmploymentType: llm.CoerceString(data["employment_type"]),
		WorkMode:       canonicalWorkMode(llm.CoerceString(data["work_mode"])),
		RedFlags:       nonNil(llm.CoerceStrings(data["red_flags"])),
		GreenFlags:     nonNil(llm.CoerceStrings(data["green_flags"])),
		SalaryRange:    llm.CoerceString(data["salary_range"]),
		Summary:        llm.CoerceString(data["summary"]),
	}
	if normalized.Title == "" {
		normalized.Title = job.Title
	}
	if normalized.EmploymentType == "" {
		normalized.EmploymentType = job.EmploymentType
	}
	if normalized.SalaryRange == "" {
		normalized.SalaryRange = job.Salary
	}

	logger.With(logger.Fields{
		logger.FieldJobKey:     job.ID,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Debug(ctx, "job normalized")

	return &domain.NormalizedJob{Job: job, Normalized: normalized}, nil
}

// FallbackNormalize derives a normalized view from the raw posting with
// keyword rules. It is used when the LLM fails and is never cached.
func FallbackNormalize(job domain.Job) domain.NormalizedJob {
	text := strings.ToLower(job.Title + " " + job.Description)

	skills := []string{}
	for _, skill := range knownSkills {
		if containsWord(text, strings.ToLower(skill)) {
			skills = append(skills, skill)
		}
	}

	nj := domain.NormalizedJob{
		Job: job,
		Normalized: domain.Normalized{
			Title:          job.Title,
			RequiredSkills: skills,
			NiceToHave:     []string{},
			Level:          levelFromTitle(job.Title),
			EmploymentType: job.EmploymentType,
			RedFlags:       []string{},
			GreenFlags:     []string{},
			SalaryRange:    job.Salary,
			Summary:        truncateRunes(strings.TrimSpace(job.Description), 240),
		},
	}
	nj.Normalized.WorkMode = InferWorkMode(nj)
	return nj
}

func levelFromTitle(title string) string {
	t := " " + strings.ToLower(title) + " "
	switch {
	case strings.Contains(t, "intern"):
		return domain.LevelIntern
	case strings.Contains(t, "lead"), strings.Contains(t, "principal"), strings.Contains(t, "staff"), strings.Contains(t, "head of"):
		return domain.LevelLead
	case strings.Contains(t, "senior"), strings.Contains(t, " sr"):
		return domain.LevelSenior
	case strings.Contains(t, "junior"), strings.Contains(t, " jr"), strings.Contains(t, "entry"), strings.Contains(t, "graduate"):
		return domain.LevelJunior
	}
	return ""
}

// containsWord matches word at word boundaries so "go" does not match "good".
func containsWord(text, word string) bool {
	for idx := 0; idx < len(text); {
		i := strings.Index(text[idx:], word)
		if i == -1 {
			return false
		}
		start := idx + i
		end := start + len(word)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		idx = start + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
