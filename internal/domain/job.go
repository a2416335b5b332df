package domain

import (
	"strings"
	"time"
)

// Job is a listing as returned by a job source, mapped to one shape.
// It is never mutated after the source returns it, except for the
// optional rating attached by enrichment.
type Job struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Company        string         `json:"company"`
	Location       string         `json:"location"`
	Remote         bool           `json:"remote"`
	Country        string         `json:"country,omitempty"`
	CountryCode    string         `json:"countryCode,omitempty"`
	Description    string         `json:"description,omitempty"`
	Source         string         `json:"source"`
	ExternalURL    string         `json:"externalUrl,omitempty"`
	PostedAt       string         `json:"postedAt,omitempty"`
	EmploymentType string         `json:"employmentType,omitempty"`
	Salary         string         `json:"salary,omitempty"`
	CompanyRating  *CompanyRating `json:"companyRating,omitempty"`
}

var postedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// PostedTime parses PostedAt. Missing or unparseable values yield the
// Unix epoch so they sort last.
func (j Job) PostedTime() time.Time {
	raw := strings.TrimSpace(j.PostedAt)
	if raw == "" {
		return time.Unix(0, 0).UTC()
	}
	for _, layout := range postedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Unix(0, 0).UTC()
}

// Work modes used by normalization, preferences and scoring.
const (
	WorkModeRemote = "remote"
	WorkModeHybrid = "hybrid"
	WorkModeOnsite = "onsite"
)

// Levels recognised by the experience bands.
const (
	LevelIntern = "intern"
	LevelJunior = "junior"
	LevelMid    = "mid"
	LevelSenior = "senior"
	LevelLead   = "lead"
)

// Normalized is the structured view an LLM extracts from a posting.
type Normalized struct {
	Title          string   `json:"title"`
	RequiredSkills []string `json:"required_skills"`
	NiceToHave     []string `json:"nice_to_have"`
	Level          string   `json:"level"`
	EmploymentType string   `json:"employment_type"`
	WorkMode       string   `json:"work_mode"`
	RedFlags       []string `json:"red_flags"`
	GreenFlags     []string `json:"green_flags"`
	SalaryRange    string   `json:"salary_range"`
	Summary        string   `json:"summary"`
}

// NormalizedJob is a raw job plus its normalized fields.
type NormalizedJob struct {
	Job
	Normalized Normalized `json:"normalized"`
}

// CompanyRating is the review summary attached to jobs and research notes.
type CompanyRating struct {
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	Source      string   `json:"source"`
	Highlights  []string `json:"highlights,omitempty"`
}
