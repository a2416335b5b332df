package prompts

import "strings"

// ============================================================================
// Shared vocabulary
// ============================================================================

// SeniorityWords are title modifiers dropped when deriving related roles.
var SeniorityWords = []string{
	"senior", "sr", "sr.", "junior", "jr", "jr.", "lead", "principal", "staff",
	"head", "chief", "associate", "entry level", "entry-level", "intern", "mid-level", "mid",
	"i", "ii", "iii", "iv",
}

// RemoteWords, HybridWords and OnsiteWords classify free-text work modes.
var (
	RemoteWords = []string{"remote", "work from home", "wfh", "distributed team", "anywhere"}
	HybridWords = []string{"hybrid", "partially remote", "flexible location", "days in office", "days a week in"}
	OnsiteWords = []string{"onsite", "on-site", "on site", "in-office", "in office", "office-based"}
)

// ============================================================================
// Role suggestions
// ============================================================================

// SimilarRolesSystemPrompt asks for adjacent job titles.
const SimilarRolesSystemPrompt = `You help a job search engine widen a search that returned too few results.
Given a job title, list closely related titles a recruiter would post for the same skills.

Rules:
- 2 to 5 titles, most similar first
- keep the seniority of the original title when it has one
- never repeat the original title
- output a JSON array of strings only, no prose`

// SimilarRolesUserPrompt is filled with {{ROLE}} and {{LOCATION}}.
const SimilarRolesUserPrompt = `Job title: {{ROLE}}
Location: {{LOCATION}}

JSON array:`

// ============================================================================
// Job normalization
// ============================================================================

// NormalizeSystemPrompt extracts a fixed schema from a job posting.
const NormalizeSystemPrompt = `You extract structured facts from job postings. Use only what the posting says.

Output one JSON object with exactly these keys:
{
  "title": "clean job title without company or location",
  "required_skills": ["skill", ...],          // hard requirements, short canonical names
  "nice_to_have": ["skill", ...],             // preferred / bonus skills
  "level": "intern|junior|mid|senior|lead",
  "employment_type": "full-time|part-time|contract|internship|temporary",
  "work_mode": "remote|hybrid|onsite|unknown",
  "red_flags": ["..."],                       // e.g. unpaid overtime, vague compensation
  "green_flags": ["..."],                     // e.g. salary listed, learning budget
  "salary_range": "as written, or empty",
  "summary": "two sentences on what the job is"
}

Use empty arrays and empty strings when the posting is silent. No markdown, no prose.`

// NormalizeUserPrompt is filled with the posting fields.
const NormalizeUserPrompt = `Title: {{TITLE}}
Company: {{COMPANY}}
Location: {{LOCATION}}
Employment type: {{EMPLOYMENT_TYPE}}
Salary: {{SALARY}}

Description:
{{DESCRIPTION}}`

// ============================================================================
// Match explanation
// ============================================================================

// MatchSystemPrompt explains how well a candidate fits a job.
const MatchSystemPrompt = `You are a career coach explaining how well a candidate fits a job.
You receive the candidate profile, the normalized job and a baseline score computed by rules.

Output one JSON object:
{
  "score": 0-100,                 // adjust the baseline by at most 15 points unless clearly wrong
  "summary": "2-3 sentences addressed to the candidate",
  "missing_skills": ["..."],      // required skills the candidate lacks
  "reasoning": ["skills: ...", "experience: ...", "location and work mode: ..."],
  "suggestions": ["..."]          // 2-4 concrete actions before applying
}

Refer to concrete skills, years and locations. No markdown, no prose outside the JSON.`

// MatchUserPrompt is filled with {{PROFILE_JSON}}, {{JOB_JSON}} and {{BASE_SCORE}}.
const MatchUserPrompt = `Candidate profile:
{{PROFILE_JSON}}

Job:
{{JOB_JSON}}

Baseline score: {{BASE_SCORE}}

JSON response:`

// ============================================================================
// Company research
// ============================================================================

// CompanyResearchSystemPrompt produces a short employer briefing.
const CompanyResearchSystemPrompt = `You brief job seekers on employers. Be factual and say so when you are unsure.

Output one JSON object:
{
  "overview": "what the company does, 2-3 sentences",
  "culture": "what working there is reported to be like",
  "pros": ["..."],
  "cons": ["..."],
  "interview_tips": ["..."],
  "fit_notes": "how the candidate's background fits, empty when no candidate is given"
}

No markdown, no prose outside the JSON.`

// CompanyResearchUserPrompt is filled with {{COMPANY}}, {{RATING}} and {{PROFILE}}.
const CompanyResearchUserPrompt = `Company: {{COMPANY}}
Review data: {{RATING}}
Candidate: {{PROFILE}}

JSON response:`

// Fill replaces {{NAME}} placeholders in a template.
func Fill(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
