package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/harshgondal/Job-Finder/internal/domain"
)

const (
	baseScore          = 50
	maxRequiredBonus   = 30
	maxNiceToHaveBonus = 10
	experienceBonus    = 20
	locationBonus      = 15
	workModeExactBonus = 15
	workModeOpenBonus  = 10
)

// ScoreOptions carries precomputed signals. Signals are derived from the
// profile when nil.
type ScoreOptions struct {
	Signals *domain.PreferenceSignals
}

// ScoreDetails breaks a score into its components.
type ScoreDetails struct {
	Base            int      `json:"base"`
	RequiredSkills  int      `json:"required_skills"`
	NiceToHave      int      `json:"nice_to_have"`
	Experience      int      `json:"experience"`
	Location        int      `json:"location"`
	WorkMode        int      `json:"work_mode"`
	Preference      int      `json:"preference"`
	MatchedRequired []string `json:"matched_required,omitempty"`
}

// ScoreResult is the provisional score shown before an explanation exists.
type ScoreResult struct {
	Score      int          `json:"score"`
	Excluded   bool         `json:"excluded"`
	Details    ScoreDetails `json:"details"`
	Evaluation Evaluation   `json:"evaluation"`
}

// ComputeBaseScore scores a job for a profile without an LLM.
func ComputeBaseScore(p *domain.Profile, job domain.NormalizedJob, opts ScoreOptions) ScoreResult {
	if p == nil {
		p = &domain.Profile{}
	}
	signals := opts.Signals
	if signals == nil {
		s := BuildSignals(p)
		signals = &s
	}

	ev := Evaluate(job, *signals)
	if ev.Exclude {
		return ScoreResult{Score: 0, Excluded: true, Evaluation: ev}
	}

	d := ScoreDetails{Base: baseScore}

	matched := matchedSkills(p.Skills, job.Normalized.RequiredSkills)
	d.MatchedRequired = matched
	d.RequiredSkills = proportion(maxRequiredBonus, len(matched), len(job.Normalized.RequiredSkills))
	d.NiceToHave = proportion(maxNiceToHaveBonus, len(matchedSkills(p.Skills, job.Normalized.NiceToHave)), len(job.Normalized.NiceToHave))

	if experienceFits(canonicalLevel(job.Normalized.Level), p.ExperienceYears) {
		d.Experience = experienceBonus
	}

	mode := InferWorkMode(job)
	if locationFits(job, mode, signals.Locations) {
		d.Location = locationBonus
	}

	switch {
	case len(signals.WorkModes) == 0:
		d.WorkMode = workModeOpenBonus
	case mode != "" && signals.Accepts(mode):
		d.WorkMode = workModeExactBonus
	}

	d.Preference = ev.Adjustment

	total := d.Base + d.RequiredSkills + d.NiceToHave + d.Experience + d.Location + d.WorkMode + d.Preference
	return ScoreResult{Score: clampScore(total), Details: d, Evaluation: ev}
}

// experienceFits applies the level bands. The bands overlap on purpose:
// 2 years fits both junior and mid.
func experienceFits(level string, years float64) bool {
	switch level {
	case domain.LevelIntern:
		return years < 2
	case domain.LevelJunior:
		return years >= 0.5 && years < 3
	case domain.LevelMid:
		return years >= 2 && years < 5
	case domain.LevelSenior:
		return years >= 4
	case domain.LevelLead:
		return years >= 6
	}
	return false
}

func locationFits(job domain.NormalizedJob, mode string, preferred []string) bool {
	if mode == domain.WorkModeRemote && (len(preferred) == 0 || containsFold(preferred, domain.WorkModeRemote)) {
		return true
	}
	jobLoc := lowerTrim(job.Location)
	if jobLoc == "" {
		return false
	}
	seg := firstSegment(jobLoc)
	for _, loc := range preferred {
		l := lowerTrim(loc)
		if l == "" || l == domain.WorkModeRemote {
			continue
		}
		if strings.Contains(jobLoc, l) || strings.Contains(l, jobLoc) || (seg != "" && strings.Contains(l, seg)) {
			return true
		}
	}
	return false
}

func canonicalLevel(raw string) string {
	l := lowerTrim(raw)
	switch {
	case l == "":
		return ""
	case strings.Contains(l, "intern"):
		return domain.LevelIntern
	case strings.Contains(l, "lead"), strings.Contains(l, "principal"), strings.Contains(l, "staff"):
		return domain.LevelLead
	case strings.Contains(l, "senior"), l == "sr":
		return domain.LevelSenior
	case strings.Contains(l, "junior"), strings.Contains(l, "entry"), l == "jr":
		return domain.LevelJunior
	case strings.Contains(l, "mid"), strings.Contains(l, "intermediate"):
		return domain.LevelMid
	}
	return ""
}

// skillMatches compares skills by substring in either direction.
func skillMatches(have, want string) bool {
	h, w := lowerTrim(have), lowerTrim(want)
	if h == "" || w == "" {
		return false
	}
	return strings.Contains(h, w) || strings.Contains(w, h)
}

func matchedSkills(have, want []string) []string {
	var out []string
	for _, w := range want {
		for _, h := range have {
			if skillMatches(h, w) {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

func proportion(max, matched, total int) int {
	if total < 1 {
		total = 1
	}
	return int(math.Round(float64(max) * float64(matched) / float64(total)))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// GetMissingSkills lists required skills the profile does not cover.
func GetMissingSkills(p *domain.Profile, job domain.NormalizedJob) []string {
	missing := []string{}
	var have []string
	if p != nil {
		have = p.Skills
	}
	for _, w := range job.Normalized.RequiredSkills {
		found := false
		for _, h := range have {
			if skillMatches(h, w) {
				found = true
				break
			}
		}
		if !found && strings.TrimSpace(w) != "" {
			missing = append(missing, w)
		}
	}
	return missing
}

// GenerateBasicReasoning explains a base score in three lines: skills,
// experience, then location and work mode.
func GenerateBasicReasoning(p *domain.Profile, job domain.NormalizedJob, res ScoreResult) []string {
	if p == nil {
		p = &domain.Profile{}
	}
	required := job.Normalized.RequiredSkills

	var skills string
	switch {
	case len(required) == 0:
		skills = "The posting lists no explicit required skills."
	case len(res.Details.MatchedRequired) == 0:
		skills = fmt.Sprintf("None of the %d required skills (%s) appear in your profile.", len(required), joinFirst(required, 5))
	default:
		skills = fmt.Sprintf("You match %d of %d required skills: %s.", len(res.Details.MatchedRequired), len(required), joinFirst(res.Details.MatchedRequired, 5))
	}

	level := canonicalLevel(job.Normalized.Level)
	var experience string
	switch {
	case level == "":
		experience = fmt.Sprintf("The seniority is not stated; you have %s of experience.", years(p.ExperienceYears))
	case res.Details.Experience > 0:
		experience = fmt.Sprintf("Your %s of experience fits this %s-level role.", years(p.ExperienceYears), level)
	default:
		experience = fmt.Sprintf("This is a %s-level role and you have %s of experience.", level, years(p.ExperienceYears))
	}

	where := strings.TrimSpace(job.Location)
	if where == "" {
		where = "an unlisted location"
	}
	mode := InferWorkMode(job)
	if mode == "" {
		mode = "unspecified"
	}
	location := fmt.Sprintf("The job is in %s (%s work mode).", where, mode)
	if res.Details.Location > 0 {
		location = fmt.Sprintf("The job is in %s (%s), which fits your location preferences.", where, mode)
	}

	return []string{skills, experience, location}
}

// GenerateBasicSummary is a one-paragraph verdict for a score.
func GenerateBasicSummary(p *domain.Profile, job domain.NormalizedJob, score int) string {
	title := job.Normalized.Title
	if title == "" {
		title = job.Title
	}
	var verdict string
	switch {
	case score >= 80:
		verdict = "a strong match"
	case score >= 60:
		verdict = "a good match"
	case score >= 40:
		verdict = "a partial match"
	default:
		verdict = "a weak match"
	}
	summary := fmt.Sprintf("%s at %s is %s for you (score %d).", title, job.Company, verdict, score)
	if missing := GetMissingSkills(p, job); len(missing) > 0 {
		summary += fmt.Sprintf(" The main gaps are %s.", joinFirst(missing, 3))
	}
	return summary
}

// GenerateBasicSuggestions proposes next steps from the missing skills.
func GenerateBasicSuggestions(p *domain.Profile, job domain.NormalizedJob, missing []string) []string {
	out := []string{}
	for i, skill := range missing {
		if i == 2 {
			break
		}
		out = append(out, fmt.Sprintf("Build a small project or certification that shows %s.", skill))
	}
	if p != nil && len(p.Skills) > 0 {
		if matched := matchedSkills(p.Skills, job.Normalized.RequiredSkills); len(matched) > 0 {
			out = append(out, fmt.Sprintf("Lead your application with your %s experience.", joinFirst(matched, 3)))
		}
	}
	if level := canonicalLevel(job.Normalized.Level); level != "" && p != nil && !experienceFits(level, p.ExperienceYears) {
		out = append(out, fmt.Sprintf("Address the %s-level expectation directly in your cover letter.", level))
	}
	if len(out) == 0 {
		out = append(out, "Tailor your resume summary to the job title and apply.")
	}
	return out
}

func joinFirst(items []string, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}

func years(y float64) string {
	if y == 1 {
		return "1 year"
	}
	if y == math.Trunc(y) {
		return fmt.Sprintf("%.0f years", y)
	}
	return fmt.Sprintf("%.1f years", y)
}
