package service

import (
	"fmt"
	"strings"

	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/prompts"
)

// Preference deltas, summed into Evaluation.Adjustment.
const (
	deltaWorkModeMatch          = 12
	deltaWorkModeMismatch       = -18
	deltaWorkModeMismatchRemote = -24
	deltaWorkModeUnknownRemote  = -14
	deltaLocationMatch          = 6
	deltaLocationMissing        = -2
	deltaLocationRemoteFriendly = -2
	deltaLocationHybridFriendly = -4
	deltaLocationSameCountry    = -10
	deltaLocationElsewhere      = -14
	deltaTargetCompany          = 15
	deltaIndustryMatch          = 8
	deltaIndustryMiss           = -6
	deltaInterestMatch          = 5
)

// Evaluation is the preference verdict for one job.
type Evaluation struct {
	Adjustment int      `json:"adjustment"`
	Exclude    bool     `json:"exclude"`
	Matches    []string `json:"matches,omitempty"`
	Mismatches []string `json:"mismatches,omitempty"`
}

// BuildSignals merges the stated and inferred preferences of p. A nil
// profile has no signals.
func BuildSignals(p *domain.Profile) domain.PreferenceSignals {
	if p == nil {
		return domain.PreferenceSignals{}
	}

	var modes []string
	for _, m := range p.PreferenceWorkModes {
		if c := canonicalWorkMode(m); c != "" && !containsFold(modes, c) {
			modes = append(modes, c)
		}
	}
	if len(modes) == 0 {
		if c := canonicalWorkMode(p.InferredPreferences.WorkMode); c != "" {
			modes = []string{c}
		}
	}

	s := domain.PreferenceSignals{
		WorkModes:        modes,
		Locations:        mergeUnique(p.PreferenceLocations, p.PreferredLocations, p.InferredPreferences.Locations),
		Industries:       mergeUnique(p.PreferenceIndustries, p.InferredPreferences.Industries, p.Domains),
		TargetCompanies:  mergeUnique(p.PreferenceCompanies),
		InterestKeywords: mergeUnique(p.Interests),
	}
	if len(modes) == 1 {
		s.WorkMode = modes[0]
	}
	return s
}

// Evaluate scores a job against preference signals. It never excludes:
// exclusion is reserved for hard filters.
func Evaluate(job domain.NormalizedJob, s domain.PreferenceSignals) Evaluation {
	var ev Evaluation
	add := func(delta int, match bool, reason string) {
		ev.Adjustment += delta
		if match {
			ev.Matches = append(ev.Matches, reason)
		} else {
			ev.Mismatches = append(ev.Mismatches, reason)
		}
	}

	mode := InferWorkMode(job)

	if len(s.WorkModes) > 0 {
		switch {
		case mode != "" && s.Accepts(mode):
			add(deltaWorkModeMatch, true, "work mode "+mode)
		case mode != "" && s.RemoteRequired():
			add(deltaWorkModeMismatchRemote, false, "work mode "+mode+", remote required")
		case mode != "":
			add(deltaWorkModeMismatch, false, "work mode "+mode)
		case s.RemoteRequired():
			add(deltaWorkModeUnknownRemote, false, "work mode not stated, remote required")
		}
	}

	if len(s.Locations) > 0 {
		evaluateLocation(job, mode, s, add)
	}

	company := lowerTrim(job.Company)
	for _, target := range s.TargetCompanies {
		t := lowerTrim(target)
		if t != "" && company != "" && (strings.Contains(company, t) || strings.Contains(t, company)) {
			add(deltaTargetCompany, true, "target company "+job.Company)
			break
		}
	}

	text := jobText(job)
	industryMatched := false
	if len(s.Industries) > 0 {
		if kw := firstKeywordIn(text, s.Industries); kw != "" {
			industryMatched = true
			add(deltaIndustryMatch, true, "industry "+kw)
		} else {
			add(deltaIndustryMiss, false, "industry not "+strings.Join(s.Industries, "/"))
		}
	}
	if !industryMatched {
		if kw := firstKeywordIn(text, s.InterestKeywords); kw != "" {
			add(deltaInterestMatch, true, "interest "+kw)
		}
	}

	return ev
}

func evaluateLocation(job domain.NormalizedJob, mode string, s domain.PreferenceSignals, add func(int, bool, string)) {
	if strings.TrimSpace(job.Location) == "" && job.CountryCode == "" && job.Country == "" {
		add(deltaLocationMissing, false, "no location data")
		return
	}
	for _, loc := range s.Locations {
		if strings.EqualFold(strings.TrimSpace(loc), domain.WorkModeRemote) {
			if mode == domain.WorkModeRemote {
				add(deltaLocationMatch, true, "location remote")
				return
			}
			continue
		}
		if locationMatches(job.Job, loc) {
			add(deltaLocationMatch, true, "location "+loc)
			return
		}
	}

	switch mode {
	case domain.WorkModeRemote:
		add(deltaLocationRemoteFriendly, false, "remote, outside preferred locations")
		return
	case domain.WorkModeHybrid:
		add(deltaLocationHybridFriendly, false, "hybrid, outside preferred locations")
		return
	}

	for _, loc := range s.Locations {
		if sameCountry(job.Job, loc) {
			add(deltaLocationSameCountry, false, fmt.Sprintf("location %s, not %s", job.Location, strings.Join(s.Locations, "/")))
			return
		}
	}
	add(deltaLocationElsewhere, false, fmt.Sprintf("location %s, outside preferred countries", job.Location))
}

// InferWorkMode returns remote, hybrid, onsite or "" when unknown. The
// normalized work mode wins, then the raw remote flag, then keywords.
func InferWorkMode(job domain.NormalizedJob) string {
	if mode := canonicalWorkMode(job.Normalized.WorkMode); mode != "" {
		return mode
	}
	if job.Remote {
		return domain.WorkModeRemote
	}
	text := strings.ToLower(strings.Join([]string{job.Title, job.Location, job.Normalized.Summary, job.Description}, " "))
	switch {
	case firstKeywordIn(text, prompts.HybridWords) != "":
		return domain.WorkModeHybrid
	case firstKeywordIn(text, prompts.RemoteWords) != "":
		return domain.WorkModeRemote
	case firstKeywordIn(text, prompts.OnsiteWords) != "":
		return domain.WorkModeOnsite
	}
	return ""
}

func canonicalWorkMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "remote", "fully remote", "remote-first", "wfh", "work from home":
		return domain.WorkModeRemote
	case "hybrid", "flexible":
		return domain.WorkModeHybrid
	case "onsite", "on-site", "on site", "office", "in-office", "in office":
		return domain.WorkModeOnsite
	}
	return ""
}

func jobText(job domain.NormalizedJob) string {
	return strings.ToLower(strings.Join([]string{
		job.Title, job.Company, job.Normalized.Summary, job.Description,
	}, " "))
}

// firstKeywordIn returns the first keyword found in lowered text.
func firstKeywordIn(text string, keywords []string) string {
	for _, kw := range keywords {
		k := lowerTrim(kw)
		if k != "" && strings.Contains(text, k) {
			return kw
		}
	}
	return ""
}
