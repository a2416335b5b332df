package service

import (
	"strings"

	"github.com/harshgondal/Job-Finder/internal/domain"
	"github.com/harshgondal/Job-Finder/internal/geo"
)

// locationMatches reports whether a job is in the candidate location: by
// substring either way, by first comma segment, or by country when the
// candidate names a whole country.
func locationMatches(job domain.Job, candidate string) bool {
	cand := lowerTrim(candidate)
	if cand == "" {
		return false
	}
	jobLoc := lowerTrim(job.Location)

	if jobLoc != "" {
		if strings.Contains(jobLoc, cand) || strings.Contains(cand, jobLoc) {
			return true
		}
		if seg := firstSegment(cand); seg != "" && strings.Contains(jobLoc, seg) {
			return true
		}
		if seg := firstSegment(jobLoc); seg != "" && strings.Contains(cand, seg) {
			return true
		}
	}

	if job.CountryCode == "" {
		return false
	}
	place, ok := geo.Default().Resolve(candidate)
	return ok && place.City == "" && place.State == "" && strings.EqualFold(place.CountryCode, job.CountryCode)
}

// sameCountry reports whether the job's country is the candidate's.
func sameCountry(job domain.Job, candidate string) bool {
	code := geo.Default().CountryCode(candidate)
	if code == "" {
		return false
	}
	if job.CountryCode != "" {
		return strings.EqualFold(code, job.CountryCode)
	}
	return strings.EqualFold(code, geo.Default().CountryCode(job.Location))
}

func firstSegment(s string) string {
	if idx := strings.Index(s, ","); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}

// mergeUnique appends the non-empty values of lists, dropping
// case-insensitive duplicates and keeping first-seen order.
func mergeUnique(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, v := range list {
			v = strings.TrimSpace(v)
			k := strings.ToLower(v)
			if v == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, v)
		}
	}
	return out
}
