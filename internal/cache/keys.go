package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/harshgondal/Job-Finder/internal/domain"
)

// Key namespaces.
const (
	PrefixNormalized = "job:normalized:"
	PrefixAggregate  = "jobs:aggregate:"
	PrefixMatch      = "match:"
	PrefixResearch   = "company:research:"
	PrefixRating     = "company:rating:"
	PrefixProfile    = "profile:"
	PrefixClaim      = "claim:"
)

// AnonymousProfile is the profile key used when no profile is known.
const AnonymousProfile = "anon"

// JobKey is the identity of a job across aggregation, normalization and
// matching: its id, or a digest of title, company and location.
func JobKey(job domain.Job) string {
	if id := strings.TrimSpace(job.ID); id != "" {
		return id
	}
	return "h" + digest(strings.Join([]string{
		normalizeText(job.Title),
		normalizeText(job.Company),
		normalizeText(job.Location),
	}, "|"))[:20]
}

// NormalizedKey keys the normalized view of a job.
func NormalizedKey(jobKey string) string {
	return PrefixNormalized + jobKey
}

// MatchKey keys the match for a profile and job pair.
func MatchKey(profileKey, jobKey string) string {
	return PrefixMatch + profileKey + ":" + jobKey
}

// IsMatchKey reports whether key lives in the match namespace.
func IsMatchKey(key string) bool {
	return strings.HasPrefix(key, PrefixMatch) && len(key) > len(PrefixMatch)
}

// ClaimKey keys the cross-instance claim for a match key.
func ClaimKey(matchKey string) string {
	return PrefixClaim + matchKey
}

// CompanyResearchKey keys research for a company as seen by a profile.
func CompanyResearchKey(company, profileKey string) string {
	return PrefixResearch + Slug(company) + ":" + profileKey
}

// CompanyRatingKey keys the rating summary of a company.
func CompanyRatingKey(company string) string {
	return PrefixRating + Slug(company)
}

// ProfileCacheKey keys a loaded profile.
func ProfileCacheKey(id string) string {
	return PrefixProfile + id
}

// ProfileKey identifies a profile inside match and research keys. Profiles
// without an id are keyed by a digest of the fields that drive scoring.
func ProfileKey(p *domain.Profile) string {
	if p == nil {
		return AnonymousProfile
	}
	if id := strings.TrimSpace(p.ID); id != "" {
		return id
	}
	skills := lowerSorted(p.Skills)
	return "p" + digest(fmt.Sprintf("%s|%.1f|%s", strings.Join(skills, ","), p.ExperienceYears,
		strings.Join(lowerSorted(p.PreferredLocations), ",")))[:16]
}

type criteriaFingerprint struct {
	Role            string   `json:"role"`
	Location        string   `json:"location"`
	Limit           int      `json:"limit"`
	Remote          bool     `json:"remote"`
	AllowRemote     bool     `json:"allow_remote"`
	Order           string   `json:"order"`
	WorkModes       []string `json:"work_modes"`
	EmploymentTypes []string `json:"employment_types"`
	JobRequirements []string `json:"job_requirements"`
	Preferred       []string `json:"preferred_locations"`
}

// AggregateKey keys an aggregation by the criteria that change its result.
// Preferred locations and the remote flags filter the cached set, so they
// are part of the key. List order and letter case do not matter.
func AggregateKey(c domain.SearchCriteria) string {
	order := "desc"
	if strings.EqualFold(c.Order, "asc") {
		order = "asc"
	}
	fp := criteriaFingerprint{
		Role:            normalizeText(c.Query),
		Location:        normalizeText(c.Location),
		Limit:           c.Limit,
		Remote:          c.RemoteOnly,
		AllowRemote:     c.AllowRemote,
		Order:           order,
		WorkModes:       lowerSorted(c.WorkModes),
		EmploymentTypes: lowerSorted(c.EmploymentTypes),
		JobRequirements: lowerSorted(c.JobRequirements),
		Preferred:       lowerSorted(c.PreferredLocations),
	}
	raw, _ := json.Marshal(fp)
	return PrefixAggregate + digest(string(raw))
}

// Slug lowercases s and joins its alphanumeric runs with dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case r > 127:
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func digest(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func lowerSorted(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = normalizeText(v); v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
