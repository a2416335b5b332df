package source

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SyntheticID derives a stable id for a posting that arrived without one.
// The ordinal is the posting's position in the provider's result stream.
func SyntheticID(provider, title, company, location string, ordinal int) string {
	name := strings.ToLower(strings.Join([]string{
		provider,
		strings.TrimSpace(title),
		strings.TrimSpace(company),
		strings.TrimSpace(location),
		strconv.Itoa(ordinal),
	}, "|"))
	return provider + "-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// JoinLocation joins non-empty location parts with ", ".
func JoinLocation(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// LooksRemote reports whether free text advertises remote work.
func LooksRemote(texts ...string) bool {
	for _, t := range texts {
		l := strings.ToLower(t)
		if strings.Contains(l, "remote") || strings.Contains(l, "work from home") || strings.Contains(l, "wfh") {
			return true
		}
	}
	return false
}
