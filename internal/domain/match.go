package domain

import "time"

// MatchStatus is the lifecycle state of a cached match.
type MatchStatus string

const (
	MatchPending MatchStatus = "pending"
	MatchReady   MatchStatus = "ready"
)

// PendingSummary is the summary shown while an explanation is generated.
const PendingSummary = "Generating match explanation…"

// Match is the score and explanation for one profile and job pair.
// Version increases on every write so a stale writer can be detected.
type Match struct {
	Status        MatchStatus `json:"status"`
	Score         int         `json:"score"`
	Summary       string      `json:"summary"`
	MissingSkills []string    `json:"missing_skills"`
	Reasoning     []string    `json:"reasoning"`
	Suggestions   []string    `json:"suggestions"`
	Version       int         `json:"version"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Ready reports whether the explanation has been generated.
func (m *Match) Ready() bool {
	return m != nil && m.Status == MatchReady
}
