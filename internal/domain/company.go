package domain

// CompanyResearch is a short briefing on an employer, tailored to a profile
// when one is known.
type CompanyResearch struct {
	Company       string         `json:"company"`
	Overview      string         `json:"overview"`
	Culture       string         `json:"culture"`
	Pros          []string       `json:"pros"`
	Cons          []string       `json:"cons"`
	InterviewTips []string       `json:"interview_tips"`
	FitNotes      string         `json:"fit_notes,omitempty"`
	Rating        *CompanyRating `json:"rating,omitempty"`
	GeneratedBy   string         `json:"generated_by"` // llm or rules
}
