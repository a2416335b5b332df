package domain

import "time"

// InferredPreferences are preferences derived from the resume rather than
// stated by the user.
type InferredPreferences struct {
	WorkMode   string   `json:"work_mode,omitempty"`
	Locations  []string `json:"locations,omitempty"`
	Industries []string `json:"industries,omitempty"`
}

// Profile is the candidate view consumed by search and scoring.
type Profile struct {
	ID                        string              `json:"id"`
	Name                      string              `json:"name,omitempty"`
	Skills                    []string            `json:"skills"`
	ExperienceYears           float64             `json:"experience_years"`
	Roles                     []string            `json:"roles,omitempty"`
	Domains                   []string            `json:"domains,omitempty"`
	PreferredLocations        []string            `json:"preferred_locations,omitempty"`
	Interests                 []string            `json:"interests,omitempty"`
	InferredPreferences       InferredPreferences `json:"inferred_preferences"`
	PreferenceWorkModes       []string            `json:"preference_work_modes,omitempty"`
	PreferenceLocations       []string            `json:"preference_locations,omitempty"`
	PreferenceCompanies       []string            `json:"preference_companies,omitempty"`
	PreferenceIndustries      []string            `json:"preference_industries,omitempty"`
	PreferenceEmploymentTypes []string            `json:"preference_employment_types,omitempty"`
	PreferenceJobRequirements []string            `json:"preference_job_requirements,omitempty"`
	PreferenceNotes           string              `json:"preference_notes,omitempty"`
}

// ProfileRecord is the persisted form of a Profile.
type ProfileRecord struct {
	ID                        string      `gorm:"type:text;primaryKey"`
	Name                      string      `gorm:"type:text"`
	Skills                    StringArray `gorm:"type:text"`
	ExperienceYears           float64
	Roles                     StringArray `gorm:"type:text"`
	Domains                   StringArray `gorm:"type:text"`
	PreferredLocations        StringArray `gorm:"type:text"`
	Interests                 StringArray `gorm:"type:text"`
	InferredWorkMode          string      `gorm:"type:text"`
	InferredLocations         StringArray `gorm:"type:text"`
	InferredIndustries        StringArray `gorm:"type:text"`
	PreferenceWorkModes       StringArray `gorm:"type:text"`
	PreferenceLocations       StringArray `gorm:"type:text"`
	PreferenceCompanies       StringArray `gorm:"type:text"`
	PreferenceIndustries      StringArray `gorm:"type:text"`
	PreferenceEmploymentTypes StringArray `gorm:"type:text"`
	PreferenceJobRequirements StringArray `gorm:"type:text"`
	PreferenceNotes           string      `gorm:"type:text"`
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// TableName returns the table name for ProfileRecord.
func (ProfileRecord) TableName() string {
	return "profiles"
}

// ToProfile converts the record to the domain view.
func (r *ProfileRecord) ToProfile() *Profile {
	return &Profile{
		ID:                 r.ID,
		Name:               r.Name,
		Skills:             r.Skills,
		ExperienceYears:    r.ExperienceYears,
		Roles:              r.Roles,
		Domains:            r.Domains,
		PreferredLocations: r.PreferredLocations,
		Interests:          r.Interests,
		InferredPreferences: InferredPreferences{
			WorkMode:   r.InferredWorkMode,
			Locations:  r.InferredLocations,
			Industries: r.InferredIndustries,
		},
		PreferenceWorkModes:       r.PreferenceWorkModes,
		PreferenceLocations:       r.PreferenceLocations,
		PreferenceCompanies:       r.PreferenceCompanies,
		PreferenceIndustries:      r.PreferenceIndustries,
		PreferenceEmploymentTypes: r.PreferenceEmploymentTypes,
		PreferenceJobRequirements: r.PreferenceJobRequirements,
		PreferenceNotes:           r.PreferenceNotes,
	}
}

// NewProfileRecord converts a Profile for persistence.
func NewProfileRecord(p *Profile) *ProfileRecord {
	return &ProfileRecord{
		ID:                        p.ID,
		Name:                      p.Name,
		Skills:                    p.Skills,
		ExperienceYears:           p.ExperienceYears,
		Roles:                     p.Roles,
		Domains:                   p.Domains,
		PreferredLocations:        p.PreferredLocations,
		Interests:                 p.Interests,
		InferredWorkMode:          p.InferredPreferences.WorkMode,
		InferredLocations:         p.InferredPreferences.Locations,
		InferredIndustries:        p.InferredPreferences.Industries,
		PreferenceWorkModes:       p.PreferenceWorkModes,
		PreferenceLocations:       p.PreferenceLocations,
		PreferenceCompanies:       p.PreferenceCompanies,
		PreferenceIndustries:      p.PreferenceIndustries,
		PreferenceEmploymentTypes: p.PreferenceEmploymentTypes,
		PreferenceJobRequirements: p.PreferenceJobRequirements,
		PreferenceNotes:           p.PreferenceNotes,
	}
}
