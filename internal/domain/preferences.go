package domain

// PreferenceSignals are the preferences a search applies, merged from the
// stated and the inferred parts of a profile. They are derived per request.
type PreferenceSignals struct {
	// WorkMode is set only when exactly one work mode is acceptable.
	WorkMode         string   `json:"workMode,omitempty"`
	WorkModes        []string `json:"workModes,omitempty"`
	Locations        []string `json:"locations,omitempty"`
	Industries       []string `json:"industries,omitempty"`
	TargetCompanies  []string `json:"targetCompanies,omitempty"`
	InterestKeywords []string `json:"interestKeywords,omitempty"`
}

// RemoteRequired reports whether remote is the only acceptable work mode.
func (s PreferenceSignals) RemoteRequired() bool {
	return len(s.WorkModes) == 1 && s.WorkModes[0] == WorkModeRemote
}

// Accepts reports whether mode is one of the acceptable work modes.
func (s PreferenceSignals) Accepts(mode string) bool {
	for _, m := range s.WorkModes {
		if m == mode {
			return true
		}
	}
	return false
}
