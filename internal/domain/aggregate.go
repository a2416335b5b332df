package domain

// SearchCriteria describes one aggregation request. Its fingerprint keys
// the aggregate cache.
type SearchCriteria struct {
	Query              string   `json:"query"`
	Location           string   `json:"location,omitempty"`
	Limit              int      `json:"limit"`
	RemoteOnly         bool     `json:"remoteOnly"`
	AllowRemote        bool     `json:"allowRemote"`
	WorkModes          []string `json:"workModes,omitempty"`
	EmploymentTypes    []string `json:"employmentTypes,omitempty"`
	JobRequirements    []string `json:"jobRequirements,omitempty"`
	PreferredLocations []string `json:"preferredLocations,omitempty"`
	DatePosted         string   `json:"datePosted"`
	SortBy             string   `json:"sortBy"`
	Order              string   `json:"order"`
}

// AggregateMeta describes how an AggregateResult was assembled.
type AggregateMeta struct {
	Total        int            `json:"total"`
	Returned     int            `json:"returned"`
	Agent        SearchCriteria `json:"agent"`
	Suggestions  []string       `json:"suggestions"`
	SourceCounts map[string]int `json:"sourceCounts"`
}

// AggregateResult is the cached output of one aggregation.
type AggregateResult struct {
	Results []Job         `json:"results"`
	Meta    AggregateMeta `json:"meta"`
}
