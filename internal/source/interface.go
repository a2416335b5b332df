// Package source defines the job search providers the aggregator fans out to.
package source

import (
	"context"

	"github.com/harshgondal/Job-Finder/internal/domain"
)

// Date windows understood by every provider.
const (
	DateAll   = "all"
	DateToday = "today"
	Date3Days = "3days"
	DateWeek  = "week"
	DateMonth = "month"
)

// SearchParams is one page request to a provider.
type SearchParams struct {
	Query           string
	Location        string
	CountryCode     string
	Page            int
	DatePosted      string
	RemoteOnly      bool
	EmploymentTypes []string
	JobRequirements []string
}

// JobSource is a third-party job search provider.
type JobSource interface {
	// Name identifies the provider in logs and source counts.
	Name() string

	// Search fetches one page of postings mapped to domain.Job.
	// It returns ErrCoolingDown without calling upstream while the
	// provider is suppressed after a rate-limit response.
	Search(ctx context.Context, params SearchParams) ([]domain.Job, error)

	// CoolingDown reports whether calls are currently suppressed.
	CoolingDown() bool
}
