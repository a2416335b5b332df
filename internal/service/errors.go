package service

import "errors"

var (
	// ErrRoleTooShort rejects searches whose role has fewer than two characters.
	ErrRoleTooShort = errors.New("role must be at least 2 characters")
	// ErrCompanyRequired rejects company research without a company name.
	ErrCompanyRequired = errors.New("company is required")
	// ErrInvalidMatchKey rejects status lookups outside the match namespace.
	ErrInvalidMatchKey = errors.New("invalid match key")
)
