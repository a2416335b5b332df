package service

import (
	"context"
	"strings"
	"time"

	"github.com/harshgondal/Job-Finder/internal/cache"
	"github.com/harshgondal/Job-Finder/internal/domain"
)

const defaultProfileTTL = 5 * time.Minute

// CachedProfiles puts a short-lived cache in front of a ProfileLoader.
// Missing profiles are not cached.
type CachedProfiles struct {
	next  ProfileLoader
	cache *cache.Cache
	ttl   time.Duration
}

// NewCachedProfiles wraps next.
func NewCachedProfiles(next ProfileLoader, c *cache.Cache, ttl time.Duration) *CachedProfiles {
	if ttl <= 0 {
		ttl = defaultProfileTTL
	}
	return &CachedProfiles{next: next, cache: c, ttl: ttl}
}

// LoadProfileByID implements ProfileLoader.
func (p *CachedProfiles) LoadProfileByID(ctx context.Context, id string) (*domain.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	key := cache.ProfileCacheKey(id)

	var cached domain.Profile
	if p.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	profile, err := p.next.LoadProfileByID(ctx, id)
	if err != nil || profile == nil {
		return profile, err
	}
	p.cache.SetJSON(ctx, key, profile, p.ttl)
	return profile, nil
}
