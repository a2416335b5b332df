package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harshgondal/Job-Finder/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// noExpiry stands in for "never expires" so the column stays non-null.
var noExpiry = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

// CacheRepository is a cache.Store backed by the cache_entries table. It
// lets several API instances share aggregates, matches and claims.
type CacheRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCacheRepository creates a CacheRepository.
func NewCacheRepository(db *gorm.DB) *CacheRepository {
	return &CacheRepository{db: db, now: time.Now}
}

// Get returns the row for key unless it has expired.
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry domain.CacheEntry
	err := r.db.WithContext(ctx).First(&entry, "cache_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if !r.now().Before(entry.ExpiresAt) {
		r.db.WithContext(ctx).Delete(&domain.CacheEntry{}, "cache_key = ? AND expires_at <= ?", key, r.now())
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// Set upserts the row for key.
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := domain.CacheEntry{Key: key, Value: value, ExpiresAt: r.expiry(ttl)}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes the row for key.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&domain.CacheEntry{}, "cache_key = ?", key).Error
}

// Claim inserts key unless a live row exists. Expired rows are purged
// first so an abandoned claim does not block forever.
func (r *CacheRepository) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	db := r.db.WithContext(ctx)
	if err := db.Delete(&domain.CacheEntry{}, "cache_key = ? AND expires_at <= ?", key, r.now()).Error; err != nil {
		return false, fmt.Errorf("cache claim purge %s: %w", key, err)
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.CacheEntry{Key: key, Value: []byte("1"), ExpiresAt: r.expiry(ttl)})
	if res.Error != nil {
		return false, fmt.Errorf("cache claim %s: %w", key, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// PurgeExpired deletes every expired row and returns how many went.
func (r *CacheRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&domain.CacheEntry{}, "expires_at <= ?", r.now())
	return res.RowsAffected, res.Error
}

func (r *CacheRepository) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return noExpiry
	}
	return r.now().Add(ttl)
}
