package domain

import "time"

// CacheEntry is a row of the durable key-value tier.
type CacheEntry struct {
	Key       string    `gorm:"column:cache_key;type:text;primaryKey"`
	Value     []byte    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index:idx_cache_entries_expires"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for CacheEntry.
func (CacheEntry) TableName() string {
	return "cache_entries"
}
