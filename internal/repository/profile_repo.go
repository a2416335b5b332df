package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/harshgondal/Job-Finder/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository reads and writes candidate profiles.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a ProfileRepository.
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// LoadProfileByID returns the profile with id, or nil when none exists.
func (r *ProfileRepository) LoadProfileByID(ctx context.Context, id string) (*domain.Profile, error) {
	var rec domain.ProfileRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", id, err)
	}
	return rec.ToProfile(), nil
}

// Upsert creates or replaces a profile.
func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	if p == nil || p.ID == "" {
		return errors.New("profile id is required")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(domain.NewProfileRecord(p)).Error
}

// Delete removes a profile.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.ProfileRecord{}, "id = ?", id).Error
}
