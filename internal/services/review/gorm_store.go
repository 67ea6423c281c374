package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clickwork-app/clickwork-backend/internal/models"
)

// GormStore is the postgres-backed review Store.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) ExistsForRequest(ctx context.Context, requestID uuid.UUID) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.Review{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) ProviderProfileIDForUser(ctx context.Context, providerUserID uuid.UUID) (uuid.UUID, error) {
	var profile models.ProviderProfile
	if err := s.DB.WithContext(ctx).First(&profile, "user_id = ?", providerUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, fmt.Errorf("review: provider profile not found for user %s", providerUserID)
		}
		return uuid.Nil, err
	}
	return profile.ID, nil
}

func (s *GormStore) CreateAndRecount(ctx context.Context, rev *models.Review) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rev).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyReviewed
			}
			return err
		}

		// Recompute aggregates from the rows so they never drift
		var agg struct {
			Avg   float64
			Count int64
		}
		if err := tx.Model(&models.Review{}).
			Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
			Where("provider_profile_id = ?", rev.ProviderProfileID).
			Scan(&agg).Error; err != nil {
			return err
		}

		return tx.Model(&models.ProviderProfile{}).
			Where("id = ?", rev.ProviderProfileID).
			Updates(map[string]interface{}{
				"rating":        agg.Avg,
				"total_reviews": agg.Count,
			}).Error
	})
}
