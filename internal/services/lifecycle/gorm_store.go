package lifecycle

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clickwork-app/clickwork-backend/internal/models"
)

// GormStore is the postgres-backed RequestStore.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	if err := s.DB.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *GormStore) Insert(ctx context.Context, req *models.ServiceRequest) error {
	return s.DB.WithContext(ctx).Create(req).Error
}

// UpdateStatusCAS is a single conditional UPDATE keyed on the expected
// prior status, so concurrent transitions serialize at the database.
func (s *GormStore) UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to models.RequestStatus) (bool, error) {
	res := s.DB.WithContext(ctx).
		Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
