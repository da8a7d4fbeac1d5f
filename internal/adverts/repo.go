package adverts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
)

// Repository is the persistence surface for adverts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAdvert(ctx context.Context, advert *models.Advert) (*models.Advert, error)
	FindAdvert(ctx context.Context, advertID uuid.UUID) (*models.Advert, error)
	UpdateAdvert(ctx context.Context, advertID uuid.UUID, updates map[string]any) error
	DeleteAdvert(ctx context.Context, advertID uuid.UUID) error
	ListActive(ctx context.Context, at time.Time) ([]models.Advert, error)
	ListAll(ctx context.Context) ([]models.Advert, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed advert repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAdvert(ctx context.Context, advert *models.Advert) (*models.Advert, error) {
	if err := r.db.WithContext(ctx).Create(advert).Error; err != nil {
		return nil, err
	}
	return advert, nil
}

func (r *repository) FindAdvert(ctx context.Context, advertID uuid.UUID) (*models.Advert, error) {
	var advert models.Advert
	err := r.db.WithContext(ctx).First(&advert, "id = ?", advertID).Error
	if err != nil {
		return nil, err
	}
	return &advert, nil
}

func (r *repository) UpdateAdvert(ctx context.Context, advertID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Advert{}).
		Where("id = ?", advertID).
		Updates(updates).Error
}

func (r *repository) DeleteAdvert(ctx context.Context, advertID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.Advert{}, "id = ?", advertID).Error
}

// ListActive returns adverts whose display window covers the given instant.
// A null ends_at means the advert runs until deactivated.
func (r *repository) ListActive(ctx context.Context, at time.Time) ([]models.Advert, error) {
	var rows []models.Advert
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("starts_at <= ?", at).
		Where("ends_at IS NULL OR ends_at > ?", at).
		Order("starts_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Advert, error) {
	var rows []models.Advert
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
