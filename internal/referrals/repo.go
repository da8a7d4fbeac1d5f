package referrals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
)

// Repository is the persistence surface for referral codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateReferral(ctx context.Context, referral *models.Referral) (*models.Referral, error)
	FindByCode(ctx context.Context, code string) (*models.Referral, error)
	FindByOwner(ctx context.Context, ownerProfileID uuid.UUID) (*models.Referral, error)
	IncrementUses(ctx context.Context, referralID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed referral repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateReferral(ctx context.Context, referral *models.Referral) (*models.Referral, error) {
	if err := r.db.WithContext(ctx).Create(referral).Error; err != nil {
		return nil, err
	}
	return referral, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.WithContext(ctx).First(&referral, "code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

func (r *repository) FindByOwner(ctx context.Context, ownerProfileID uuid.UUID) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.WithContext(ctx).First(&referral, "owner_profile_id = ?", ownerProfileID).Error
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

func (r *repository) IncrementUses(ctx context.Context, referralID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE referrals
		SET uses = uses + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		referralID,
	).Error
}
