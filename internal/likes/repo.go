package likes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
)

// Repository is the persistence surface for artwork likes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, profileID, artworkID uuid.UUID) (bool, error)
	LikeExists(ctx context.Context, profileID, artworkID uuid.UUID) (bool, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]models.Like, error)
	RefreshLikeCount(ctx context.Context, artworkID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed like repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateLike(ctx context.Context, like *models.Like) error {
	return r.db.WithContext(ctx).Create(like).Error
}

func (r *repository) DeleteLike(ctx context.Context, profileID, artworkID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Delete(&models.Like{}, "profile_id = ? AND artwork_id = ?", profileID, artworkID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) LikeExists(ctx context.Context, profileID, artworkID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("profile_id = ? AND artwork_id = ?", profileID, artworkID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]models.Like, error) {
	var rows []models.Like
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RefreshLikeCount rewrites the artwork's like counter from the like rows.
func (r *repository) RefreshLikeCount(ctx context.Context, artworkID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE artworks
		SET like_count = (SELECT COUNT(*) FROM likes WHERE artwork_id = ?),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		artworkID, artworkID,
	).Error
}
