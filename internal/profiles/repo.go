package profiles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

// Repository is the persistence surface for profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProfile(ctx context.Context, profileID uuid.UUID) (*models.Profile, error)
	FindProfileByUser(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profileID uuid.UUID, updates map[string]any) error
	ListArtists(ctx context.Context, params pagination.Params) ([]models.Profile, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed profile repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProfile(ctx context.Context, profileID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).First(&profile, "id = ?", profileID).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindProfileByUser(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) UpdateProfile(ctx context.Context, profileID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", profileID).
		Updates(updates).Error
}

func (r *repository) ListArtists(ctx context.Context, params pagination.Params) ([]models.Profile, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("is_artist = ?", true)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Profile
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
