package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

// Repository is the persistence surface for artwork reviews.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateReview(ctx context.Context, review *models.Review) (*models.Review, error)
	FindReview(ctx context.Context, reviewID uuid.UUID) (*models.Review, error)
	FindReviewByPair(ctx context.Context, profileID, artworkID uuid.UUID) (*models.Review, error)
	UpdateReview(ctx context.Context, reviewID uuid.UUID, updates map[string]any) error
	DeleteReview(ctx context.Context, reviewID uuid.UUID) error
	ListByArtwork(ctx context.Context, artworkID uuid.UUID, params pagination.Params) ([]models.Review, error)
	RecalculateArtworkRating(ctx context.Context, artworkID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed review repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (r *repository) FindReview(ctx context.Context, reviewID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).First(&review, "id = ?", reviewID).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) FindReviewByPair(ctx context.Context, profileID, artworkID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		First(&review, "profile_id = ? AND artwork_id = ?", profileID, artworkID).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) UpdateReview(ctx context.Context, reviewID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", reviewID).
		Updates(updates).Error
}

func (r *repository) DeleteReview(ctx context.Context, reviewID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.Review{}, "id = ?", reviewID).Error
}

func (r *repository) ListByArtwork(ctx context.Context, artworkID uuid.UUID, params pagination.Params) ([]models.Review, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("artwork_id = ?", artworkID)

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

	var rows []models.Review
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RecalculateArtworkRating rewrites the artwork's rating aggregate from the
// surviving review rows.
func (r *repository) RecalculateArtworkRating(ctx context.Context, artworkID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE artworks
		SET rating_avg = COALESCE((SELECT AVG(rating) FROM reviews WHERE artwork_id = ?), 0),
			rating_count = (SELECT COUNT(*) FROM reviews WHERE artwork_id = ?),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		artworkID, artworkID, artworkID,
	).Error
}
