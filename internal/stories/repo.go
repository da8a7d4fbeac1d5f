package stories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

// Repository is the persistence surface for blog stories.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateStory(ctx context.Context, story *models.Story) (*models.Story, error)
	FindStory(ctx context.Context, storyID uuid.UUID) (*models.Story, error)
	UpdateStory(ctx context.Context, storyID uuid.UUID, updates map[string]any) error
	DeleteStory(ctx context.Context, storyID uuid.UUID) error
	ListPublished(ctx context.Context, params pagination.Params) ([]models.Story, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID, params pagination.Params) ([]models.Story, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed story repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateStory(ctx context.Context, story *models.Story) (*models.Story, error) {
	if err := r.db.WithContext(ctx).Create(story).Error; err != nil {
		return nil, err
	}
	return story, nil
}

func (r *repository) FindStory(ctx context.Context, storyID uuid.UUID) (*models.Story, error) {
	var story models.Story
	err := r.db.WithContext(ctx).First(&story, "id = ?", storyID).Error
	if err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *repository) UpdateStory(ctx context.Context, storyID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Story{}).
		Where("id = ?", storyID).
		Updates(updates).Error
}

func (r *repository) DeleteStory(ctx context.Context, storyID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.Story{}, "id = ?", storyID).Error
}

func (r *repository) ListPublished(ctx context.Context, params pagination.Params) ([]models.Story, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Story{}).
		Where("is_published = ?", true)
	return r.page(ctx, query, params)
}

func (r *repository) ListByProfile(ctx context.Context, profileID uuid.UUID, params pagination.Params) ([]models.Story, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Story{}).
		Where("profile_id = ?", profileID)
	return r.page(ctx, query, params)
}

func (r *repository) page(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.Story, error) {
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

	var rows []models.Story
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
