package podcasts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

// Repository is the persistence surface for podcast listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePodcast(ctx context.Context, podcast *models.Podcast) (*models.Podcast, error)
	FindPodcast(ctx context.Context, podcastID uuid.UUID) (*models.Podcast, error)
	UpdatePodcast(ctx context.Context, podcastID uuid.UUID, updates map[string]any) error
	DeletePodcast(ctx context.Context, podcastID uuid.UUID) error
	List(ctx context.Context, kind *enums.PodcastKind, params pagination.Params) ([]models.Podcast, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed podcast repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePodcast(ctx context.Context, podcast *models.Podcast) (*models.Podcast, error) {
	if err := r.db.WithContext(ctx).Create(podcast).Error; err != nil {
		return nil, err
	}
	return podcast, nil
}

func (r *repository) FindPodcast(ctx context.Context, podcastID uuid.UUID) (*models.Podcast, error) {
	var podcast models.Podcast
	err := r.db.WithContext(ctx).First(&podcast, "id = ?", podcastID).Error
	if err != nil {
		return nil, err
	}
	return &podcast, nil
}

func (r *repository) UpdatePodcast(ctx context.Context, podcastID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Podcast{}).
		Where("id = ?", podcastID).
		Updates(updates).Error
}

func (r *repository) DeletePodcast(ctx context.Context, podcastID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.Podcast{}, "id = ?", podcastID).Error
}

func (r *repository) List(ctx context.Context, kind *enums.PodcastKind, params pagination.Params) ([]models.Podcast, error) {
	query := r.db.WithContext(ctx).Model(&models.Podcast{})
	if kind != nil {
		query = query.Where("kind = ?", *kind)
	}

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

	var rows []models.Podcast
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
