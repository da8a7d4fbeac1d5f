package albums

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

// Repository is the persistence surface for albums and their children.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAlbum(ctx context.Context, album *models.Album) (*models.Album, error)
	FindAlbum(ctx context.Context, albumID uuid.UUID) (*models.Album, error)
	UpdateAlbum(ctx context.Context, albumID uuid.UUID, updates map[string]any) error
	DeleteAlbum(ctx context.Context, albumID uuid.UUID) error
	ListByProfile(ctx context.Context, profileID uuid.UUID, params pagination.Params) ([]models.Album, error)
	CreateChild(ctx context.Context, child *models.AlbumChild) (*models.AlbumChild, error)
	FindChild(ctx context.Context, childID uuid.UUID) (*models.AlbumChild, error)
	UpdateChild(ctx context.Context, childID uuid.UUID, updates map[string]any) error
	DeleteChild(ctx context.Context, childID uuid.UUID) error
	MaxChildPosition(ctx context.Context, albumID uuid.UUID) (int, error)
	ShiftChildPositions(ctx context.Context, albumID uuid.UUID, from, to int, delta int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed album repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAlbum(ctx context.Context, album *models.Album) (*models.Album, error) {
	if err := r.db.WithContext(ctx).Create(album).Error; err != nil {
		return nil, err
	}
	return album, nil
}

func (r *repository) FindAlbum(ctx context.Context, albumID uuid.UUID) (*models.Album, error) {
	var album models.Album
	err := r.db.WithContext(ctx).
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		First(&album, "id = ?", albumID).Error
	if err != nil {
		return nil, err
	}
	return &album, nil
}

func (r *repository) UpdateAlbum(ctx context.Context, albumID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Album{}).
		Where("id = ?", albumID).
		Updates(updates).Error
}

func (r *repository) DeleteAlbum(ctx context.Context, albumID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.Album{}, "id = ?", albumID).Error
}

func (r *repository) ListByProfile(ctx context.Context, profileID uuid.UUID, params pagination.Params) ([]models.Album, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Album{}).
		Where("profile_id = ?", profileID)

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

	var albums []models.Album
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&albums).Error
	return albums, err
}

func (r *repository) CreateChild(ctx context.Context, child *models.AlbumChild) (*models.AlbumChild, error) {
	if err := r.db.WithContext(ctx).Create(child).Error; err != nil {
		return nil, err
	}
	return child, nil
}

func (r *repository) FindChild(ctx context.Context, childID uuid.UUID) (*models.AlbumChild, error) {
	var child models.AlbumChild
	err := r.db.WithContext(ctx).First(&child, "id = ?", childID).Error
	if err != nil {
		return nil, err
	}
	return &child, nil
}

func (r *repository) UpdateChild(ctx context.Context, childID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.AlbumChild{}).
		Where("id = ?", childID).
		Updates(updates).Error
}

func (r *repository) DeleteChild(ctx context.Context, childID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.AlbumChild{}, "id = ?", childID).Error
}

func (r *repository) MaxChildPosition(ctx context.Context, albumID uuid.UUID) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&models.AlbumChild{}).
		Where("album_id = ?", albumID).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}

// ShiftChildPositions moves every child whose position lies in [from, to]
// by delta, making room for a reorder inside one UPDATE.
func (r *repository) ShiftChildPositions(ctx context.Context, albumID uuid.UUID, from, to int, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.AlbumChild{}).
		Where("album_id = ? AND position >= ? AND position <= ?", albumID, from, to).
		UpdateColumn("position", gorm.Expr("position + ?", delta)).Error
}
