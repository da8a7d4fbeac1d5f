package artworks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

// Repository is the persistence surface for artwork listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateArtwork(ctx context.Context, artwork *models.Artwork) (*models.Artwork, error)
	FindArtwork(ctx context.Context, artworkID uuid.UUID) (*models.Artwork, error)
	UpdateArtwork(ctx context.Context, artworkID uuid.UUID, updates map[string]any) error
	AddStock(ctx context.Context, artworkID uuid.UUID, qty int) error
	RemoveStock(ctx context.Context, artworkID uuid.UUID, qty int) (bool, error)
	RefreshPurchaseStatus(ctx context.Context, artworkID uuid.UUID) error
	Search(ctx context.Context, filters SearchFilters, params pagination.Params) ([]models.Artwork, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed artwork repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateArtwork(ctx context.Context, artwork *models.Artwork) (*models.Artwork, error) {
	if err := r.db.WithContext(ctx).Create(artwork).Error; err != nil {
		return nil, err
	}
	return artwork, nil
}

func (r *repository) FindArtwork(ctx context.Context, artworkID uuid.UUID) (*models.Artwork, error) {
	var artwork models.Artwork
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		First(&artwork, "id = ?", artworkID).Error
	if err != nil {
		return nil, err
	}
	return &artwork, nil
}

func (r *repository) UpdateArtwork(ctx context.Context, artworkID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Artwork{}).
		Where("id = ?", artworkID).
		Updates(updates).Error
}

func (r *repository) AddStock(ctx context.Context, artworkID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE artwork_inventories
		SET available_qty = available_qty + ?, updated_at = CURRENT_TIMESTAMP
		WHERE artwork_id = ?`,
		qty, artworkID,
	).Error
}

// RemoveStock decrements available stock only when enough is on hand. The
// returned bool reports whether the guarded update matched a row.
func (r *repository) RemoveStock(ctx context.Context, artworkID uuid.UUID, qty int) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE artwork_inventories
		SET available_qty = available_qty - ?, updated_at = CURRENT_TIMESTAMP
		WHERE artwork_id = ? AND available_qty >= ?`,
		qty, artworkID, qty,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) RefreshPurchaseStatus(ctx context.Context, artworkID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE artworks
		SET purchase_status = CASE
			WHEN (SELECT available_qty FROM artwork_inventories WHERE artwork_id = ?) > 0 THEN 'in_stock'
			ELSE 'sold_out'
		END,
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		artworkID, artworkID,
	).Error
}

func (r *repository) Search(ctx context.Context, filters SearchFilters, params pagination.Params) ([]models.Artwork, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Artwork{}).
		Where("is_active = ?", true)

	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("title LIKE ?", pattern)
	}
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.Medium != nil {
		query = query.Where("? = ANY(mediums)", *filters.Medium)
	}
	if filters.ProfileID != nil {
		query = query.Where("profile_id = ?", *filters.ProfileID)
	}
	if filters.MinPrice != nil {
		query = query.Where("price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("price <= ?", *filters.MaxPrice)
	}
	if filters.InStockOnly {
		query = query.Where("purchase_status = ?", "in_stock")
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

	var rows []models.Artwork
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
