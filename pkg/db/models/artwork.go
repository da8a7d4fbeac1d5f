package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/damilareakin/artmarket-backend/pkg/enums"
)

// Artwork represents a listed piece offered for sale by an artist profile.
type Artwork struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID      uuid.UUID            `gorm:"column:profile_id;type:uuid;not null;index"`
	Title          string               `gorm:"column:title;not null"`
	Description    *string              `gorm:"column:description"`
	Kind           enums.ArtworkKind    `gorm:"column:kind;type:artwork_kind;not null;default:'other'"`
	Mediums        StringList           `gorm:"column:mediums;not null"`
	Price          decimal.Decimal      `gorm:"column:price;type:numeric(12,2);not null"`
	PurchaseStatus enums.PurchaseStatus `gorm:"column:purchase_status;type:purchase_status;not null;default:'in_stock'"`
	ImageURL       *string              `gorm:"column:image_url"`
	ThumbnailURL   *string              `gorm:"column:thumbnail_url"`
	RatingAvg      float64              `gorm:"column:rating_avg;type:numeric(3,2);not null;default:0"`
	RatingCount    int                  `gorm:"column:rating_count;not null;default:0"`
	LikeCount      int                  `gorm:"column:like_count;not null;default:0"`
	IsActive       bool                 `gorm:"column:is_active;not null;default:true"`
	Inventory      *ArtworkInventory    `gorm:"foreignKey:ArtworkID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
