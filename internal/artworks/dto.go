package artworks

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
)

// Actor identifies the authenticated caller.
type Actor struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
	Role      enums.UserRole
}

// CreateInput is the payload for listing a new artwork.
type CreateInput struct {
	Title        string          `json:"title" validate:"required,max=200"`
	Description  *string         `json:"description"`
	Kind         string          `json:"kind" validate:"required"`
	Mediums      []string        `json:"mediums"`
	Price        decimal.Decimal `json:"price" validate:"required"`
	Quantity     int             `json:"quantity" validate:"required,min=1"`
	ImageURL     *string         `json:"imageUrl"`
	ThumbnailURL *string         `json:"thumbnailUrl"`
}

// UpdateInput carries partial artwork changes. Nil fields are untouched.
type UpdateInput struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Kind         *string          `json:"kind"`
	Mediums      []string         `json:"mediums"`
	Price        *decimal.Decimal `json:"price"`
	ImageURL     *string          `json:"imageUrl"`
	ThumbnailURL *string          `json:"thumbnailUrl"`
}

// SearchFilters narrows artwork search results.
type SearchFilters struct {
	Query       string
	Kind        *enums.ArtworkKind
	Medium      *string
	ProfileID   *uuid.UUID
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InStockOnly bool
}

// ArtworkSummary is the search listing shape.
type ArtworkSummary struct {
	ID             uuid.UUID            `json:"id"`
	ProfileID      uuid.UUID            `json:"profileId"`
	Title          string               `json:"title"`
	Kind           enums.ArtworkKind    `json:"kind"`
	Price          decimal.Decimal      `json:"price"`
	PurchaseStatus enums.PurchaseStatus `json:"purchaseStatus"`
	ThumbnailURL   *string              `json:"thumbnailUrl"`
	RatingAvg      float64              `json:"ratingAvg"`
	LikeCount      int                  `json:"likeCount"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// ArtworkList is a page of search results with an optional next cursor.
type ArtworkList struct {
	Artworks   []ArtworkSummary `json:"artworks"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

func toSummary(artwork models.Artwork) ArtworkSummary {
	return ArtworkSummary{
		ID:             artwork.ID,
		ProfileID:      artwork.ProfileID,
		Title:          artwork.Title,
		Kind:           artwork.Kind,
		Price:          artwork.Price,
		PurchaseStatus: artwork.PurchaseStatus,
		ThumbnailURL:   artwork.ThumbnailURL,
		RatingAvg:      artwork.RatingAvg,
		LikeCount:      artwork.LikeCount,
		CreatedAt:      artwork.CreatedAt,
	}
}
