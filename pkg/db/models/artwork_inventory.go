package models

import (
	"time"

	"github.com/google/uuid"
)

// ArtworkInventory tracks available/reserved counts per artwork.
type ArtworkInventory struct {
	ArtworkID    uuid.UUID `gorm:"column:artwork_id;type:uuid;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	ReservedQty  int       `gorm:"column:reserved_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
