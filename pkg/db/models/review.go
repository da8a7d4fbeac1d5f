package models

import (
	"time"

	"github.com/google/uuid"
)

// Review holds a buyer's rating and comment against an artwork.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID uuid.UUID `gorm:"column:profile_id;type:uuid;not null;index"`
	ArtworkID uuid.UUID `gorm:"column:artwork_id;type:uuid;not null;index"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   *string   `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
