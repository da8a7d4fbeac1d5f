package models

import (
	"time"

	"github.com/google/uuid"
)

// Like records that a profile liked an artwork. One row per pair.
type Like struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID uuid.UUID `gorm:"column:profile_id;type:uuid;not null;uniqueIndex:idx_likes_profile_artwork"`
	ArtworkID uuid.UUID `gorm:"column:artwork_id;type:uuid;not null;uniqueIndex:idx_likes_profile_artwork"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
