package models

import (
	"time"

	"github.com/google/uuid"
)

// AlbumChild is a single image entry inside an album.
type AlbumChild struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AlbumID   uuid.UUID  `gorm:"column:album_id;type:uuid;not null;index"`
	ArtworkID *uuid.UUID `gorm:"column:artwork_id;type:uuid"`
	ImageURL  string     `gorm:"column:image_url;not null"`
	Caption   *string    `gorm:"column:caption"`
	Position  int        `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
