package models

import (
	"time"

	"github.com/google/uuid"
)

// Album groups related artwork images under an artist profile.
type Album struct {
	ID          uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID   uuid.UUID    `gorm:"column:profile_id;type:uuid;not null;index"`
	Title       string       `gorm:"column:title;not null"`
	Description *string      `gorm:"column:description"`
	CoverURL    *string      `gorm:"column:cover_url"`
	Children    []AlbumChild `gorm:"foreignKey:AlbumID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
