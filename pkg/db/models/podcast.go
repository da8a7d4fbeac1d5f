package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/damilareakin/artmarket-backend/pkg/enums"
)

// Podcast is an audio or video listing attached to a profile.
type Podcast struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID   uuid.UUID         `gorm:"column:profile_id;type:uuid;not null;index"`
	Title       string            `gorm:"column:title;not null"`
	Description *string           `gorm:"column:description"`
	Kind        enums.PodcastKind `gorm:"column:kind;type:podcast_kind;not null"`
	MediaURL    string            `gorm:"column:media_url;not null"`
	CoverURL    *string           `gorm:"column:cover_url"`
	DurationSec *int              `gorm:"column:duration_sec"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
