package models

import (
	"time"

	"github.com/google/uuid"
)

// Story is a blog post authored by a profile.
type Story struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID   uuid.UUID  `gorm:"column:profile_id;type:uuid;not null;index"`
	Title       string     `gorm:"column:title;not null"`
	Body        string     `gorm:"column:body;not null"`
	Tags        StringList `gorm:"column:tags;not null"`
	CoverURL    *string    `gorm:"column:cover_url"`
	IsPublished bool       `gorm:"column:is_published;not null;default:false"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
