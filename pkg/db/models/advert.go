package models

import (
	"time"

	"github.com/google/uuid"
)

// Advert is a promotional placement with an active display window.
type Advert struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title     string     `gorm:"column:title;not null"`
	MediaURL  string     `gorm:"column:media_url;not null"`
	TargetURL *string    `gorm:"column:target_url"`
	StartsAt  time.Time  `gorm:"column:starts_at;not null"`
	EndsAt    *time.Time `gorm:"column:ends_at"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
