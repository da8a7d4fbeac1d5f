package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the public-facing identity attached 1:1 to a user.
type Profile struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	DisplayName  string    `gorm:"column:display_name;not null"`
	Bio          *string   `gorm:"column:bio"`
	AvatarURL    *string   `gorm:"column:avatar_url"`
	IsArtist     bool      `gorm:"column:is_artist;not null;default:false"`
	ReferralCode *string   `gorm:"column:referral_code;uniqueIndex"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
