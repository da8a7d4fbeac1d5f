package models

import (
	"time"

	"github.com/google/uuid"
)

// Referral tracks a shareable code and how often it has been attributed.
type Referral struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string    `gorm:"column:code;not null;uniqueIndex"`
	OwnerProfileID uuid.UUID `gorm:"column:owner_profile_id;type:uuid;not null;index"`
	Uses           int       `gorm:"column:uses;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
