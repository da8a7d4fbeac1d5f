package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/damilareakin/artmarket-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to profiles.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID uuid.UUID              `gorm:"column:profile_id;type:uuid;not null;index"`
	Type      enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Message   string                 `gorm:"column:message;not null"`
	Payload   json.RawMessage        `gorm:"column:payload;type:jsonb"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
