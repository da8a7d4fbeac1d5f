package models

import (
	"time"

	"github.com/google/uuid"
)

// Shipment is the fulfillment record linked 1:1 to an order.
type Shipment struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	TrackingID *string   `gorm:"column:tracking_id"`
	Carrier    *string   `gorm:"column:carrier"`
	RateID     *string   `gorm:"column:rate_id"`
	IsPaid     bool      `gorm:"column:is_paid;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
