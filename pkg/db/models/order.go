package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/damilareakin/artmarket-backend/pkg/enums"
)

// Order aggregates a buyer's purchase intent across one or more line items.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID       uuid.UUID         `gorm:"column:profile_id;type:uuid;not null;index"`
	DeliveryAddress string            `gorm:"column:delivery_address;not null"`
	City            string            `gorm:"column:city;not null"`
	Zip             string            `gorm:"column:zip;not null"`
	Country         string            `gorm:"column:country;not null"`
	TotalPrice      decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null;default:0"`
	ShippingCost    *decimal.Decimal  `gorm:"column:shipping_cost;type:numeric(12,2)"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	ReferrerCode    *string           `gorm:"column:referrer_code"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Shipment        *Shipment         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
