package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/damilareakin/artmarket-backend/pkg/enums"
)

// Payment is an append-only log of payment attempts keyed by the gateway
// transaction reference.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID string              `gorm:"column:transaction_id;not null;uniqueIndex"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	PayeeID       uuid.UUID           `gorm:"column:payee_id;type:uuid;not null;index"`
	PayeeEmail    string              `gorm:"column:payee_email;not null"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Status        enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
