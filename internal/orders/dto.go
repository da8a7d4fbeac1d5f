package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/damilareakin/artmarket-backend/pkg/enums"
)

// Actor identifies the authenticated caller acting on an order.
type Actor struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
	Role      enums.UserRole
}

// CreateItemInput is one requested line item.
type CreateItemInput struct {
	ArtworkID uuid.UUID `json:"artworkId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// CreateOrderInput carries everything needed to open a PENDING order.
type CreateOrderInput struct {
	DeliveryAddress string            `json:"deliveryAddress" validate:"required"`
	City            string            `json:"city" validate:"required"`
	Zip             string            `json:"zip" validate:"required"`
	Country         string            `json:"country" validate:"required"`
	ReferrerCode    *string           `json:"referrerCode,omitempty"`
	Items           []CreateItemInput `json:"items" validate:"required,min=1,dive"`
}

// CheckoutInput selects the destination used for the shipping quote.
type CheckoutInput struct {
	City     string  `json:"city" validate:"required"`
	Country  string  `json:"country" validate:"required"`
	Zip      string  `json:"zip"`
	WeightKg float64 `json:"weightKg"`
}

// ChangeStatusInput is the admin-only status mutation.
type ChangeStatusInput struct {
	Status string `json:"status" validate:"required"`
	Force  bool   `json:"force"`
}

// ListFilters narrow the admin order list.
type ListFilters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderSummary is the list-view shape of an order.
type OrderSummary struct {
	ID         uuid.UUID         `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	Status     enums.OrderStatus `json:"status"`
	TotalItems int               `json:"total_items"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
