package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
	FindArtwork(ctx context.Context, artworkID uuid.UUID) (*models.Artwork, error)
	FindInventory(ctx context.Context, artworkID uuid.UUID) (*models.ArtworkInventory, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	UpsertShipment(ctx context.Context, shipment *models.Shipment) error
	RefreshPurchaseStatus(ctx context.Context, artworkID uuid.UUID) error
	DeleteOrderItem(ctx context.Context, itemID uuid.UUID) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	ListByProfile(ctx context.Context, profileID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
}
