package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Shipment").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Where("id = ?", itemID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindArtwork(ctx context.Context, artworkID uuid.UUID) (*models.Artwork, error) {
	var artwork models.Artwork
	err := r.db.WithContext(ctx).
		Where("id = ?", artworkID).
		First(&artwork).Error
	if err != nil {
		return nil, err
	}
	return &artwork, nil
}

func (r *repository) FindInventory(ctx context.Context, artworkID uuid.UUID) (*models.ArtworkInventory, error) {
	var inventory models.ArtworkInventory
	err := r.db.WithContext(ctx).
		Where("artwork_id = ?", artworkID).
		First(&inventory).Error
	if err != nil {
		return nil, err
	}
	return &inventory, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

func (r *repository) UpsertShipment(ctx context.Context, shipment *models.Shipment) error {
	var existing models.Shipment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", shipment.OrderID).
		First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if shipment.ID == uuid.Nil {
			shipment.ID = uuid.New()
		}
		return r.db.WithContext(ctx).Create(shipment).Error
	case err != nil:
		return err
	default:
		return r.db.WithContext(ctx).
			Model(&models.Shipment{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"tracking_id": shipment.TrackingID,
				"carrier":     shipment.Carrier,
				"rate_id":     shipment.RateID,
				"is_paid":     shipment.IsPaid,
			}).Error
	}
}

// RefreshPurchaseStatus derives the artwork's purchase status from its
// remaining available stock.
func (r *repository) RefreshPurchaseStatus(ctx context.Context, artworkID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE artworks
		SET purchase_status = CASE
			WHEN (SELECT available_qty FROM artwork_inventories WHERE artwork_id = ?) > 0 THEN 'in_stock'
			ELSE 'sold_out'
		END,
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, artworkID, artworkID).Error
}

func (r *repository) DeleteOrderItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", itemID).
		Delete(&models.OrderItem{}).Error
}

func (r *repository) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.Shipment{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", orderID).
		Delete(&models.Order{}).Error
}

func (r *repository) ListByProfile(ctx context.Context, profileID uuid.UUID, params pagination.Params) (*OrderList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("profile_id = ?", profileID)
	return r.listOrders(ctx, query, params)
}

func (r *repository) ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return r.listOrders(ctx, query, params)
}

func (r *repository) listOrders(ctx context.Context, query *gorm.DB, params pagination.Params) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Order
	err = query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &OrderList{Orders: make([]OrderSummary, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Orders = append(list.Orders, OrderSummary{
			ID:         row.ID,
			CreatedAt:  row.CreatedAt,
			TotalPrice: row.TotalPrice,
			Status:     row.Status,
			TotalItems: len(row.Items),
		})
	}
	if hasMore {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}
