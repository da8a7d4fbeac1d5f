package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/internal/orders/reservation"
	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
	"github.com/damilareakin/artmarket-backend/pkg/outbox"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
	"github.com/damilareakin/artmarket-backend/pkg/shipping"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// RateQuoter quotes delivery costs for a destination.
type RateQuoter interface {
	GetRates(ctx context.Context, req shipping.RateRequest) ([]shipping.Rate, error)
}

// InventoryReserver places stock holds for requested line items.
type InventoryReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.Request) ([]reservation.Result, error)
}

// InventoryReleaser returns reserved stock when an item or order is dropped.
type InventoryReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, artworkID uuid.UUID, qty int) error
}

// ReferralAttributor records that an order carried a referral code. Unknown
// codes are absorbed by the implementation so they never fail an order.
type ReferralAttributor interface {
	Attribute(ctx context.Context, tx *gorm.DB, code string, orderID uuid.UUID) error
}

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateOrderInput) (*models.Order, error)
	RemoveItem(ctx context.Context, actor Actor, orderItemID uuid.UUID) (*models.Order, error)
	Checkout(ctx context.Context, actor Actor, orderID uuid.UUID, input CheckoutInput) (*models.Order, error)
	Cancel(ctx context.Context, actor Actor, orderID uuid.UUID) error
	Delete(ctx context.Context, actor Actor, orderID uuid.UUID) error
	ChangeStatus(ctx context.Context, actor Actor, orderID uuid.UUID, status enums.OrderStatus, force bool) error
	Detail(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, actor Actor, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*OrderList, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	rates     RateQuoter
	referrals ReferralAttributor
	reserver  InventoryReserver
	releaser  InventoryReleaser
	logg      *logger.Logger
}

// OrderCreatedEvent is emitted when a new order opens.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID       `json:"order_id"`
	ProfileID  uuid.UUID       `json:"profile_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemCount  int             `json:"item_count"`
}

// OrderCanceledEvent is emitted when an order is canceled.
type OrderCanceledEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	ProfileID uuid.UUID `json:"profile_id"`
}

// OrderStatusForcedEvent records an admin bypassing the transition table.
type OrderStatusForcedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
}

// NewService builds the order service with its required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, rates RateQuoter, referrals ReferralAttributor, reserver InventoryReserver, releaser InventoryReleaser, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if rates == nil {
		return nil, fmt.Errorf("rate quoter required")
	}
	if reserver == nil {
		return nil, fmt.Errorf("inventory reserver required")
	}
	if releaser == nil {
		return nil, fmt.Errorf("inventory releaser required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    outboxSvc,
		rates:     rates,
		referrals: referrals,
		reserver:  reserver,
		releaser:  releaser,
		logg:      logg,
	}, nil
}

type inventoryReserverImpl struct{}

// NewInventoryReserver exposes the default row-locked reservation.
func NewInventoryReserver() InventoryReserver {
	return inventoryReserverImpl{}
}

func (inventoryReserverImpl) Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.Request) ([]reservation.Result, error) {
	return reservation.Reserve(ctx, tx, requests)
}

type inventoryReleaserImpl struct{}

// NewInventoryReleaser exposes the default inventory release implementation.
func NewInventoryReleaser() InventoryReleaser {
	return inventoryReleaserImpl{}
}

func (inventoryReleaserImpl) Release(ctx context.Context, tx *gorm.DB, artworkID uuid.UUID, qty int) error {
	return reservation.Release(ctx, tx, artworkID, qty)
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateOrderInput) (*models.Order, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
		if item.ArtworkID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork id required")
		}
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order := &models.Order{
			ID:              uuid.New(),
			ProfileID:       actor.ProfileID,
			DeliveryAddress: input.DeliveryAddress,
			City:            input.City,
			Zip:             input.Zip,
			Country:         input.Country,
			Status:          enums.OrderStatusPending,
			ReferrerCode:    input.ReferrerCode,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			artwork, err := repo.FindArtwork(ctx, item.ArtworkID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artwork")
			}
			if !artwork.IsActive {
				return pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
			}

			inventory, err := repo.FindInventory(ctx, item.ArtworkID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "requested quantity exceeds available stock")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
			}
			if item.Quantity > inventory.AvailableQty {
				return pkgerrors.New(pkgerrors.CodeValidation, "requested quantity exceeds available stock")
			}

			results, err := s.reserver.Reserve(ctx, tx, []reservation.Request{
				{ArtworkID: item.ArtworkID, Qty: item.Quantity},
			})
			if err != nil {
				return err
			}
			if !results[0].Reserved {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "artwork stock was claimed by another order")
			}
			if err := repo.RefreshPurchaseStatus(ctx, item.ArtworkID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh purchase status")
			}

			price := artwork.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			items = append(items, models.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ArtworkID: item.ArtworkID,
				Quantity:  item.Quantity,
				Price:     price,
			})
			total = total.Add(price)
		}

		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"total_price": total}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order total")
		}

		if input.ReferrerCode != nil && s.referrals != nil {
			if err := s.referrals.Attribute(ctx, tx, *input.ReferrerCode, order.ID); err != nil {
				return err
			}
		}

		order.TotalPrice = total
		order.Items = items
		created = order

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(actor),
			Data: OrderCreatedEvent{
				OrderID:    order.ID,
				ProfileID:  order.ProfileID,
				TotalPrice: total,
				ItemCount:  len(items),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) RemoveItem(ctx context.Context, actor Actor, orderItemID uuid.UUID) (*models.Order, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	if orderItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order item id required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindOrderItem(ctx, orderItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
		}

		order, err := repo.FindOrder(ctx, item.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.ProfileID != actor.ProfileID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to profile")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "items can only be removed from a pending order")
		}

		// The artwork may have been deleted out-of-band; that surfaces as
		// NotFound rather than touching a missing inventory row.
		if _, err := repo.FindInventory(ctx, item.ArtworkID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "artwork no longer exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
		}

		if err := s.releaser.Release(ctx, tx, item.ArtworkID, item.Quantity); err != nil {
			return err
		}
		if err := repo.RefreshPurchaseStatus(ctx, item.ArtworkID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh purchase status")
		}
		if err := repo.DeleteOrderItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order item")
		}

		newTotal := order.TotalPrice.Sub(item.Price)
		if newTotal.IsNegative() {
			newTotal = decimal.Zero
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"total_price": newTotal}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order total")
		}

		updated, err = repo.FindOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Checkout(ctx context.Context, actor Actor, orderID uuid.UUID, input CheckoutInput) (*models.Order, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.ProfileID != actor.ProfileID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to profile")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout requires a pending order")
	}

	rates, err := s.rates.GetRates(ctx, shipping.RateRequest{
		City:     input.City,
		Country:  input.Country,
		Zip:      input.Zip,
		WeightKg: input.WeightKg,
	})
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "no shipping rates available for destination")
	}

	best := rates[0]
	for _, rate := range rates[1:] {
		if rate.Amount.LessThan(best.Amount) {
			best = rate
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"shipping_cost": best.Amount}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist shipping cost")
		}
		rateID := best.RateID
		carrier := best.Carrier
		return repo.UpsertShipment(ctx, &models.Shipment{
			OrderID: order.ID,
			RateID:  &rateID,
			Carrier: &carrier,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindOrder(ctx, order.ID)
}

func (s *service) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID) error {
	if actor.ProfileID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.ProfileID != actor.ProfileID && actor.Role != enums.UserRoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to profile")
		}
		if order.Status == enums.OrderStatusCanceled {
			return nil
		}
		if !order.Status.CanTransition(enums.OrderStatusCanceled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be canceled")
		}

		if err := s.releaseOrderItems(ctx, tx, repo, order.Items); err != nil {
			return err
		}
		if err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusCanceled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(actor),
			Data:          OrderCanceledEvent{OrderID: order.ID, ProfileID: order.ProfileID},
		})
	})
}

func (s *service) Delete(ctx context.Context, actor Actor, orderID uuid.UUID) error {
	if actor.ProfileID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.ProfileID != actor.ProfileID && actor.Role != enums.UserRoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to profile")
		}

		// Canceled orders already returned their stock; shipped orders
		// consumed it. Only live holds go back.
		if order.Status == enums.OrderStatusPending || order.Status == enums.OrderStatusPaid {
			if err := s.releaseOrderItems(ctx, tx, repo, order.Items); err != nil {
				return err
			}
		}

		if err := repo.DeleteOrder(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		return nil
	})
}

func (s *service) ChangeStatus(ctx context.Context, actor Actor, orderID uuid.UUID, status enums.OrderStatus, force bool) error {
	if actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == status {
			return nil
		}
		if !force && !order.Status.CanTransition(status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed")
		}

		if err := repo.UpdateOrderStatus(ctx, order.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		if force && !order.Status.CanTransition(status) {
			if s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"order_id":    order.ID.String(),
					"from_status": order.Status.String(),
					"to_status":   status.String(),
				})
				s.logg.Warn(logCtx, "order status forced outside transition table")
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderStatusForced,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Version:       1,
				Actor:         buildActor(actor),
				Data: OrderStatusForcedEvent{
					OrderID:    order.ID,
					FromStatus: order.Status,
					ToStatus:   status,
				},
			})
		}
		return nil
	})
}

func (s *service) Detail(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.ProfileID != actor.ProfileID && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to profile")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, actor Actor, params pagination.Params) (*OrderList, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile identity missing")
	}
	list, err := s.repo.ListByProfile(ctx, actor.ProfileID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	list, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) releaseOrderItems(ctx context.Context, tx *gorm.DB, repo Repository, items []models.OrderItem) error {
	for _, item := range items {
		if err := s.releaser.Release(ctx, tx, item.ArtworkID, item.Quantity); err != nil {
			return err
		}
		if err := repo.RefreshPurchaseStatus(ctx, item.ArtworkID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh purchase status")
		}
	}
	return nil
}

func buildActor(actor Actor) *outbox.ActorRef {
	profile := actor.ProfileID
	return &outbox.ActorRef{
		UserID:    actor.UserID,
		ProfileID: &profile,
		Role:      actor.Role.String(),
	}
}
