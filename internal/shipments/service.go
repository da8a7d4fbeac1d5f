package shipments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/internal/orders/reservation"
	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
	"github.com/damilareakin/artmarket-backend/pkg/outbox"
	"github.com/damilareakin/artmarket-backend/pkg/shipping"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Courier abstracts the logistics provider used to purchase and trace labels.
type Courier interface {
	BuyLabel(ctx context.Context, rateID string) (*shipping.Label, error)
	Track(ctx context.Context, trackingID string) (*shipping.TrackingInfo, error)
}

// InventoryConsumer burns reserved stock once an order leaves the warehouse.
type InventoryConsumer interface {
	Consume(ctx context.Context, tx *gorm.DB, artworkID uuid.UUID, qty int) error
}

type inventoryConsumerImpl struct{}

// NewInventoryConsumer returns the default reservation-backed consumer.
func NewInventoryConsumer() InventoryConsumer {
	return inventoryConsumerImpl{}
}

func (inventoryConsumerImpl) Consume(ctx context.Context, tx *gorm.DB, artworkID uuid.UUID, qty int) error {
	return reservation.ConsumeReserved(ctx, tx, artworkID, qty)
}

// Actor identifies the authenticated caller.
type Actor struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
	Role      enums.UserRole
}

// ShipResult reports the purchased label back to the controller.
type ShipResult struct {
	OrderID    uuid.UUID `json:"order_id"`
	TrackingID string    `json:"tracking_id"`
	Carrier    string    `json:"carrier"`
	LabelURL   string    `json:"label_url"`
}

// OrderShippedEvent is emitted once a label is purchased and the order moves
// to shipped.
type OrderShippedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	ProfileID  uuid.UUID `json:"profile_id"`
	TrackingID string    `json:"tracking_id"`
	Carrier    string    `json:"carrier"`
}

// Service defines shipment operations.
type Service interface {
	Ship(ctx context.Context, actor Actor, orderID uuid.UUID) (*ShipResult, error)
	Track(ctx context.Context, actor Actor, trackingID string) (*shipping.TrackingInfo, error)
	Details(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Shipment, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	courier  Courier
	consumer InventoryConsumer
	logg     *logger.Logger
}

// NewService builds the shipment service. A nil consumer falls back to the
// reservation-backed default.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, courier Courier, consumer InventoryConsumer, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if courier == nil {
		return nil, fmt.Errorf("courier client required")
	}
	if consumer == nil {
		consumer = NewInventoryConsumer()
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		courier:  courier,
		consumer: consumer,
		logg:     logg,
	}, nil
}

func (s *service) Ship(ctx context.Context, actor Actor, orderID uuid.UUID) (*ShipResult, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
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
	if order.Status == enums.OrderStatusShipped {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already shipped")
	}
	if !order.Status.CanTransition(enums.OrderStatusShipped) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid")
	}
	if order.Shipment == nil || order.Shipment.RateID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no quoted shipping rate")
	}

	label, err := s.courier.BuyLabel(ctx, *order.Shipment.RateID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		updates := map[string]any{
			"tracking_id": label.TrackingID,
			"carrier":     label.Carrier,
			"is_paid":     true,
		}
		if err := repo.UpdateShipment(ctx, order.Shipment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment")
		}
		if err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusShipped); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		for _, item := range order.Items {
			if err := s.consumer.Consume(ctx, tx, item.ArtworkID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume reserved stock")
			}
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderShipped,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(actor),
			Data: OrderShippedEvent{
				OrderID:    order.ID,
				ProfileID:  order.ProfileID,
				TrackingID: label.TrackingID,
				Carrier:    label.Carrier,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":    order.ID.String(),
			"tracking_id": label.TrackingID,
			"carrier":     label.Carrier,
		})
		s.logg.Info(logCtx, "order shipped")
	}

	return &ShipResult{
		OrderID:    order.ID,
		TrackingID: label.TrackingID,
		Carrier:    label.Carrier,
		LabelURL:   label.LabelURL,
	}, nil
}

func (s *service) Track(ctx context.Context, actor Actor, trackingID string) (*shipping.TrackingInfo, error) {
	if trackingID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id required")
	}

	shipment, err := s.repo.FindShipmentByTracking(ctx, trackingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	if err := s.authorizeShipment(ctx, actor, shipment); err != nil {
		return nil, err
	}

	return s.courier.Track(ctx, trackingID)
}

func (s *service) Details(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Shipment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	shipment, err := s.repo.FindShipmentByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	if err := s.authorizeShipment(ctx, actor, shipment); err != nil {
		return nil, err
	}
	return shipment, nil
}

func (s *service) authorizeShipment(ctx context.Context, actor Actor, shipment *models.Shipment) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	order, err := s.repo.FindOrder(ctx, shipment.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.ProfileID != actor.ProfileID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "shipment does not belong to profile")
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
