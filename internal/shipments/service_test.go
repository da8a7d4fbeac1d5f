package shipments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/outbox"
	"github.com/damilareakin/artmarket-backend/pkg/shipping"
)

type stubShipmentsRepo struct {
	orders    map[uuid.UUID]*models.Order
	shipments map[uuid.UUID]*models.Shipment

	shipmentUpdates map[uuid.UUID]map[string]any
}

func newStubShipmentsRepo() *stubShipmentsRepo {
	return &stubShipmentsRepo{
		orders:          make(map[uuid.UUID]*models.Order),
		shipments:       make(map[uuid.UUID]*models.Shipment),
		shipmentUpdates: make(map[uuid.UUID]map[string]any),
	}
}

func (s *stubShipmentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubShipmentsRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubShipmentsRepo) FindShipmentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	for _, shipment := range s.shipments {
		if shipment.OrderID == orderID {
			return shipment, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubShipmentsRepo) FindShipmentByTracking(ctx context.Context, trackingID string) (*models.Shipment, error) {
	for _, shipment := range s.shipments {
		if shipment.TrackingID != nil && *shipment.TrackingID == trackingID {
			return shipment, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubShipmentsRepo) UpdateShipment(ctx context.Context, shipmentID uuid.UUID, updates map[string]any) error {
	s.shipmentUpdates[shipmentID] = updates
	return nil
}

func (s *stubShipmentsRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	order, ok := s.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	return nil
}

type stubCourier struct {
	label       *shipping.Label
	labelErr    error
	tracking    *shipping.TrackingInfo
	boughtRates []string
}

func (s *stubCourier) BuyLabel(ctx context.Context, rateID string) (*shipping.Label, error) {
	s.boughtRates = append(s.boughtRates, rateID)
	if s.labelErr != nil {
		return nil, s.labelErr
	}
	return s.label, nil
}

func (s *stubCourier) Track(ctx context.Context, trackingID string) (*shipping.TrackingInfo, error) {
	return s.tracking, nil
}

type consumeCall struct {
	artworkID uuid.UUID
	qty       int
}

type stubConsumer struct {
	calls []consumeCall
}

func (s *stubConsumer) Consume(ctx context.Context, tx *gorm.DB, artworkID uuid.UUID, qty int) error {
	s.calls = append(s.calls, consumeCall{artworkID: artworkID, qty: qty})
	return nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type shipmentsFixture struct {
	repo     *stubShipmentsRepo
	courier  *stubCourier
	consumer *stubConsumer
	outbox   *stubOutbox
	svc      Service
}

func newShipmentsFixture(t *testing.T) *shipmentsFixture {
	t.Helper()
	f := &shipmentsFixture{
		repo: newStubShipmentsRepo(),
		courier: &stubCourier{
			label: &shipping.Label{TrackingID: "TRK-9f2", Carrier: "dhl", LabelURL: "https://labels.example.com/TRK-9f2.pdf"},
		},
		consumer: &stubConsumer{},
		outbox:   &stubOutbox{},
	}
	svc, err := NewService(f.repo, stubTxRunner{}, f.outbox, f.courier, f.consumer, nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	f.svc = svc
	return f
}

func (f *shipmentsFixture) seedPaidOrder(profileID uuid.UUID) *models.Order {
	rateID := "rt_std"
	orderID := uuid.New()
	shipment := &models.Shipment{ID: uuid.New(), OrderID: orderID, RateID: &rateID}
	order := &models.Order{
		ID:        orderID,
		ProfileID: profileID,
		Status:    enums.OrderStatusPaid,
		Items: []models.OrderItem{
			{ID: uuid.New(), OrderID: orderID, ArtworkID: uuid.New(), Quantity: 2},
			{ID: uuid.New(), OrderID: orderID, ArtworkID: uuid.New(), Quantity: 1},
		},
		Shipment: shipment,
	}
	f.repo.orders[orderID] = order
	f.repo.shipments[shipment.ID] = shipment
	return order
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	return typed.Code()
}

func TestShipBuysLabelAndTransitionsOrder(t *testing.T) {
	f := newShipmentsFixture(t)
	admin := Actor{UserID: uuid.New(), ProfileID: uuid.New(), Role: enums.UserRoleAdmin}
	order := f.seedPaidOrder(uuid.New())

	result, err := f.svc.Ship(context.Background(), admin, order.ID)
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if result.TrackingID != "TRK-9f2" || result.Carrier != "dhl" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(f.courier.boughtRates) != 1 || f.courier.boughtRates[0] != "rt_std" {
		t.Fatalf("expected label bought for rt_std, got %v", f.courier.boughtRates)
	}
	if f.repo.orders[order.ID].Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped order, got %s", f.repo.orders[order.ID].Status)
	}

	updates := f.repo.shipmentUpdates[order.Shipment.ID]
	if updates == nil {
		t.Fatal("expected shipment update")
	}
	if updates["tracking_id"] != "TRK-9f2" || updates["is_paid"] != true {
		t.Fatalf("unexpected shipment updates: %v", updates)
	}

	if len(f.consumer.calls) != 2 {
		t.Fatalf("expected 2 consume calls, got %d", len(f.consumer.calls))
	}
	if f.consumer.calls[0].qty != 2 || f.consumer.calls[1].qty != 1 {
		t.Fatalf("unexpected consume quantities: %+v", f.consumer.calls)
	}

	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderShipped {
		t.Fatalf("expected order_shipped event, got %+v", f.outbox.events)
	}
}

func TestShipRequiresAdmin(t *testing.T) {
	f := newShipmentsFixture(t)
	buyerProfile := uuid.New()
	order := f.seedPaidOrder(buyerProfile)

	_, err := f.svc.Ship(context.Background(), Actor{ProfileID: buyerProfile, Role: enums.UserRoleUser}, order.ID)
	if code := errCode(t, err); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
}

func TestShipRejectsUnpaidOrder(t *testing.T) {
	f := newShipmentsFixture(t)
	admin := Actor{Role: enums.UserRoleAdmin}
	order := f.seedPaidOrder(uuid.New())
	order.Status = enums.OrderStatusPending

	_, err := f.svc.Ship(context.Background(), admin, order.ID)
	if code := errCode(t, err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", code)
	}
	if len(f.courier.boughtRates) != 0 {
		t.Fatal("must not buy a label for an unpaid order")
	}
}

func TestShipRejectsMissingRate(t *testing.T) {
	f := newShipmentsFixture(t)
	admin := Actor{Role: enums.UserRoleAdmin}
	order := f.seedPaidOrder(uuid.New())
	order.Shipment.RateID = nil

	_, err := f.svc.Ship(context.Background(), admin, order.ID)
	if code := errCode(t, err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", code)
	}
}

func TestTrackAuthorizesOwner(t *testing.T) {
	f := newShipmentsFixture(t)
	buyerProfile := uuid.New()
	order := f.seedPaidOrder(buyerProfile)
	tracking := "TRK-9f2"
	order.Shipment.TrackingID = &tracking
	f.courier.tracking = &shipping.TrackingInfo{TrackingID: tracking, Status: "in_transit"}

	info, err := f.svc.Track(context.Background(), Actor{ProfileID: buyerProfile, Role: enums.UserRoleUser}, tracking)
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if info.Status != "in_transit" {
		t.Fatalf("unexpected tracking info: %+v", info)
	}

	_, err = f.svc.Track(context.Background(), Actor{ProfileID: uuid.New(), Role: enums.UserRoleUser}, tracking)
	if code := errCode(t, err); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for stranger, got %s", code)
	}
}

func TestDetailsUnknownOrder(t *testing.T) {
	f := newShipmentsFixture(t)

	_, err := f.svc.Details(context.Background(), Actor{ProfileID: uuid.New(), Role: enums.UserRoleAdmin}, uuid.New())
	if code := errCode(t, err); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}
