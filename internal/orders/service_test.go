package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/internal/orders/reservation"
	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/outbox"
	"github.com/damilareakin/artmarket-backend/pkg/pagination"
	"github.com/damilareakin/artmarket-backend/pkg/shipping"
)

type stubOrdersRepo struct {
	orders        map[uuid.UUID]*models.Order
	items         map[uuid.UUID]*models.OrderItem
	artworks      map[uuid.UUID]*models.Artwork
	inventories   map[uuid.UUID]*models.ArtworkInventory
	shipment      *models.Shipment
	refreshed     []uuid.UUID
	deletedItems  []uuid.UUID
	deletedOrders []uuid.UUID
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		orders:      make(map[uuid.UUID]*models.Order),
		items:       make(map[uuid.UUID]*models.OrderItem),
		artworks:    make(map[uuid.UUID]*models.Artwork),
		inventories: make(map[uuid.UUID]*models.ArtworkInventory),
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrdersRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	for i := range items {
		item := items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		s.items[item.ID] = &item
	}
	return nil
}

func (s *stubOrdersRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("find order: %w", gorm.ErrRecordNotFound)
	}
	clone := *order
	clone.Items = nil
	for _, item := range s.items {
		if item.OrderID == orderID {
			clone.Items = append(clone.Items, *item)
		}
	}
	return &clone, nil
}

func (s *stubOrdersRepo) FindOrderItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	item, ok := s.items[itemID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (s *stubOrdersRepo) FindArtwork(ctx context.Context, artworkID uuid.UUID) (*models.Artwork, error) {
	artwork, ok := s.artworks[artworkID]
	if !ok {
		return nil, fmt.Errorf("find artwork: %w", gorm.ErrRecordNotFound)
	}
	return artwork, nil
}

func (s *stubOrdersRepo) FindInventory(ctx context.Context, artworkID uuid.UUID) (*models.ArtworkInventory, error) {
	inventory, ok := s.inventories[artworkID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return inventory, nil
}

func (s *stubOrdersRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	order, ok := s.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "total_price":
			if v, ok := value.(decimal.Decimal); ok {
				order.TotalPrice = v
			}
		case "shipping_cost":
			if v, ok := value.(decimal.Decimal); ok {
				cost := v
				order.ShippingCost = &cost
			}
		}
	}
	return nil
}

func (s *stubOrdersRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	order, ok := s.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	return nil
}

func (s *stubOrdersRepo) UpsertShipment(ctx context.Context, shipment *models.Shipment) error {
	s.shipment = shipment
	return nil
}

func (s *stubOrdersRepo) RefreshPurchaseStatus(ctx context.Context, artworkID uuid.UUID) error {
	s.refreshed = append(s.refreshed, artworkID)
	return nil
}

func (s *stubOrdersRepo) DeleteOrderItem(ctx context.Context, itemID uuid.UUID) error {
	delete(s.items, itemID)
	s.deletedItems = append(s.deletedItems, itemID)
	return nil
}

func (s *stubOrdersRepo) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	delete(s.orders, orderID)
	s.deletedOrders = append(s.deletedOrders, orderID)
	return nil
}

func (s *stubOrdersRepo) ListByProfile(ctx context.Context, profileID uuid.UUID, params pagination.Params) (*OrderList, error) {
	return &OrderList{}, nil
}

func (s *stubOrdersRepo) ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	return &OrderList{}, nil
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutboxPublisher) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return s.Emit(ctx, tx, event)
}

func (s *stubOutboxPublisher) lastEventType() enums.OutboxEventType {
	if len(s.events) == 0 {
		return ""
	}
	return s.events[len(s.events)-1].EventType
}

type stubRateQuoter struct {
	rates []shipping.Rate
	err   error
}

func (s *stubRateQuoter) GetRates(ctx context.Context, req shipping.RateRequest) ([]shipping.Rate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rates, nil
}

type stubReserver struct {
	calls    []reservation.Request
	rejectID uuid.UUID
}

func (s *stubReserver) Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.Request) ([]reservation.Result, error) {
	s.calls = append(s.calls, requests...)
	results := make([]reservation.Result, len(requests))
	for i, req := range requests {
		results[i] = reservation.Result{ArtworkID: req.ArtworkID, Qty: req.Qty, Reserved: req.ArtworkID != s.rejectID}
		if !results[i].Reserved {
			results[i].Reason = "insufficient stock"
		}
	}
	return results, nil
}

type releaseCall struct {
	artworkID uuid.UUID
	qty       int
}

type stubReleaser struct {
	calls []releaseCall
}

func (s *stubReleaser) Release(ctx context.Context, tx *gorm.DB, artworkID uuid.UUID, qty int) error {
	s.calls = append(s.calls, releaseCall{artworkID: artworkID, qty: qty})
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type ordersFixture struct {
	repo     *stubOrdersRepo
	outbox   *stubOutboxPublisher
	rates    *stubRateQuoter
	reserver *stubReserver
	releaser *stubReleaser
	svc      Service
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()
	f := &ordersFixture{
		repo:     newStubOrdersRepo(),
		outbox:   &stubOutboxPublisher{},
		rates:    &stubRateQuoter{},
		reserver: &stubReserver{},
		releaser: &stubReleaser{},
	}
	svc, err := NewService(f.repo, stubTxRunner{}, f.outbox, f.rates, nil, f.reserver, f.releaser, nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	f.svc = svc
	return f
}

func (f *ordersFixture) seedArtwork(price string, available int) uuid.UUID {
	id := uuid.New()
	f.repo.artworks[id] = &models.Artwork{
		ID:       id,
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	}
	f.repo.inventories[id] = &models.ArtworkInventory{ArtworkID: id, AvailableQty: available}
	return id
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	return typed.Code()
}

func TestCreateOrderTotalsItems(t *testing.T) {
	f := newOrdersFixture(t)
	profileID := uuid.New()
	artA := f.seedArtwork("150.00", 5)
	artB := f.seedArtwork("40.50", 2)

	order, err := f.svc.Create(context.Background(), Actor{UserID: uuid.New(), ProfileID: profileID, Role: enums.UserRoleUser}, CreateOrderInput{
		DeliveryAddress: "12 Gallery Lane",
		City:            "Lagos",
		Zip:             "100001",
		Country:         "NG",
		Items: []CreateItemInput{
			{ArtworkID: artA, Quantity: 2},
			{ArtworkID: artB, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	want := decimal.RequireFromString("340.50")
	if !order.TotalPrice.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, order.TotalPrice)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	if len(f.reserver.calls) != 2 {
		t.Fatalf("expected 2 reservations, got %d", len(f.reserver.calls))
	}
	if f.outbox.lastEventType() != enums.EventOrderCreated {
		t.Fatalf("expected order_created event, got %s", f.outbox.lastEventType())
	}
}

func TestCreateOrderQuantityExceedsStock(t *testing.T) {
	f := newOrdersFixture(t)
	art := f.seedArtwork("99.99", 1)

	_, err := f.svc.Create(context.Background(), Actor{ProfileID: uuid.New()}, CreateOrderInput{
		DeliveryAddress: "12 Gallery Lane",
		City:            "Lagos",
		Zip:             "100001",
		Country:         "NG",
		Items:           []CreateItemInput{{ArtworkID: art, Quantity: 3}},
	})
	if code := errCode(t, err); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", code)
	}
	if len(f.reserver.calls) != 0 {
		t.Fatal("reservation should not be attempted")
	}
}

func TestCreateOrderArtworkNotFound(t *testing.T) {
	f := newOrdersFixture(t)

	_, err := f.svc.Create(context.Background(), Actor{ProfileID: uuid.New()}, CreateOrderInput{
		DeliveryAddress: "12 Gallery Lane",
		City:            "Lagos",
		Zip:             "100001",
		Country:         "NG",
		Items:           []CreateItemInput{{ArtworkID: uuid.New(), Quantity: 1}},
	})
	if code := errCode(t, err); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}

func TestCreateOrderReservationConflict(t *testing.T) {
	f := newOrdersFixture(t)
	art := f.seedArtwork("20.00", 4)
	f.reserver.rejectID = art

	_, err := f.svc.Create(context.Background(), Actor{ProfileID: uuid.New()}, CreateOrderInput{
		DeliveryAddress: "12 Gallery Lane",
		City:            "Lagos",
		Zip:             "100001",
		Country:         "NG",
		Items:           []CreateItemInput{{ArtworkID: art, Quantity: 2}},
	})
	if code := errCode(t, err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", code)
	}
}

func TestRemoveItemRestoresStockAndTotal(t *testing.T) {
	f := newOrdersFixture(t)
	profileID := uuid.New()
	art := f.seedArtwork("60.00", 10)

	orderID := uuid.New()
	f.repo.orders[orderID] = &models.Order{
		ID:         orderID,
		ProfileID:  profileID,
		Status:     enums.OrderStatusPending,
		TotalPrice: decimal.RequireFromString("180.00"),
	}
	itemID := uuid.New()
	f.repo.items[itemID] = &models.OrderItem{
		ID:        itemID,
		OrderID:   orderID,
		ArtworkID: art,
		Quantity:  2,
		Price:     decimal.RequireFromString("120.00"),
	}

	order, err := f.svc.RemoveItem(context.Background(), Actor{ProfileID: profileID}, itemID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}

	want := decimal.RequireFromString("60.00")
	if !order.TotalPrice.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, order.TotalPrice)
	}
	if len(f.releaser.calls) != 1 || f.releaser.calls[0].qty != 2 || f.releaser.calls[0].artworkID != art {
		t.Fatalf("unexpected release calls: %+v", f.releaser.calls)
	}
	if len(f.repo.deletedItems) != 1 {
		t.Fatalf("expected item deletion, got %+v", f.repo.deletedItems)
	}
}

func TestRemoveItemWrongOwner(t *testing.T) {
	f := newOrdersFixture(t)
	art := f.seedArtwork("60.00", 10)

	orderID := uuid.New()
	f.repo.orders[orderID] = &models.Order{ID: orderID, ProfileID: uuid.New(), Status: enums.OrderStatusPending}
	itemID := uuid.New()
	f.repo.items[itemID] = &models.OrderItem{ID: itemID, OrderID: orderID, ArtworkID: art, Quantity: 1, Price: decimal.RequireFromString("60.00")}

	_, err := f.svc.RemoveItem(context.Background(), Actor{ProfileID: uuid.New()}, itemID)
	if code := errCode(t, err); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
	if len(f.releaser.calls) != 0 {
		t.Fatal("stock must not be released")
	}
}

func TestRemoveItemArtworkGone(t *testing.T) {
	f := newOrdersFixture(t)
	profileID := uuid.New()

	orderID := uuid.New()
	f.repo.orders[orderID] = &models.Order{ID: orderID, ProfileID: profileID, Status: enums.OrderStatusPending}
	itemID := uuid.New()
	f.repo.items[itemID] = &models.OrderItem{ID: itemID, OrderID: orderID, ArtworkID: uuid.New(), Quantity: 1, Price: decimal.RequireFromString("10.00")}

	_, err := f.svc.RemoveItem(context.Background(), Actor{ProfileID: profileID}, itemID)
	if code := errCode(t, err); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}

func TestCheckoutPersistsCheapestRate(t *testing.T) {
	f := newOrdersFixture(t)
	profileID := uuid.New()
	orderID := uuid.New()
	f.repo.orders[orderID] = &models.Order{ID: orderID, ProfileID: profileID, Status: enums.OrderStatusPending}

	f.rates.rates = []shipping.Rate{
		{RateID: "rt_exp", Carrier: "dhl", Amount: decimal.RequireFromString("4500.00")},
		{RateID: "rt_std", Carrier: "gig", Amount: decimal.RequireFromString("2100.00")},
	}

	order, err := f.svc.Checkout(context.Background(), Actor{ProfileID: profileID}, orderID, CheckoutInput{City: "Abuja", Country: "NG"})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.ShippingCost == nil || !order.ShippingCost.Equal(decimal.RequireFromString("2100.00")) {
		t.Fatalf("expected cheapest rate persisted, got %+v", order.ShippingCost)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("checkout must not transition status, got %s", order.Status)
	}
	if f.repo.shipment == nil || f.repo.shipment.RateID == nil || *f.repo.shipment.RateID != "rt_std" {
		t.Fatalf("expected shipment rate rt_std, got %+v", f.repo.shipment)
	}
}

func TestCancelShippedOrderConflicts(t *testing.T) {
	f := newOrdersFixture(t)
	profileID := uuid.New()
	orderID := uuid.New()
	f.repo.orders[orderID] = &models.Order{ID: orderID, ProfileID: profileID, Status: enums.OrderStatusShipped}

	err := f.svc.Cancel(context.Background(), Actor{ProfileID: profileID}, orderID)
	if code := errCode(t, err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", code)
	}
	if len(f.releaser.calls) != 0 {
		t.Fatal("shipped order must not release stock")
	}
}

func TestCancelReleasesStockAndEmits(t *testing.T) {
	f := newOrdersFixture(t)
	profileID := uuid.New()
	art := f.seedArtwork("75.00", 3)

	orderID := uuid.New()
	f.repo.orders[orderID] = &models.Order{ID: orderID, ProfileID: profileID, Status: enums.OrderStatusPending}
	itemID := uuid.New()
	f.repo.items[itemID] = &models.OrderItem{ID: itemID, OrderID: orderID, ArtworkID: art, Quantity: 3, Price: decimal.RequireFromString("225.00")}

	if err := f.svc.Cancel(context.Background(), Actor{ProfileID: profileID}, orderID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if f.repo.orders[orderID].Status != enums.OrderStatusCanceled {
		t.Fatalf("expected canceled, got %s", f.repo.orders[orderID].Status)
	}
	if len(f.releaser.calls) != 1 || f.releaser.calls[0].qty != 3 {
		t.Fatalf("unexpected release calls: %+v", f.releaser.calls)
	}
	if f.outbox.lastEventType() != enums.EventOrderCanceled {
		t.Fatalf("expected order_canceled event, got %s", f.outbox.lastEventType())
	}
}

func TestChangeStatusRequiresAdmin(t *testing.T) {
	f := newOrdersFixture(t)

	err := f.svc.ChangeStatus(context.Background(), Actor{ProfileID: uuid.New(), Role: enums.UserRoleUser}, uuid.New(), enums.OrderStatusPaid, false)
	if code := errCode(t, err); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
}

func TestChangeStatusRespectsTransitionTable(t *testing.T) {
	f := newOrdersFixture(t)
	orderID := uuid.New()
	f.repo.orders[orderID] = &models.Order{ID: orderID, ProfileID: uuid.New(), Status: enums.OrderStatusShipped}

	admin := Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	err := f.svc.ChangeStatus(context.Background(), admin, orderID, enums.OrderStatusCanceled, false)
	if code := errCode(t, err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", code)
	}

	if err := f.svc.ChangeStatus(context.Background(), admin, orderID, enums.OrderStatusCanceled, true); err != nil {
		t.Fatalf("forced change: %v", err)
	}
	if f.repo.orders[orderID].Status != enums.OrderStatusCanceled {
		t.Fatalf("expected canceled, got %s", f.repo.orders[orderID].Status)
	}
	if f.outbox.lastEventType() != enums.EventOrderStatusForced {
		t.Fatalf("expected order_status_forced event, got %s", f.outbox.lastEventType())
	}
}

func TestDeleteReleasesLiveHolds(t *testing.T) {
	f := newOrdersFixture(t)
	profileID := uuid.New()
	art := f.seedArtwork("30.00", 5)

	orderID := uuid.New()
	f.repo.orders[orderID] = &models.Order{ID: orderID, ProfileID: profileID, Status: enums.OrderStatusPending}
	itemID := uuid.New()
	f.repo.items[itemID] = &models.OrderItem{ID: itemID, OrderID: orderID, ArtworkID: art, Quantity: 2, Price: decimal.RequireFromString("60.00")}

	if err := f.svc.Delete(context.Background(), Actor{ProfileID: profileID}, orderID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(f.releaser.calls) != 1 || f.releaser.calls[0].qty != 2 {
		t.Fatalf("unexpected release calls: %+v", f.releaser.calls)
	}
	if len(f.repo.deletedOrders) != 1 {
		t.Fatalf("expected order deletion, got %+v", f.repo.deletedOrders)
	}
}

func TestDeleteCanceledOrderSkipsRelease(t *testing.T) {
	f := newOrdersFixture(t)
	profileID := uuid.New()
	art := f.seedArtwork("30.00", 5)

	orderID := uuid.New()
	f.repo.orders[orderID] = &models.Order{ID: orderID, ProfileID: profileID, Status: enums.OrderStatusCanceled}
	itemID := uuid.New()
	f.repo.items[itemID] = &models.OrderItem{ID: itemID, OrderID: orderID, ArtworkID: art, Quantity: 2, Price: decimal.RequireFromString("60.00")}

	if err := f.svc.Delete(context.Background(), Actor{ProfileID: profileID}, orderID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(f.releaser.calls) != 0 {
		t.Fatalf("canceled order must not release again: %+v", f.releaser.calls)
	}
}
