package payments

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/outbox"
	"github.com/damilareakin/artmarket-backend/pkg/paystack"
)

type stubPaymentsRepo struct {
	payments map[string]*models.Payment
	orders   map[uuid.UUID]*models.Order
	emails   map[uuid.UUID]string

	paymentStatus map[uuid.UUID]enums.PaymentStatus
}

func newStubPaymentsRepo() *stubPaymentsRepo {
	return &stubPaymentsRepo{
		payments:      make(map[string]*models.Payment),
		orders:        make(map[uuid.UUID]*models.Order),
		emails:        make(map[uuid.UUID]string),
		paymentStatus: make(map[uuid.UUID]enums.PaymentStatus),
	}
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentsRepo) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	s.payments[payment.TransactionID] = payment
	return payment, nil
}

func (s *stubPaymentsRepo) FindPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	payment, ok := s.payments[reference]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *payment
	return &copied, nil
}

func (s *stubPaymentsRepo) FindPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	rows := make([]models.Payment, 0)
	for _, payment := range s.payments {
		if payment.OrderID == orderID {
			rows = append(rows, *payment)
		}
	}
	return rows, nil
}

func (s *stubPaymentsRepo) UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status enums.PaymentStatus) error {
	s.paymentStatus[paymentID] = status
	for _, payment := range s.payments {
		if payment.ID == paymentID {
			payment.Status = status
		}
	}
	return nil
}

func (s *stubPaymentsRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubPaymentsRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	order, ok := s.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	return nil
}

func (s *stubPaymentsRepo) FindProfileEmail(ctx context.Context, profileID uuid.UUID) (string, error) {
	email, ok := s.emails[profileID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return email, nil
}

type stubGateway struct {
	initResult   *paystack.InitializeResult
	initErr      error
	verifyResult *paystack.VerifyResult
	verifyErr    error
	initCalls    []paystack.InitializeRequest
}

func (s *stubGateway) Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error) {
	s.initCalls = append(s.initCalls, req)
	if s.initErr != nil {
		return nil, s.initErr
	}
	if s.initResult != nil {
		return s.initResult, nil
	}
	return &paystack.InitializeResult{
		AuthorizationURL: "https://checkout.example.com/" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (s *stubGateway) Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.verifyResult, nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return s.Emit(ctx, tx, event)
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type paymentsFixture struct {
	repo    *stubPaymentsRepo
	gateway *stubGateway
	outbox  *stubOutbox
	svc     Service
}

func newPaymentsFixture(t *testing.T) *paymentsFixture {
	t.Helper()
	f := &paymentsFixture{
		repo:    newStubPaymentsRepo(),
		gateway: &stubGateway{},
		outbox:  &stubOutbox{},
	}
	svc, err := NewService(f.repo, stubTxRunner{}, f.outbox, f.gateway, "https://app.artmarket.test/payments/callback", nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	f.svc = svc
	return f
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	return typed.Code()
}

func TestInitCreatesPendingPayment(t *testing.T) {
	f := newPaymentsFixture(t)
	profileID := uuid.New()
	orderID := uuid.New()
	shipping := decimal.RequireFromString("2100.00")
	f.repo.orders[orderID] = &models.Order{
		ID:           orderID,
		ProfileID:    profileID,
		Status:       enums.OrderStatusPending,
		TotalPrice:   decimal.RequireFromString("340.50"),
		ShippingCost: &shipping,
	}
	f.repo.emails[profileID] = "buyer@example.com"

	result, err := f.svc.Init(context.Background(), Actor{ProfileID: profileID}, orderID)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if result.Reference == "" || !strings.HasPrefix(result.AuthorizationURL, "https://checkout.example.com/") {
		t.Fatalf("unexpected result: %+v", result)
	}

	if len(f.gateway.initCalls) != 1 {
		t.Fatalf("expected 1 gateway call, got %d", len(f.gateway.initCalls))
	}
	wantAmount := decimal.RequireFromString("2440.50")
	if !f.gateway.initCalls[0].Amount.Equal(wantAmount) {
		t.Fatalf("expected amount %s, got %s", wantAmount, f.gateway.initCalls[0].Amount)
	}

	payment, ok := f.repo.payments[result.Reference]
	if !ok {
		t.Fatal("expected payment row recorded")
	}
	if payment.Status != enums.PaymentStatusPending {
		t.Fatalf("expected pending status, got %s", payment.Status)
	}
	if payment.PayeeEmail != "buyer@example.com" {
		t.Fatalf("unexpected payee email %s", payment.PayeeEmail)
	}
}

func TestInitRejectsForeignOrder(t *testing.T) {
	f := newPaymentsFixture(t)
	orderID := uuid.New()
	f.repo.orders[orderID] = &models.Order{
		ID:         orderID,
		ProfileID:  uuid.New(),
		Status:     enums.OrderStatusPending,
		TotalPrice: decimal.RequireFromString("100.00"),
	}

	_, err := f.svc.Init(context.Background(), Actor{ProfileID: uuid.New()}, orderID)
	if code := errCode(t, err); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
}

func TestVerifySuccessTransitionsOrder(t *testing.T) {
	f := newPaymentsFixture(t)
	profileID := uuid.New()
	orderID := uuid.New()
	f.repo.orders[orderID] = &models.Order{
		ID:         orderID,
		ProfileID:  profileID,
		Status:     enums.OrderStatusPending,
		TotalPrice: decimal.RequireFromString("500.00"),
	}
	f.repo.payments["ref-1"] = &models.Payment{
		ID:            uuid.New(),
		TransactionID: "ref-1",
		OrderID:       orderID,
		PayeeID:       profileID,
		Amount:        decimal.RequireFromString("500.00"),
		Status:        enums.PaymentStatusPending,
	}
	f.gateway.verifyResult = &paystack.VerifyResult{Status: "success", Reference: "ref-1"}

	outcome, err := f.svc.Verify(context.Background(), Actor{ProfileID: profileID}, "ref-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if outcome.Status != enums.PaymentStatusSuccess {
		t.Fatalf("expected success status, got %s", outcome.Status)
	}
	if f.repo.orders[orderID].Status != enums.OrderStatusPaid {
		t.Fatalf("expected order paid, got %s", f.repo.orders[orderID].Status)
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderPaid {
		t.Fatalf("expected order_paid event, got %+v", f.outbox.events)
	}
}

func TestVerifySuccessIsIdempotent(t *testing.T) {
	f := newPaymentsFixture(t)
	profileID := uuid.New()
	orderID := uuid.New()
	f.repo.orders[orderID] = &models.Order{ID: orderID, ProfileID: profileID, Status: enums.OrderStatusPaid}
	f.repo.payments["ref-1"] = &models.Payment{
		ID:            uuid.New(),
		TransactionID: "ref-1",
		OrderID:       orderID,
		PayeeID:       profileID,
		Status:        enums.PaymentStatusSuccess,
	}
	f.gateway.verifyResult = &paystack.VerifyResult{Status: "success", Reference: "ref-1"}

	outcome, err := f.svc.Verify(context.Background(), Actor{ProfileID: profileID}, "ref-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if outcome.OrderStatus != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", outcome.OrderStatus)
	}
	if len(f.outbox.events) != 0 {
		t.Fatalf("repeat verify must not emit events, got %+v", f.outbox.events)
	}
}

func TestVerifyFailedLeavesOrderPending(t *testing.T) {
	f := newPaymentsFixture(t)
	profileID := uuid.New()
	orderID := uuid.New()
	f.repo.orders[orderID] = &models.Order{ID: orderID, ProfileID: profileID, Status: enums.OrderStatusPending}
	f.repo.payments["ref-2"] = &models.Payment{
		ID:            uuid.New(),
		TransactionID: "ref-2",
		OrderID:       orderID,
		PayeeID:       profileID,
		Status:        enums.PaymentStatusPending,
	}
	f.gateway.verifyResult = &paystack.VerifyResult{Status: "failed", Reference: "ref-2", GatewayResponse: "Declined"}

	outcome, err := f.svc.Verify(context.Background(), Actor{ProfileID: profileID}, "ref-2")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if outcome.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed status, got %s", outcome.Status)
	}
	if f.repo.orders[orderID].Status != enums.OrderStatusPending {
		t.Fatalf("order must stay pending, got %s", f.repo.orders[orderID].Status)
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventPaymentFailed {
		t.Fatalf("expected payment_failed event, got %+v", f.outbox.events)
	}
}

func TestVerifyUnknownReference(t *testing.T) {
	f := newPaymentsFixture(t)

	_, err := f.svc.Verify(context.Background(), Actor{ProfileID: uuid.New()}, "missing")
	if code := errCode(t, err); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}
